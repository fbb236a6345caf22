package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger はリクエストごとにメソッド・パス・ステータス・処理時間を記録するGinミドルウェアを返す。
// 認証済みのリクエストではusernameとsubjectも記録する。
// 5xxはError、4xxはWarn、それ以外はInfoで出力する。
func RequestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"remote_ip":  c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
		})
		if username := GetUsername(c); username != "" {
			entry = entry.WithField("username", username)
		}
		if subject := GetSubject(c); subject != "" {
			entry = entry.WithField("subject", subject)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("リクエスト処理に失敗しました")
		case status >= 400:
			entry.Warn("リクエストを拒否しました")
		default:
			entry.Info("リクエストを処理しました")
		}
	}
}
