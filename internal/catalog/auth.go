package catalog

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// loginRequest はログインリクエストのJSON構造。
type loginRequest struct {
	// Username はユーザー名。
	Username string `json:"username" binding:"required"`
	// Password はパスワード。
	Password string `json:"password" binding:"required"`
}

// loginResponse はログイン成功時のJSON構造。
type loginResponse struct {
	// Token は保護されたエンドポイントで使うBearerトークン。
	Token string `json:"token"`
}

// handleLogin はログインを処理するハンドラを返す。
// 資格情報が正しければ署名済みトークンを返す。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ログインが無効です"})
			return
		}

		identity, err := s.verifier.Verify(c.Request.Context(), req.Username, req.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ログインが無効です"})
			return
		}
		if err != nil {
			s.internalError(c, "資格情報の検証に失敗しました", err)
			return
		}

		token, err := s.tokens.Issue(identity.Name)
		if err != nil {
			s.internalError(c, "トークンの発行に失敗しました", err)
			return
		}

		c.JSON(http.StatusOK, loginResponse{Token: token})
	}
}
