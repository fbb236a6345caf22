// カタログサービスのエントリポイント。
// カテゴリと製品のCRUD APIとログインによるJWT発行を提供する。
// "healthcheck" 引数で起動した場合は稼働中のサーバーの /health を確認して終了する。
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/nao1215/catalog/internal/catalog"
	catalogdb "github.com/nao1215/catalog/internal/catalog/db"
	"github.com/nao1215/catalog/internal/config"
	"github.com/nao1215/catalog/pkg/httpclient"
	"github.com/nao1215/catalog/pkg/middleware"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := healthcheck(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}
	logger := cfg.NewLogger()

	gormDB, err := catalogdb.Open(cfg.DBDriver, cfg.DatabaseURL, cfg.DBDebug)
	if err != nil {
		logger.Fatalf("データベースの初期化に失敗: %v", err)
	}
	if err := catalogdb.Migrate(gormDB, cfg.DBDriver, logger); err != nil {
		logger.Fatalf("マイグレーションに失敗: %v", err)
	}

	verifier, err := catalog.NewStaticVerifier(cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		logger.Fatalf("資格情報の初期化に失敗: %v", err)
	}

	server := catalog.NewServer(catalog.Config{
		Port:  cfg.Port,
		Store: catalogdb.NewStore(gormDB),
		Tokens: middleware.NewTokenIssuer(middleware.TokenConfig{
			Key:      []byte(cfg.JWTKey),
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
			TTL:      cfg.JWTTTL,
		}),
		Verifier:       verifier,
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	go func() {
		logger.WithField("port", cfg.Port).Info("カタログサービスを起動します")
		if err := server.Run(); err != nil {
			logger.Fatalf("カタログサービスの起動に失敗: %v", err)
		}
	}()

	// HTTPサーバーを止めてからDBを閉じる
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"catalog": func(ctx context.Context) error {
				logger.Info("シャットダウンを開始します")
				return errors.Join(server.Shutdown(ctx), catalogdb.Close(gormDB))
			},
		},
	)

	exitCode := <-wait
	logger.WithField("exit_code", exitCode).Info("カタログサービスを停止しました")
	os.Exit(exitCode)
}

// healthcheck はローカルで稼働中のサーバーの /health を呼び出す。
func healthcheck() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var resp struct {
		Status string `json:"status"`
	}
	if err := httpclient.New("http://127.0.0.1:"+port).GetJSON(ctx, "/health", &resp); err != nil {
		return fmt.Errorf("ヘルスチェックに失敗: %w", err)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("ヘルスチェックに失敗: status=%s", resp.Status)
	}
	return nil
}
