// Package config はカタログサービスの設定を環境変数から読み込む。
//
// 任意の .env ファイルをgodotenvで読み込んだ後、envconfigで
// 環境変数を構造体に展開し、値を検証する。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// MinJWTKeyLength はHS256の署名鍵として受け付ける最小バイト数。
const MinJWTKeyLength = 32

// Config はカタログサービスの設定。
type Config struct {
	// Port はHTTPサーバーの待ち受けポート。
	Port string `envconfig:"PORT" default:"8080"`
	// DBDriver はデータベースドライバ（sqlite または postgres）。
	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite"`
	// DatabaseURL はデータベースの接続文字列。
	DatabaseURL string `envconfig:"DATABASE_URL" default:"catalog.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"`
	// DBDebug がtrueの場合はGORMが発行したSQLを出力する。
	DBDebug bool `envconfig:"DB_DEBUG" default:"false"`
	// JWTKey はトークンの署名鍵。
	JWTKey string `envconfig:"JWT_KEY" required:"true"`
	// JWTIssuer はトークンの発行者。
	JWTIssuer string `envconfig:"JWT_ISSUER" default:"catalog-api"`
	// JWTAudience はトークンの対象者。
	JWTAudience string `envconfig:"JWT_AUDIENCE" default:"catalog-clients"`
	// JWTTTL はトークンの有効期間。
	JWTTTL time.Duration `envconfig:"JWT_TTL" default:"20m"`
	// AdminUsername はログインを許可するユーザー名。
	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"admin"`
	// AdminPassword はログインを許可するパスワード。
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"admin123"`
	// CORSAllowedOrigins はCORSを許可するオリジン（カンマ区切り）。
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	// LogLevel はlogrusのログレベル。
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// ShutdownTimeout はグレースフルシャットダウンの待ち時間。
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// Load は .env ファイルと環境変数から設定を読み込んで検証する。
// envFilesを省略した場合はカレントディレクトリの .env を読む。
// .env が存在しないことはエラーにしない。既に設定されている環境変数は上書きしない。
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".envファイルの読み込みに失敗: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate は設定値の整合性を検証する。
func (c *Config) Validate() error {
	if len(c.JWTKey) < MinJWTKeyLength {
		return fmt.Errorf("JWT_KEYは%dバイト以上必要です", MinJWTKeyLength)
	}
	if c.DBDriver != "sqlite" && c.DBDriver != "postgres" {
		return fmt.Errorf("未対応のDB_DRIVERです: %s", c.DBDriver)
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URLが空です")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTLは正の値が必要です: %s", c.JWTTTL)
	}
	if c.AdminUsername == "" || c.AdminPassword == "" {
		return errors.New("ADMIN_USERNAMEとADMIN_PASSWORDは空にできません")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVELが不正です: %w", err)
	}
	return nil
}

// NewLogger はLogLevelに従ったJSON形式のロガーを生成する。
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
