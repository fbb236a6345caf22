package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	catalogdb "github.com/nao1215/catalog/internal/catalog/db"
	"github.com/nao1215/catalog/pkg/middleware"
	"github.com/sirupsen/logrus"
)

// Config はServerの生成に必要な依存関係。
type Config struct {
	// Port はサーバーのリッスンポート。
	Port string
	// Store はカテゴリと製品の永続化ゲートウェイ。
	Store *catalogdb.Store
	// Tokens はログイン時のトークン発行と保護ルートでの検証に使う。
	Tokens *middleware.TokenIssuer
	// Verifier はログイン時の資格情報を検証する。
	Verifier IdentityVerifier
	// Logger はリクエストログとエラーの出力先。
	Logger logrus.FieldLogger
	// AllowedOrigins はCORSを許可するオリジン。
	AllowedOrigins []string
}

// Server はカタログサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// httpServer はrouterを公開するHTTPサーバー。
	httpServer *http.Server
	// store はカテゴリと製品の永続化ゲートウェイ。
	store *catalogdb.Store
	// tokens はトークンの発行と検証を行う。
	tokens *middleware.TokenIssuer
	// verifier はログイン時の資格情報を検証する。
	verifier IdentityVerifier
	// logger はエラーの出力先。
	logger logrus.FieldLogger
}

// NewServer は新しいカタログサーバーを生成する。
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	s := &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		store:    cfg.Store,
		tokens:   cfg.Tokens,
		verifier: cfg.Verifier,
		logger:   logger,
	}
	s.setupRoutes()

	return s
}

// Handler はルーティング済みのHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、Shutdownが呼ばれるまでブロックする。
func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown は処理中のリクエストの完了を待ってHTTPサーバーを停止する。
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// setupRoutes はAPIルーティングを設定する。
// 認証が不要なのは /login と /health のみ。
func (s *Server) setupRoutes() {
	// ログイン
	s.router.POST("/login", s.handleLogin())

	api := s.router.Group("/")
	api.Use(middleware.JWTAuth(s.tokens))
	{
		// カテゴリ
		api.POST("/categorias", s.handleCreateCategory())
		api.GET("/categorias", s.handleListCategories())
		api.GET("/categorias/:id", s.handleGetCategory())
		api.PUT("/categorias/:id", s.handleUpdateCategory())
		api.DELETE("/categorias/:id", s.handleDeleteCategory())
		api.GET("/categoriaprodutos", s.handleListCategoriesWithProducts())

		// 製品
		api.POST("/produtos", s.handleCreateProduct())
		api.GET("/produtos", s.handleListProducts())
		api.GET("/produto/:id", s.handleGetProduct())
		api.PUT("/produtos", s.handleUpdateProductName())
		api.PUT("/produtos/:id", s.handleUpdateProduct())
		api.DELETE("/produtos/:id", s.handleDeleteProduct())
		api.GET("/produtos/nome/:criterio", s.handleSearchProducts())
		api.GET("/produtosporpagina", s.handleListProductsPaged())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "catalog"})
	})

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "エンドポイントが見つかりません"})
	})
}

// parseID はパスパラメータを正の整数IDとして解釈する。
func parseID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "IDが不正です"})
		return 0, false
	}
	return id, true
}

// internalError はストアのエラーを記録して500を返す。
func (s *Server) internalError(c *gin.Context, msg string, err error) {
	s.logger.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).Error(msg)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
