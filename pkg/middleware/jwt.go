package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL はトークンの既定の有効期間。
const DefaultTokenTTL = 20 * time.Minute

var (
	// ErrInvalidToken は署名・発行者・対象者のいずれかが一致しないトークンを表す。
	ErrInvalidToken = errors.New("トークンが無効です")
	// ErrExpiredToken は有効期限を過ぎたトークンを表す。
	ErrExpiredToken = errors.New("トークンの有効期限が切れています")
)

// TokenConfig はトークンの署名と検証に使う設定。
type TokenConfig struct {
	// Key はHMAC-SHA256の署名鍵。
	Key []byte
	// Issuer はトークンの発行者（iss）。
	Issuer string
	// Audience はトークンの対象者（aud）。
	Audience string
	// TTL はトークンの有効期間。0の場合はDefaultTokenTTLを使う。
	TTL time.Duration
}

// Claims はログイン時に発行するトークンのクレーム。
type Claims struct {
	jwt.RegisteredClaims
	// Name は認証済みユーザーの表示名。
	Name string `json:"name"`
}

// TokenValidator はBearerトークンを検証してクレームを返す。
type TokenValidator interface {
	Validate(tokenString string) (*Claims, error)
}

// TokenIssuer はHS256で署名されたトークンの発行と検証を行う。
type TokenIssuer struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokenIssuer はTokenIssuerを生成する。
func NewTokenIssuer(config TokenConfig) *TokenIssuer {
	if config.TTL <= 0 {
		config.TTL = DefaultTokenTTL
	}
	return &TokenIssuer{
		config: config,
		now:    time.Now,
	}
}

// Issue は表示名nameに対するトークンを発行する。
// subjectは呼び出しごとに新しいランダムなUUIDになり、ログインをまたいで安定しない。
func (i *TokenIssuer) Issue(name string) (string, error) {
	now := i.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Issuer:    i.config.Issuer,
			Audience:  jwt.ClaimStrings{i.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.config.TTL)),
		},
		Name: name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.config.Key)
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Validate はトークンの署名・発行者・対象者・有効期限を検証する。
func (i *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(_ *jwt.Token) (any, error) {
			return i.config.Key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.config.Issuer),
		jwt.WithAudience(i.config.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// JWTAuth はBearerトークンを検証するGinミドルウェアを返す。
// 検証に成功した場合、コンテキストに "username" と "subject" を設定する。
func JWTAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorizationヘッダーが必要です",
			})
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer トークン形式が不正です",
			})
			return
		}

		claims, err := validator.Validate(tokenString)
		if err != nil {
			msg := ErrInvalidToken.Error()
			if errors.Is(err, ErrExpiredToken) {
				msg = ErrExpiredToken.Error()
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set("username", claims.Name)
		c.Set("subject", claims.Subject)
		c.Next()
	}
}

// GetUsername はGinコンテキストから認証済みユーザーの表示名を取得する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func GetUsername(c *gin.Context) string {
	return c.GetString("username")
}

// GetSubject はGinコンテキストからトークンのsubjectを取得する。
func GetSubject(c *gin.Context) string {
	return c.GetString("subject")
}
