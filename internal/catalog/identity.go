package catalog

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials はユーザー名またはパスワードが一致しない場合に返る。
var ErrInvalidCredentials = errors.New("ユーザー名またはパスワードが不正です")

// Identity は認証済みユーザー。
type Identity struct {
	// Name はトークンのnameクレームに入る表示名。
	Name string
}

// IdentityVerifier はログイン時の資格情報を検証する。
// 一致しない場合はErrInvalidCredentialsを返す。
type IdentityVerifier interface {
	Verify(ctx context.Context, username, password string) (Identity, error)
}

// StaticVerifier は設定された1組のユーザー名とパスワードのみを受け付ける。
// パスワードはbcryptハッシュとして保持する。
type StaticVerifier struct {
	username     string
	passwordHash []byte
}

// NewStaticVerifier はusernameとpasswordを受け付けるStaticVerifierを生成する。
func NewStaticVerifier(username, password string) (*StaticVerifier, error) {
	if username == "" || password == "" {
		return nil, errors.New("ユーザー名とパスワードは空にできません")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}
	return &StaticVerifier{username: username, passwordHash: hash}, nil
}

// Verify は資格情報を検証する。
func (v *StaticVerifier) Verify(_ context.Context, username, password string) (Identity, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(v.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{Name: v.username}, nil
}
