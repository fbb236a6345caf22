// Package catalog はカテゴリと製品を管理するカタログAPIサーバーを提供する。
//
// ログインでJWTを発行し、それ以外の業務エンドポイントはすべて
// Bearerトークンで保護する。永続化は internal/catalog/db のStoreに委譲する。
package catalog
