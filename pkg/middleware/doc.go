// Package middleware はカタログAPIで使用する共通ミドルウェアを提供する。
//
// ログイン時のJWT発行とBearerトークンの検証、リクエストログ、
// パニックリカバリ、CORS設定を含む。ログはすべてlogrusで出力する。
package middleware
