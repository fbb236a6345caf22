// Package httpclient はカタログAPIを呼び出すHTTPクライアントを提供する。
//
// Bearerトークンの付与、JSONのシリアライズ、2xx以外のレスポンスの
// StatusErrorへの変換を共通化する。コンテナのヘルスチェックと
// エンドツーエンドテストから使用する。
package httpclient
