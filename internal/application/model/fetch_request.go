package model

import "net/http"

// FetchRequest アップストリームへ転送するリクエスト
type FetchRequest struct {
	// Method HTTPメソッド（GET/HEADのみキャッシュ対象）
	Method string `json:"method"`

	// URL 転送先の絶対URL
	URL string `json:"url"`

	// Headers 転送するHTTPヘッダー（Gateway層で転送ポリシーを適用する）
	Headers map[string][]string `json:"headers"`
}

// IsCacheable 副作用のないメソッドかどうかを判定する
// POST/PATCH/DELETEなどの結果はキャッシュしてはいけない
func (fr *FetchRequest) IsCacheable() bool {
	return fr.Method == http.MethodGet || fr.Method == http.MethodHead
}

// CacheKey メソッドと正規化済みURLからキャッシュキーを生成する
func (fr *FetchRequest) CacheKey() string {
	return GenerateCacheKey(fr.Method, fr.URL)
}
