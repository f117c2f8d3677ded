package model

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// NormalizeRequestURL キャッシュキー用にURLを正規化する（domain層のロジック）
// フラグメントはアップストリームへ送信されないため除去する
// クエリパラメータはレスポンスを変えるためそのまま保持する
// パースできないURLはそのまま返す（キー衝突よりミスの方が安全）
func NormalizeRequestURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.Fragment = ""
	return parsed.String()
}

// GenerateCacheKey メソッドと正規化済みURLからキャッシュキーを生成する（domain層のロジック）
// メソッドは大文字に正規化する（"get" と "GET" が別エントリにならないように）
func GenerateCacheKey(method string, rawURL string) string {
	normalized := strings.ToUpper(strings.TrimSpace(method)) + " " + NormalizeRequestURL(rawURL)
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:])
}
