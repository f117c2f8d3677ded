package model

import "time"

// CacheEntry メモリバックエンドが保持するキャッシュエントリ
// Redisバックエンドはネイティブ TTL を使うためこの型を必要としない
type CacheEntry struct {
	// Payload JSONシリアライズ済みのFetchResponse
	Payload []byte `json:"payload"`

	// StoredAt キャッシュ作成時刻
	StoredAt time.Time `json:"stored_at"`

	// ExpiresAt キャッシュ有効期限
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired キャッシュが有効期限切れかどうかを判定する（domain層のロジック）
// 現在時刻の取得もdomain層で隠蔽される
func (ce *CacheEntry) IsExpired() bool {
	return time.Now().After(ce.ExpiresAt)
}
