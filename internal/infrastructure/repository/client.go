package repository

import (
	"context"
	"time"
)

// CacheClient キャッシュストアとプリフェッチキューへの低レベルアクセス（infrastructure層の型）
// Redis実装とメモリ実装をプラグインとして差し替えられる
type CacheClient interface {
	// GetCache キャッシュから生データを取得する
	// ミス（未登録・期限切れ）の場合は (nil, nil) を返す
	GetCache(ctx context.Context, key string) ([]byte, error)

	// SetCache キャッシュに生データをTTL付きで保存する（既存エントリは置き換え）
	SetCache(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// DeleteExpiredCaches 期限切れエントリを削除する
	// TTLをネイティブに扱うストアでは何もしなくてよい
	DeleteExpiredCaches(ctx context.Context) error

	// DeleteAllCaches すべてのキャッシュエントリを削除する
	DeleteAllCaches(ctx context.Context) error

	// PushPrefetchJob プリフェッチジョブをキューの末尾に追加する
	PushPrefetchJob(ctx context.Context, job []byte) error

	// BLPopPrefetchJob プリフェッチジョブをブロッキングで取得する
	// timeoutまでにジョブが来なければ (nil, nil) を返す
	BLPopPrefetchJob(ctx context.Context, timeout time.Duration) ([]byte, error)
}
