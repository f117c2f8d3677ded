package plugins

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cloudcrash/panel-proxy/internal/application/model"
)

var errPrefetchQueueFull = errors.New("prefetch queue is full")

// MemoryClient プロセス内メモリをバックエンドに使うCacheClient実装（デフォルト）
// 再起動で状態は消える
// 期限切れエントリはGet時にミスとして扱い、実体の削除はDeleteExpiredCachesが行う
type MemoryClient struct {
	mu      sync.RWMutex
	entries map[string]model.CacheEntry

	// プリフェッチキュー（バッファ付きチャンネル）
	// 満杯時のPushはエラーを返し、呼び出し側がログに残して捨てる
	queue chan []byte
}

func NewMemoryClient(queueSize int) *MemoryClient {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &MemoryClient{
		entries: make(map[string]model.CacheEntry),
		queue:   make(chan []byte, queueSize),
	}
}

func (mc *MemoryClient) GetCache(ctx context.Context, key string) ([]byte, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	entry, ok := mc.entries[key]
	if !ok {
		return nil, nil
	}
	if entry.IsExpired() {
		// RLock中は削除できないため、ミスとして返しDeleteExpiredCachesに任せる
		return nil, nil
	}
	return entry.Payload, nil
}

func (mc *MemoryClient) SetCache(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	now := time.Now()
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.entries[key] = model.CacheEntry{
		Payload:   data,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	return nil
}

func (mc *MemoryClient) DeleteExpiredCaches(ctx context.Context) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for key, entry := range mc.entries {
		if entry.IsExpired() {
			delete(mc.entries, key)
		}
	}
	return nil
}

func (mc *MemoryClient) DeleteAllCaches(ctx context.Context) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.entries = make(map[string]model.CacheEntry)
	return nil
}

func (mc *MemoryClient) PushPrefetchJob(ctx context.Context, job []byte) error {
	select {
	case mc.queue <- job:
		return nil
	default:
		// キューが満杯でもリクエスト処理は止めない
		return errPrefetchQueueFull
	}
}

func (mc *MemoryClient) BLPopPrefetchJob(ctx context.Context, timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case job := <-mc.queue:
		return job, nil
	case <-timer.C:
		// タイムアウト
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
