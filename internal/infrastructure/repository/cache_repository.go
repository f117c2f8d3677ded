package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudcrash/panel-proxy/internal/application/model"
)

// CacheRepository レスポンスキャッシュとプリフェッチキューのリポジトリ
// ストアへのアクセスはCacheClientプラグインに委譲し、ここでは
// キーの組み立てとJSONシリアライズのみを行う
type CacheRepository struct {
	client    CacheClient
	keyPrefix string
}

func NewCacheRepository(client CacheClient, keyPrefix string) *CacheRepository {
	return &CacheRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (cr *CacheRepository) storeKey(req *model.FetchRequest) string {
	return cr.keyPrefix + req.CacheKey()
}

// GetResponse キャッシュからレスポンスを取得する
// ミスは (nil, false, nil)、デコード失敗などの内部エラーは呼び出し元がミスとして扱う
func (cr *CacheRepository) GetResponse(ctx context.Context, req *model.FetchRequest) (*model.FetchResponse, bool, error) {
	cachedData, err := cr.client.GetCache(ctx, cr.storeKey(req))
	if err != nil {
		return nil, false, err
	}
	if cachedData == nil {
		// キャッシュミス
		return nil, false, nil
	}

	// キャッシュヒット: キャッシュされたデータをFetchResponseにデコード
	var cachedResp model.FetchResponse
	if err := json.Unmarshal(cachedData, &cachedResp); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached response: %w", err)
	}

	return &cachedResp, true, nil
}

// SetResponse キャッシュにレスポンスを保存する（既存エントリは置き換え）
func (cr *CacheRepository) SetResponse(ctx context.Context, req *model.FetchRequest, response *model.FetchResponse, ttl time.Duration) error {
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to encode response for cache: %w", err)
	}
	return cr.client.SetCache(ctx, cr.storeKey(req), data, ttl)
}

// DeleteExpiredCaches 期限切れのキャッシュを削除する
func (cr *CacheRepository) DeleteExpiredCaches(ctx context.Context) error {
	return cr.client.DeleteExpiredCaches(ctx)
}

// DeleteAllCaches すべてのキャッシュを削除する
func (cr *CacheRepository) DeleteAllCaches(ctx context.Context) error {
	return cr.client.DeleteAllCaches(ctx)
}

// ReservePrefetch プリフェッチ対象のリクエストをキューに予約する
func (cr *CacheRepository) ReservePrefetch(ctx context.Context, req *model.FetchRequest) error {
	job, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode prefetch job: %w", err)
	}
	return cr.client.PushPrefetchJob(ctx, job)
}

// BLPopPrefetchRequest 予約されたリクエストをブロッキングで取得する
// タイムアウトの場合は (nil, nil) を返す
func (cr *CacheRepository) BLPopPrefetchRequest(ctx context.Context, timeout time.Duration) (*model.FetchRequest, error) {
	job, err := cr.client.BLPopPrefetchJob(ctx, timeout)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}

	var req model.FetchRequest
	if err := json.Unmarshal(job, &req); err != nil {
		return nil, fmt.Errorf("failed to decode prefetch job: %w", err)
	}
	return &req, nil
}
