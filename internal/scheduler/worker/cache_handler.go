package worker

import (
	"context"

	"github.com/cloudcrash/panel-proxy/internal/application/interface/repository"
)

// CacheHandler 期限切れキャッシュの掃除を行う
type CacheHandler struct {
	responseCache repository.ResponseCache
}

func NewCacheHandler(responseCache repository.ResponseCache) *CacheHandler {
	return &CacheHandler{
		responseCache: responseCache,
	}
}

// DeleteExpiredCaches 期限切れのキャッシュを削除する
func (ch *CacheHandler) DeleteExpiredCaches(ctx context.Context) error {
	return ch.responseCache.DeleteExpiredCaches(ctx)
}
