package worker

import (
	"context"
	"time"

	"github.com/cloudcrash/panel-proxy/internal/application/interface/repository"
	"github.com/cloudcrash/panel-proxy/internal/application/model"
)

// QueueWatcher プリフェッチキューを監視してジョブを取り出す
type QueueWatcher struct {
	responseCache repository.ResponseCache
	timeout       time.Duration // BLPopのタイムアウト時間（監視時間）
}

func NewQueueWatcher(
	responseCache repository.ResponseCache,
	timeout time.Duration,
) *QueueWatcher {
	return &QueueWatcher{
		responseCache: responseCache,
		timeout:       timeout,
	}
}

// WatchQueue キューを監視してジョブを取得する
// タイムアウトの場合は (nil, nil) を返す
func (qw *QueueWatcher) WatchQueue(ctx context.Context) (*model.FetchRequest, error) {
	return qw.responseCache.BLPopPrefetchRequest(ctx, qw.timeout)
}
