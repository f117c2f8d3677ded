package scheduler

import (
	"context"

	"github.com/cloudcrash/panel-proxy/internal/application/model"
)

// RequestHandler プリフェッチリクエストを処理するハンドラー（プラグイン可能）
type RequestHandler interface {
	// HandleRequest リクエストを処理する
	// ctx: コンテキスト
	// req: 処理するリクエスト
	// workerID: ワーカーのID（ログ用）
	HandleRequest(ctx context.Context, req *model.FetchRequest, workerID int) error
}

// QueueWatcher キューを監視してジョブを取得する（プラグイン可能）
type QueueWatcher interface {
	// WatchQueue キューを監視してジョブを取得する
	// 戻り値: 取得したリクエスト（タイムアウトの場合はnil）とエラー
	WatchQueue(ctx context.Context) (*model.FetchRequest, error)
}

// CacheHandler キャッシュ操作を行うハンドラー
type CacheHandler interface {
	// DeleteExpiredCaches 期限切れのキャッシュを削除する
	DeleteExpiredCaches(ctx context.Context) error
}
