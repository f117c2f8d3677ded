package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cloudcrash/panel-proxy/internal/application/model"
)

// PrefetchProcessor プリフェッチキューを処理するWorker Poolと
// キャッシュクリーンアップのcronジョブを管理する
type PrefetchProcessor struct {
	workers         int
	jobQueue        chan *model.FetchRequest
	reqHandler      RequestHandler
	queueWatcher    QueueWatcher
	cacheHandler    CacheHandler
	cleanupInterval time.Duration
	cron            *cron.Cron
}

func NewPrefetchProcessor(
	workers int,
	reqHandler RequestHandler,
	queueWatcher QueueWatcher,
	cacheHandler CacheHandler,
	cleanupInterval time.Duration,
) *PrefetchProcessor {
	return &PrefetchProcessor{
		workers:         workers,
		jobQueue:        make(chan *model.FetchRequest, workers*2),
		reqHandler:      reqHandler,
		queueWatcher:    queueWatcher,
		cacheHandler:    cacheHandler,
		cleanupInterval: cleanupInterval,
		cron:            cron.New(),
	}
}

func (pp *PrefetchProcessor) Start(ctx context.Context) error {
	// 1. Worker Poolを起動（プリフェッチ処理）
	log.Printf("[PrefetchProcessor] Worker Poolを起動します (workers: %d)", pp.workers)
	for i := 0; i < pp.workers; i++ {
		go pp.worker(ctx, i)
	}

	// 2. キュー監視を起動
	go pp.watchQueue(ctx)
	log.Printf("[PrefetchProcessor] Worker Poolを起動しました")

	// 3. キャッシュクリーンアップcronを起動
	spec := fmt.Sprintf("@every %s", pp.cleanupInterval)
	_, err := pp.cron.AddFunc(spec, func() {
		if err := pp.cacheHandler.DeleteExpiredCaches(ctx); err != nil {
			log.Printf("[Cache Cleanup] 期限切れキャッシュ削除エラー: %v", err)
		} else {
			log.Printf("[Cache Cleanup] 期限切れキャッシュを削除しました")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule cache cleanup: %w", err)
	}
	pp.cron.Start()
	log.Printf("[PrefetchProcessor] キャッシュクリーンアップを起動しました (interval: %s)", pp.cleanupInterval)

	// ctx終了時にcronを停止する
	go func() {
		<-ctx.Done()
		pp.cron.Stop()
	}()

	return nil
}

func (pp *PrefetchProcessor) worker(ctx context.Context, id int) {
	log.Printf("[Worker %d] 起動しました", id)
	defer log.Printf("[Worker %d] 終了しました", id)

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-pp.jobQueue:
			if err := pp.reqHandler.HandleRequest(ctx, req, id); err != nil {
				log.Printf("[Worker %d] プリフェッチ処理エラー (URL: %s): %v", id, req.URL, err)
			}
		}
	}
}

func (pp *PrefetchProcessor) watchQueue(ctx context.Context) {
	log.Printf("[Queue Watcher] プリフェッチキュー監視を開始しました")
	defer log.Printf("[Queue Watcher] プリフェッチキュー監視を終了しました")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			req, err := pp.queueWatcher.WatchQueue(ctx) // timeoutはQueueWatcher内部で管理
			if err != nil {
				log.Printf("[Queue Watcher] キュー取得エラー: %v", err)
				// エラー時は少し待機して続行
				time.Sleep(1 * time.Second)
				continue
			}

			// リクエストが取得できた場合、ジョブキューに投入
			if req != nil {
				select {
				case pp.jobQueue <- req:
				case <-ctx.Done():
					return
				}
			}
			// req == nil の場合はタイムアウトなので、ループを継続
		}
	}
}
