package worker

import (
	"context"
	"log"
	"time"

	gateway "github.com/cloudcrash/panel-proxy/internal/application/interface/gateway"
	"github.com/cloudcrash/panel-proxy/internal/application/interface/repository"
	"github.com/cloudcrash/panel-proxy/internal/application/model"
)

// RequestHandler 予約されたプリフェッチリクエストを処理してキャッシュを温める
type RequestHandler struct {
	responseCache   repository.ResponseCache
	upstreamGateway gateway.UpstreamGateway
	defaultTTL      time.Duration
}

func NewRequestHandler(
	responseCache repository.ResponseCache,
	upstreamGateway gateway.UpstreamGateway,
	defaultTTL time.Duration,
) *RequestHandler {
	return &RequestHandler{
		responseCache:   responseCache,
		upstreamGateway: upstreamGateway,
		defaultTTL:      defaultTTL,
	}
}

// HandleRequest プリフェッチリクエストを処理してキャッシュに保存する
// 先読みは最善努力であり、失敗してもログに残して捨てるだけでよい
func (rh *RequestHandler) HandleRequest(ctx context.Context, req *model.FetchRequest, workerID int) error {
	// 既にキャッシュ済みなら何もしない
	if _, found, err := rh.responseCache.GetResponse(ctx, req); err == nil && found {
		log.Printf("[Worker %d] プリフェッチ不要（キャッシュ済み）: %s", workerID, req.URL)
		return nil
	}

	log.Printf("[Worker %d] プリフェッチ開始: %s", workerID, req.URL)

	resp, err := rh.upstreamGateway.ProxyRequest(ctx, req)
	if err != nil {
		log.Printf("[Worker %d] プリフェッチの転送に失敗 (URL: %s): %v", workerID, req.URL, err)
		return err
	}

	// 2xx以外・副作用のあるメソッドはキャッシュしない
	if !req.IsCacheable() || !resp.IsSuccess() {
		log.Printf("[Worker %d] プリフェッチ結果はキャッシュ対象外 (URL: %s, status: %d)", workerID, req.URL, resp.StatusCode)
		return nil
	}

	if err := rh.responseCache.SetResponse(ctx, req, resp, rh.defaultTTL); err != nil {
		log.Printf("[Worker %d] プリフェッチキャッシュの保存に失敗 (URL: %s): %v", workerID, req.URL, err)
		return err
	}

	log.Printf("[Worker %d] プリフェッチ完了: %s", workerID, req.URL)
	return nil
}
