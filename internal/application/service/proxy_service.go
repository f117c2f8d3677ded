package service

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"time"

	gateway "github.com/cloudcrash/panel-proxy/internal/application/interface/gateway"
	"github.com/cloudcrash/panel-proxy/internal/application/interface/limiter"
	"github.com/cloudcrash/panel-proxy/internal/application/interface/repository"
	"github.com/cloudcrash/panel-proxy/internal/application/model"
	"github.com/cloudcrash/panel-proxy/internal/application/rewrite"
)

// ProxyService プロキシのオーケストレーション層
// 流入制限 → キャッシュ参照 → アップストリーム取得 → URL書き換え → キャッシュ保存 の順で処理する
type ProxyService struct {
	upstreamGateway gateway.UpstreamGateway
	responseCache   repository.ResponseCache
	rateLimiter     limiter.RateLimiter
	rewriter        *rewrite.Rewriter
	target          *model.ProxyTarget
	cacheTTL        time.Duration
	prefetchEnabled bool
}

func NewProxyService(
	upstreamGateway gateway.UpstreamGateway,
	responseCache repository.ResponseCache,
	rateLimiter limiter.RateLimiter,
	rewriter *rewrite.Rewriter,
	target *model.ProxyTarget,
	cacheTTL time.Duration,
	prefetchEnabled bool,
) *ProxyService {
	return &ProxyService{
		upstreamGateway: upstreamGateway,
		responseCache:   responseCache,
		rateLimiter:     rateLimiter,
		rewriter:        rewriter,
		target:          target,
		cacheTTL:        cacheTTL,
		prefetchEnabled: prefetchEnabled,
	}
}

// FetchPage 設定されたアップストリームのベースページを取得する
// HTMLの場合は埋め込みリソースのURLを書き換えてから返す・キャッシュする
func (ps *ProxyService) FetchPage(ctx context.Context, clientKey string, headers map[string][]string) (*model.FetchResponse, error) {
	if !ps.rateLimiter.Admit(clientKey) {
		log.Printf("[ProxyService] 流入制限超過: client=%s", clientKey)
		return nil, model.ErrRateLimitExceeded
	}

	req := &model.FetchRequest{
		Method:  http.MethodGet,
		URL:     ps.target.BaseURL.String(),
		Headers: headers,
	}

	if resp, ok := ps.lookupCache(ctx, req); ok {
		return resp, nil
	}

	resp, err := ps.upstreamGateway.ProxyRequest(ctx, req)
	if err != nil {
		return nil, &model.UpstreamError{URL: req.URL, Err: err}
	}

	if resp.IsSuccess() && resp.IsHTML() {
		ps.rewriteBody(ctx, resp)
	}

	ps.storeCache(ctx, req, resp)
	return resp, nil
}

// FetchResource 書き換え済みリンクが指す絶対URLのリソースを取得する
// HTMLであっても書き換えは行わず、取得したバイト列をそのまま返す
// rawURLはネットワークアクセス前に検証し、不正な場合はErrInvalidTargetURLを返す
func (ps *ProxyService) FetchResource(ctx context.Context, clientKey string, rawURL string, headers map[string][]string) (*model.FetchResponse, error) {
	if err := validateTargetURL(rawURL); err != nil {
		return nil, err
	}

	if !ps.rateLimiter.Admit(clientKey) {
		log.Printf("[ProxyService] 流入制限超過: client=%s", clientKey)
		return nil, model.ErrRateLimitExceeded
	}

	req := &model.FetchRequest{
		Method:  http.MethodGet,
		URL:     rawURL,
		Headers: headers,
	}

	if resp, ok := ps.lookupCache(ctx, req); ok {
		return resp, nil
	}

	resp, err := ps.upstreamGateway.ProxyRequest(ctx, req)
	if err != nil {
		return nil, &model.UpstreamError{URL: rawURL, Err: err}
	}

	ps.storeCache(ctx, req, resp)
	return resp, nil
}

// lookupCache キャッシュを参照する
// キャッシュ内部のエラーはリクエストを失敗させず、ミスとして扱う
func (ps *ProxyService) lookupCache(ctx context.Context, req *model.FetchRequest) (*model.FetchResponse, bool) {
	cachedResp, found, err := ps.responseCache.GetResponse(ctx, req)
	if err != nil {
		log.Printf("[ProxyService] キャッシュ取得エラー（ミスとして続行）: %v", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	log.Printf("[ProxyService] キャッシュヒット: URL=%s", req.URL)
	return cachedResp, true
}

// storeCache 2xxかつ副作用のないメソッドのレスポンスのみキャッシュに保存する
// 保存エラーはログに残すだけでリクエストは成功のまま返す
func (ps *ProxyService) storeCache(ctx context.Context, req *model.FetchRequest, resp *model.FetchResponse) {
	if !req.IsCacheable() || !resp.IsSuccess() {
		return
	}
	if err := ps.responseCache.SetResponse(ctx, req, resp, ps.cacheTTL); err != nil {
		log.Printf("[ProxyService] キャッシュ保存エラー: %v (URL=%s)", err, req.URL)
	}
}

// rewriteBody HTMLボディのリソースURLを書き換え、アセットを先読みキューに予約する
// 書き換えに失敗した場合は元のボディのまま返す（リクエストは失敗させない）
func (ps *ProxyService) rewriteBody(ctx context.Context, resp *model.FetchResponse) {
	rewritten, assets, err := ps.rewriter.Rewrite(string(resp.Body), ps.target.BaseURL)
	if err != nil {
		log.Printf("[ProxyService] HTML書き換えエラー（元のボディで続行）: %v", err)
		return
	}
	resp.Body = []byte(rewritten)
	resp.ContentLength = int64(len(resp.Body))

	if !ps.prefetchEnabled {
		return
	}
	for _, asset := range assets {
		req := &model.FetchRequest{Method: http.MethodGet, URL: asset}
		if err := ps.responseCache.ReservePrefetch(ctx, req); err != nil {
			log.Printf("[ProxyService] プリフェッチ予約エラー: %v (URL=%s)", err, asset)
		}
	}
}

// validateTargetURL /fetch に渡されたURLの構文を検証する
func validateTargetURL(rawURL string) error {
	if rawURL == "" {
		return model.ErrInvalidTargetURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return model.ErrInvalidTargetURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return model.ErrInvalidTargetURL
	}
	if parsed.Host == "" {
		return model.ErrInvalidTargetURL
	}
	return nil
}
