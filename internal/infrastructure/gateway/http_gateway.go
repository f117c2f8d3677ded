package gateway

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/cloudcrash/panel-proxy/internal/application/model"
)

// generateID ログ突き合わせ用の短いリクエストIDを生成する
func generateID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// hop-by-hopヘッダーは転送しない (RFC 9110)
var hopByHopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Proxy-Connection":    true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// HTTPGateway アップストリームへHTTPリクエストを転送するゲートウェイ
type HTTPGateway struct {
	client *http.Client
	target *model.ProxyTarget
}

func NewHTTPGateway(target *model.ProxyTarget) *HTTPGateway {
	return &HTTPGateway{
		client: &http.Client{
			Timeout: target.Timeout,
		},
		target: target,
	}
}

// ProxyRequest req.URLに直接HTTPリクエストを送る
// タイムアウトや接続エラーはそのまま返し、分類は呼び出し元に任せる
func (g *HTTPGateway) ProxyRequest(ctx context.Context, req *model.FetchRequest) (*model.FetchResponse, error) {
	reqID := generateID()

	// HTTPリクエストを作成（contextを設定）
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	g.setForwardHeaders(httpReq, req.Headers)

	log.Printf("[HTTPGateway] 転送開始 (id=%s): %s %s", reqID, req.Method, req.URL)

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to forward HTTP request: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	log.Printf("[HTTPGateway] 転送完了 (id=%s): status=%d bytes=%d", reqID, httpResp.StatusCode, len(bodyBytes))

	return &model.FetchResponse{
		StatusCode:    httpResp.StatusCode,
		Headers:       httpResp.Header,
		Body:          bodyBytes,
		ContentType:   httpResp.Header.Get("Content-Type"),
		ContentLength: int64(len(bodyBytes)),
	}, nil
}

// setForwardHeaders 転送ポリシーに従ってヘッダーを設定する
// - Hostは転送しない（転送先のURLから自動的に決まる）
// - hop-by-hopヘッダーは転送しない
// - Cookieは設定で明示的に許可した場合のみ転送する
// - Accept-Encodingは転送しない（transportの透過gzipに任せ、HTML書き換えを可能にする）
// - DefaultHeadersは最後に適用し、同名の転送ヘッダーを上書きする
func (g *HTTPGateway) setForwardHeaders(httpReq *http.Request, headers map[string][]string) {
	for name, values := range headers {
		canonical := http.CanonicalHeaderKey(name)
		if canonical == "Host" || hopByHopHeaders[canonical] {
			continue
		}
		if canonical == "Accept-Encoding" {
			continue
		}
		if canonical == "Cookie" && !g.target.ForwardCookies {
			continue
		}
		for _, value := range values {
			httpReq.Header.Add(canonical, value)
		}
	}

	for name, value := range g.target.DefaultHeaders {
		httpReq.Header.Set(name, value)
	}
}
