package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cloudcrash/panel-proxy/internal/application/model"
	"github.com/cloudcrash/panel-proxy/internal/application/service"
	"github.com/cloudcrash/panel-proxy/internal/utils"
)

// レスポンスにそのまま書き戻さないヘッダー
// Content-Lengthは書き換え後のボディ長とずれるため自前で設定し直す
var skipResponseHeaders = map[string]bool{
	"Connection":        true,
	"Content-Length":    true,
	"Transfer-Encoding": true,
	"Content-Encoding":  true,
}

// 組み込みのビューア（pages/viewer.htmlが読めない場合のフォールバック）
const fallbackViewerHTML = `<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<title>Panel Proxy</title>
<style>html,body{margin:0;height:100%}iframe{border:0;width:100%;height:100%}</style>
</head>
<body>
<iframe src="/proxy" title="panel"></iframe>
</body>
</html>`

type proxyHandler struct {
	proxyService *service.ProxyService
	viewerPath   string
}

func NewProxyHandler(proxyService *service.ProxyService, viewerPath string) *proxyHandler {
	return &proxyHandler{
		proxyService: proxyService,
		viewerPath:   viewerPath,
	}
}

// Index GET / ビューアページ（/proxyをiframeで埋め込むシェル）を返す
func (ph *proxyHandler) Index(c *gin.Context) {
	htmlBytes, err := utils.LoadViewerPage(ph.viewerPath)
	if err != nil {
		log.Printf("[ProxyHandler] ビューアページの読み込みに失敗（組み込みページで代替）: %v", err)
		htmlBytes = []byte(fallbackViewerHTML)
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", htmlBytes)
}

// ProxyPage GET /proxy アップストリームのベースページを取得して返す
func (ph *proxyHandler) ProxyPage(c *gin.Context) {
	resp, err := ph.proxyService.FetchPage(c.Request.Context(), clientKey(c), c.Request.Header)
	if err != nil {
		ph.writeError(c, err)
		return
	}
	ph.writeResponse(c, resp)
}

// FetchResource GET /fetch?url=... 書き換え済みリンクが指すリソースを取得して返す
func (ph *proxyHandler) FetchResource(c *gin.Context) {
	targetURL := c.Query("url")
	if targetURL == "" {
		c.String(http.StatusBadRequest, "url parameter is required")
		return
	}

	resp, err := ph.proxyService.FetchResource(c.Request.Context(), clientKey(c), targetURL, c.Request.Header)
	if err != nil {
		ph.writeError(c, err)
		return
	}
	ph.writeResponse(c, resp)
}

// writeResponse アップストリームのレスポンスをそのまま書き戻す
// 非2xxのHTTPエラーもステータスとボディごと伝播する
func (ph *proxyHandler) writeResponse(c *gin.Context, resp *model.FetchResponse) {
	w := c.Writer

	for key, values := range resp.Headers {
		if skipResponseHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}

	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.GetBodyReader()); err != nil {
		log.Printf("[ProxyHandler] レスポンスボディの書き込みに失敗: %v", err)
	}
}

// writeError エラー分類をHTTPステータスに変換する
// アップストリーム障害の詳細はログにのみ残し、クライアントには汎用メッセージを返す
func (ph *proxyHandler) writeError(c *gin.Context, err error) {
	var upstreamErr *model.UpstreamError

	switch {
	case errors.Is(err, model.ErrRateLimitExceeded):
		c.String(http.StatusTooManyRequests, "too many requests")
	case errors.Is(err, model.ErrInvalidTargetURL):
		c.String(http.StatusBadRequest, "invalid url parameter")
	case errors.As(err, &upstreamErr):
		log.Printf("[ProxyHandler] アップストリーム障害: %v", upstreamErr)
		c.String(http.StatusBadGateway, "failed to reach upstream")
	default:
		log.Printf("[ProxyHandler] 想定外のエラー: %v", err)
		c.String(http.StatusInternalServerError, "internal error")
	}
}

// clientKey 流入制限に使うクライアント識別子を決める
// 識別できない場合も空文字は渡さず "unknown" に倒す
func clientKey(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
