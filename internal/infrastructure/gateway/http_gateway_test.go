// http_gateway_test.go - HTTPゲートウェイのユニットテスト
package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloudcrash/panel-proxy/internal/application/model"
)

func newTestTarget(t *testing.T, baseURL string, defaultHeaders map[string]string, forwardCookies bool) *model.ProxyTarget {
	t.Helper()
	target, err := model.NewProxyTarget(baseURL, defaultHeaders, 5*time.Second, forwardCookies)
	if err != nil {
		t.Fatalf("Failed to create proxy target: %v", err)
	}
	return target
}

func TestProxyRequestForwardsHeaders(t *testing.T) {
	var gotHeader http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	target := newTestTarget(t, ts.URL, nil, false)
	gw := NewHTTPGateway(target)

	req := &model.FetchRequest{
		Method: http.MethodGet,
		URL:    ts.URL + "/page",
		Headers: map[string][]string{
			"User-Agent":      {"test-browser"},
			"Accept-Language": {"ja"},
		},
	}
	resp, err := gw.ProxyRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("ProxyRequest failed: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != "ok" {
		t.Errorf("Expected body 'ok', got '%s'", string(resp.Body))
	}
	if resp.ContentType != "text/plain" {
		t.Errorf("Expected content-type 'text/plain', got '%s'", resp.ContentType)
	}
	if gotHeader.Get("User-Agent") != "test-browser" {
		t.Errorf("Expected User-Agent to be forwarded, got '%s'", gotHeader.Get("User-Agent"))
	}
	if gotHeader.Get("Accept-Language") != "ja" {
		t.Errorf("Expected Accept-Language to be forwarded, got '%s'", gotHeader.Get("Accept-Language"))
	}
}

func TestProxyRequestDoesNotForwardClientHost(t *testing.T) {
	var gotHost string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost = r.Host
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	target := newTestTarget(t, ts.URL, nil, false)
	gw := NewHTTPGateway(target)

	// クライアントが送ってきたHostはアップストリームに伝播しない
	req := &model.FetchRequest{
		Method: http.MethodGet,
		URL:    ts.URL,
		Headers: map[string][]string{
			"Host": {"proxy.example.com"},
		},
	}
	if _, err := gw.ProxyRequest(context.Background(), req); err != nil {
		t.Fatalf("ProxyRequest failed: %v", err)
	}

	if gotHost == "proxy.example.com" {
		t.Error("Expected client Host header not to be forwarded")
	}
}

func TestProxyRequestStripsHopByHopAndCookie(t *testing.T) {
	var gotHeader http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	target := newTestTarget(t, ts.URL, nil, false)
	gw := NewHTTPGateway(target)

	req := &model.FetchRequest{
		Method: http.MethodGet,
		URL:    ts.URL,
		Headers: map[string][]string{
			"Proxy-Connection": {"keep-alive"},
			"Cookie":           {"session=secret"},
			"Accept-Encoding":  {"br"},
		},
	}
	if _, err := gw.ProxyRequest(context.Background(), req); err != nil {
		t.Fatalf("ProxyRequest failed: %v", err)
	}

	if gotHeader.Get("Proxy-Connection") != "" {
		t.Error("Expected hop-by-hop header not to be forwarded")
	}
	// ForwardCookies=falseならCookieは転送しない
	if gotHeader.Get("Cookie") != "" {
		t.Error("Expected Cookie not to be forwarded by default")
	}
	// Accept-Encodingはtransportに任せる
	if gotHeader.Get("Accept-Encoding") == "br" {
		t.Error("Expected client Accept-Encoding not to be forwarded")
	}
}

func TestProxyRequestForwardCookiesOptIn(t *testing.T) {
	var gotCookie string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	target := newTestTarget(t, ts.URL, nil, true)
	gw := NewHTTPGateway(target)

	req := &model.FetchRequest{
		Method: http.MethodGet,
		URL:    ts.URL,
		Headers: map[string][]string{
			"Cookie": {"session=secret"},
		},
	}
	if _, err := gw.ProxyRequest(context.Background(), req); err != nil {
		t.Fatalf("ProxyRequest failed: %v", err)
	}

	if gotCookie != "session=secret" {
		t.Errorf("Expected Cookie to be forwarded when enabled, got '%s'", gotCookie)
	}
}

func TestProxyRequestDefaultHeadersOverride(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	target := newTestTarget(t, ts.URL, map[string]string{"User-Agent": "panel-proxy/1.0"}, false)
	gw := NewHTTPGateway(target)

	req := &model.FetchRequest{
		Method: http.MethodGet,
		URL:    ts.URL,
		Headers: map[string][]string{
			"User-Agent": {"client-browser"},
		},
	}
	if _, err := gw.ProxyRequest(context.Background(), req); err != nil {
		t.Fatalf("ProxyRequest failed: %v", err)
	}

	// DefaultHeadersは転送ヘッダーを上書きする
	if gotUA != "panel-proxy/1.0" {
		t.Errorf("Expected default User-Agent to win, got '%s'", gotUA)
	}
}

func TestProxyRequestNon2xxPassthrough(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not found"))
	}))
	defer ts.Close()

	target := newTestTarget(t, ts.URL, nil, false)
	gw := NewHTTPGateway(target)

	req := &model.FetchRequest{Method: http.MethodGet, URL: ts.URL}
	resp, err := gw.ProxyRequest(context.Background(), req)
	// 非2xxはエラーではなくレスポンスとして返す
	if err != nil {
		t.Fatalf("Expected no error for non-2xx response, got %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
	if string(resp.Body) != "not found" {
		t.Errorf("Expected error body to be propagated, got '%s'", string(resp.Body))
	}
}

func TestProxyRequestConnectionError(t *testing.T) {
	target := newTestTarget(t, "http://127.0.0.1:1", nil, false)
	gw := NewHTTPGateway(target)

	req := &model.FetchRequest{Method: http.MethodGet, URL: "http://127.0.0.1:1/"}
	_, err := gw.ProxyRequest(context.Background(), req)
	if err == nil {
		t.Error("Expected connection error")
	}
}

func TestGenerateID(t *testing.T) {
	id1 := generateID()
	id2 := generateID()

	if id1 == id2 {
		t.Error("Generated IDs should be unique")
	}
	if len(id1) == 0 {
		t.Error("Generated ID should not be empty")
	}
}
