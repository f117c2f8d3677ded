// cache_repository_test.go - レスポンスキャッシュリポジトリのユニットテスト
package repository

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/cloudcrash/panel-proxy/internal/application/model"
	"github.com/cloudcrash/panel-proxy/internal/infrastructure/repository/plugins"
)

func newTestRepository() *CacheRepository {
	return NewCacheRepository(plugins.NewMemoryClient(16), "proxy:cache:")
}

func TestGetSetResponseRoundTrip(t *testing.T) {
	repo := newTestRepository()
	ctx := context.Background()

	req := &model.FetchRequest{
		Method: http.MethodGet,
		URL:    "https://upstream.example.com/panel/",
	}
	resp := &model.FetchResponse{
		StatusCode:    200,
		Headers:       map[string][]string{"Content-Type": {"text/html"}},
		Body:          []byte("<html></html>"),
		ContentType:   "text/html",
		ContentLength: 13,
	}

	if err := repo.SetResponse(ctx, req, resp, time.Minute); err != nil {
		t.Fatalf("SetResponse failed: %v", err)
	}

	cached, found, err := repo.GetResponse(ctx, req)
	if err != nil {
		t.Fatalf("GetResponse failed: %v", err)
	}
	if !found {
		t.Fatal("Expected cache hit")
	}
	if cached.StatusCode != 200 {
		t.Errorf("Expected status 200, got %d", cached.StatusCode)
	}
	if string(cached.Body) != "<html></html>" {
		t.Errorf("Body mismatch after round-trip: %s", string(cached.Body))
	}
	if cached.ContentType != "text/html" {
		t.Errorf("Expected content-type 'text/html', got '%s'", cached.ContentType)
	}
}

func TestGetResponseMiss(t *testing.T) {
	repo := newTestRepository()

	req := &model.FetchRequest{Method: http.MethodGet, URL: "https://upstream.example.com/missing"}
	cached, found, err := repo.GetResponse(context.Background(), req)
	if err != nil {
		t.Fatalf("GetResponse failed: %v", err)
	}
	if found || cached != nil {
		t.Errorf("Expected miss, got found=%v resp=%v", found, cached)
	}
}

func TestGetResponseCorruptPayload(t *testing.T) {
	client := plugins.NewMemoryClient(16)
	repo := NewCacheRepository(client, "proxy:cache:")
	ctx := context.Background()

	req := &model.FetchRequest{Method: http.MethodGet, URL: "https://upstream.example.com/panel/"}

	// 壊れたペイロードを直接ストアに入れる
	if err := client.SetCache(ctx, "proxy:cache:"+req.CacheKey(), []byte("not json"), time.Minute); err != nil {
		t.Fatalf("SetCache failed: %v", err)
	}

	// デコード失敗はpanicせずエラーとして返す（呼び出し元がミスとして扱う）
	_, found, err := repo.GetResponse(ctx, req)
	if err == nil {
		t.Error("Expected decode error for corrupt payload")
	}
	if found {
		t.Error("Expected found=false for corrupt payload")
	}
}

func TestCacheKeyIgnoresFragmentAndHeaders(t *testing.T) {
	repo := newTestRepository()
	ctx := context.Background()

	req := &model.FetchRequest{
		Method:  http.MethodGet,
		URL:     "https://upstream.example.com/panel/",
		Headers: map[string][]string{"User-Agent": {"browser-a"}},
	}
	resp := &model.FetchResponse{StatusCode: 200, Body: []byte("ok")}
	if err := repo.SetResponse(ctx, req, resp, time.Minute); err != nil {
		t.Fatalf("SetResponse failed: %v", err)
	}

	// フラグメントとヘッダーが違っても同じキャッシュエントリにヒットする
	other := &model.FetchRequest{
		Method:  http.MethodGet,
		URL:     "https://upstream.example.com/panel/#section",
		Headers: map[string][]string{"User-Agent": {"browser-b"}},
	}
	_, found, err := repo.GetResponse(ctx, other)
	if err != nil {
		t.Fatalf("GetResponse failed: %v", err)
	}
	if !found {
		t.Error("Expected hit for same URL with different fragment and headers")
	}
}

func TestPrefetchReserveAndPop(t *testing.T) {
	repo := newTestRepository()
	ctx := context.Background()

	req := &model.FetchRequest{Method: http.MethodGet, URL: "https://upstream.example.com/assets/app.js"}
	if err := repo.ReservePrefetch(ctx, req); err != nil {
		t.Fatalf("ReservePrefetch failed: %v", err)
	}

	popped, err := repo.BLPopPrefetchRequest(ctx, time.Second)
	if err != nil {
		t.Fatalf("BLPopPrefetchRequest failed: %v", err)
	}
	if popped == nil {
		t.Fatal("Expected a prefetch request")
	}
	if popped.URL != req.URL || popped.Method != http.MethodGet {
		t.Errorf("Prefetch request mismatch: %+v", popped)
	}

	// 空のキューはタイムアウトで (nil, nil)
	popped, err = repo.BLPopPrefetchRequest(ctx, 20*time.Millisecond)
	if err != nil || popped != nil {
		t.Errorf("Expected (nil, nil) on timeout, got req=%v err=%v", popped, err)
	}
}
