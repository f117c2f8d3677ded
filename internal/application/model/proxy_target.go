package model

import (
	"fmt"
	"net/url"
	"time"
)

// ProxyTarget プロキシ対象のアップストリーム設定
// 起動時に一度だけ構築され、以降は読み取り専用
type ProxyTarget struct {
	// BaseURL プロキシ対象のベースURL
	BaseURL *url.URL

	// DefaultHeaders アップストリームへのリクエストに常に付与するヘッダー
	DefaultHeaders map[string]string

	// Timeout アップストリームへのリクエストのタイムアウト
	Timeout time.Duration

	// ForwardCookies Cookieヘッダーを転送するかどうか
	// セッション漏洩のリスクがあるためデフォルトは false
	ForwardCookies bool
}

// NewProxyTarget ベースURLを検証してProxyTargetを構築する
func NewProxyTarget(rawBaseURL string, defaultHeaders map[string]string, timeout time.Duration, forwardCookies bool) (*ProxyTarget, error) {
	base, err := url.Parse(rawBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream base URL %q: %w", rawBaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("upstream base URL %q must use http or https", rawBaseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("upstream base URL %q has no host", rawBaseURL)
	}

	return &ProxyTarget{
		BaseURL:        base,
		DefaultHeaders: defaultHeaders,
		Timeout:        timeout,
		ForwardCookies: forwardCookies,
	}, nil
}
