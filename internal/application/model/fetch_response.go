package model

import (
	"bytes"
	"io"
	"strings"
)

// FetchResponse アップストリームから受け取ったレスポンス
type FetchResponse struct {
	// StatusCode HTTPステータスコード
	StatusCode int `json:"status_code"`

	// Headers HTTPヘッダー
	Headers map[string][]string `json:"headers"`

	// Body レスポンスボディ
	Body []byte `json:"body"`

	// ContentType Content-Typeヘッダーの値
	ContentType string `json:"content_type,omitempty"`

	// ContentLength Content-Lengthヘッダーの値
	ContentLength int64 `json:"content_length,omitempty"`
}

// IsSuccess 2xxレスポンスかどうかを判定する
// キャッシュ可否の判定に使用する（2xx以外は絶対にキャッシュしない）
func (fr *FetchResponse) IsSuccess() bool {
	return fr.StatusCode >= 200 && fr.StatusCode < 300
}

// IsHTML Content-TypeがHTMLかどうかを判定する
// HTMLの場合のみURL書き換えの対象になる
func (fr *FetchResponse) IsHTML() bool {
	mainType := strings.TrimSpace(strings.Split(fr.ContentType, ";")[0])
	return strings.EqualFold(mainType, "text/html") ||
		strings.EqualFold(mainType, "application/xhtml+xml")
}

// GetBodyReader ボディのReaderを取得する
func (fr *FetchResponse) GetBodyReader() io.Reader {
	return bytes.NewReader(fr.Body)
}
