package model

import (
	"errors"
	"fmt"
)

// エラー分類
// アップストリームのHTTPエラー（非2xx）はエラーではなくFetchResponseとして伝播する
var (
	// ErrRateLimitExceeded クライアントが流入制限を超過した（アップストリームへは送信しない）
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInvalidTargetURL /fetch の url パラメータが不正（アップストリームへは送信しない）
	ErrInvalidTargetURL = errors.New("invalid target url")
)

// UpstreamError アップストリームとの通信に失敗した（タイムアウト・接続拒否など）
// 詳細はサーバー側でログに残し、クライアントへは汎用メッセージのみ返す
type UpstreamError struct {
	URL string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream fetch failed for %s: %v", e.URL, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
