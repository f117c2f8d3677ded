package gateway_interfaces

import (
	"context"

	"github.com/cloudcrash/panel-proxy/internal/application/model"
)

// UpstreamGateway HTTPリクエストをアップストリームへ転送するためのゲートウェイインターフェース
type UpstreamGateway interface {
	// ProxyRequest HTTPリクエストをアップストリームに送信する
	// タイムアウト・接続エラーはそのまま返し、分類はService層が行う
	ProxyRequest(ctx context.Context, req *model.FetchRequest) (*model.FetchResponse, error)
}
