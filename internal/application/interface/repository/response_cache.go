package repository

import (
	"context"
	"time"

	"github.com/cloudcrash/panel-proxy/internal/application/model"
)

// ResponseCache レスポンスキャッシュとプリフェッチキューを操作するためのリポジトリインターフェース
type ResponseCache interface {
	// GetResponse キャッシュからレスポンスを取得する
	// ctx: コンテキスト（リクエストのキャンセレーションやタイムアウト制御に使用）
	// req: キャッシュキーの導出元となるリクエスト
	// 戻り値: キャッシュされたレスポンスと、キャッシュが存在するかどうか
	// 期限切れのエントリはミスとして扱う
	GetResponse(ctx context.Context, req *model.FetchRequest) (*model.FetchResponse, bool, error)

	// SetResponse キャッシュにレスポンスを保存する
	// 既存エントリは無条件に置き換える
	// req: キャッシュキーの導出元となるリクエスト
	// response: 保存するレスポンスデータ
	// ttl: キャッシュの有効期限
	SetResponse(ctx context.Context, req *model.FetchRequest, response *model.FetchResponse, ttl time.Duration) error

	// DeleteExpiredCaches 期限切れのキャッシュを削除する
	DeleteExpiredCaches(ctx context.Context) error

	// DeleteAllCaches すべてのキャッシュを削除する（管理用エンドポイントから使用）
	DeleteAllCaches(ctx context.Context) error

	// ReservePrefetch 非同期処理（Worker Pool）で先読みするためにリクエストを予約する
	// キューに追加して、PrefetchProcessorが非同期で処理する
	// req: 予約するリクエスト
	ReservePrefetch(ctx context.Context, req *model.FetchRequest) error

	// BLPopPrefetchRequest 予約されたリクエストをブロッキングで取得する
	// timeout: タイムアウト時間
	// 戻り値: 取得したリクエスト（タイムアウトの場合はnil）
	BLPopPrefetchRequest(ctx context.Context, timeout time.Duration) (*model.FetchRequest, error)
}
