package limiter

// RateLimiter クライアントごとの流入制限を判定するインターフェース
type RateLimiter interface {
	// Admit clientKeyのリクエストを許可するかどうかを判定する
	// 許可した場合のみ受付時刻を記録する
	// clientKey: クライアント識別子（通常は送信元IP、不明な場合は "unknown"）
	Admit(clientKey string) bool
}
