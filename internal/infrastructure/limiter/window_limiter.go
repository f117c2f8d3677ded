package limiter

import (
	"sync"
	"time"
)

// WindowLimiter スライディングウィンドウ方式のクライアント別流入制限
// ウィンドウは呼び出しのたびに現在時刻から再計算される（固定区間ではない）
// 判定と記録は同一ロックの中で行うため、同一キーへの並行呼び出しでも
// limitを超えて許可されることはない
type WindowLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[string][]time.Time

	// now テストから時刻を注入するためのフック
	now func() time.Time
}

func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		limit:   limit,
		window:  window,
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Admit clientKeyのリクエストを許可するかどうかを判定する
// まずウィンドウ外の受付時刻を破棄し、残数がlimit未満なら許可して現在時刻を記録する
// 拒否した場合は何も記録しない
func (wl *WindowLimiter) Admit(clientKey string) bool {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	now := wl.now()
	cutoff := now.Add(-wl.window)

	kept := wl.windows[clientKey][:0]
	for _, ts := range wl.windows[clientKey] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= wl.limit {
		wl.windows[clientKey] = kept
		return false
	}

	wl.windows[clientKey] = append(kept, now)
	return true
}

// Prune 受付記録が空になったキーを破棄する
// 呼ばなくても正しさには影響しないが、キーが増え続けるのを防ぐ
func (wl *WindowLimiter) Prune() {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	cutoff := wl.now().Add(-wl.window)
	for key, timestamps := range wl.windows {
		kept := timestamps[:0]
		for _, ts := range timestamps {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		if len(kept) == 0 {
			delete(wl.windows, key)
		} else {
			wl.windows[key] = kept
		}
	}
}
