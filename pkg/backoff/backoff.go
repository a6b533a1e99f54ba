package backoff

import (
	"math"
	"math/rand"
	"time"
)

// ExponentialJitter 指数退避加随机抖动
//
// 第 attempt 次重试返回 base*2^(attempt-1) 上限 max，
// 并叠加 ±20% 的抖动，避免并发认领者同步唤醒再次撞锁。
func ExponentialJitter(base, max time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	mul := math.Pow(2, float64(attempt-1))
	d := time.Duration(float64(base) * mul)
	if d > max {
		d = max
	}

	jitter := time.Duration(float64(d) * 0.2)
	if jitter <= 0 {
		return d
	}
	return d - jitter + time.Duration(rand.Int63n(int64(2*jitter)))
}
