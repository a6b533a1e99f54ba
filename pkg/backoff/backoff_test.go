package backoff

import (
	"testing"
	"time"
)

// TestExponentialJitterBounds 退避时长应落在 ±20% 抖动区间内
func TestExponentialJitterBounds(t *testing.T) {
	base := 50 * time.Millisecond
	max := time.Second

	for attempt := 1; attempt <= 6; attempt++ {
		expected := base << (attempt - 1)
		if expected > max {
			expected = max
		}
		lower := time.Duration(float64(expected) * 0.8)
		upper := time.Duration(float64(expected) * 1.2)

		for i := 0; i < 100; i++ {
			d := ExponentialJitter(base, max, attempt)
			if d < lower || d > upper {
				t.Fatalf("第 %d 次重试的退避 %v 超出区间 [%v, %v]", attempt, d, lower, upper)
			}
		}
	}
}

// TestExponentialJitterCapped 退避不得超过上限的抖动区间
func TestExponentialJitterCapped(t *testing.T) {
	max := 200 * time.Millisecond
	for i := 0; i < 100; i++ {
		d := ExponentialJitter(50*time.Millisecond, max, 20)
		if d > time.Duration(float64(max)*1.2) {
			t.Fatalf("退避 %v 超过上限抖动区间", d)
		}
	}
}

// TestExponentialJitterZeroAttempt 非正的重试次数按首次处理
func TestExponentialJitterZeroAttempt(t *testing.T) {
	d := ExponentialJitter(50*time.Millisecond, time.Second, 0)
	if d < 40*time.Millisecond || d > 60*time.Millisecond {
		t.Errorf("attempt=0 应按首次退避处理, 实际 %v", d)
	}
}
