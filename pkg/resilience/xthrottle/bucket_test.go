package xthrottle

import (
	"testing"
	"time"
)

func TestTokenBucket_StartsFull(t *testing.T) {
	now := time.Now()
	b := newTokenBucket(5, 10, now)

	if b.tokens != 5 {
		t.Errorf("expected full bucket, got %d", b.tokens)
	}
}

func TestTokenBucket_TakeUntilEmpty(t *testing.T) {
	now := time.Now()
	b := newTokenBucket(3, 1, now)

	for i := 0; i < 3; i++ {
		if !b.take() {
			t.Fatalf("take %d should succeed", i)
		}
	}
	if b.take() {
		t.Error("take on empty bucket should fail")
	}
	if b.tokens != 0 {
		t.Errorf("tokens = %d, want 0", b.tokens)
	}
}

func TestTokenBucket_LazyRefill(t *testing.T) {
	now := time.Now()
	b := newTokenBucket(10, 2, now) // 每 500ms 一个令牌
	b.tokens = 0

	// 不足一个令牌的时间：不补充，不推进时间戳
	b.refill(now.Add(300 * time.Millisecond))
	if b.tokens != 0 {
		t.Errorf("tokens = %d, want 0", b.tokens)
	}
	if !b.lastRefill.Equal(now) {
		t.Error("lastRefill must not advance when no whole token accrued")
	}

	// 1.25 个令牌的时间：补充 1 个（向下取整），时间戳推进
	b.refill(now.Add(625 * time.Millisecond))
	if b.tokens != 1 {
		t.Errorf("tokens = %d, want 1", b.tokens)
	}

	// 长时间空闲：补充到容量封顶
	b.refill(now.Add(time.Hour))
	if b.tokens != 10 {
		t.Errorf("tokens = %d, want 10 (capped)", b.tokens)
	}
}

func TestTokenBucket_RefillNeverExceedsCapacity(t *testing.T) {
	now := time.Now()
	b := newTokenBucket(2, 100, now)

	b.refill(now.Add(time.Minute))
	if b.tokens < 0 || b.tokens > b.capacity {
		t.Errorf("invariant violated: tokens = %d, capacity = %d", b.tokens, b.capacity)
	}
}

func TestTokenBucket_NextAccrual(t *testing.T) {
	now := time.Now()
	b := newTokenBucket(1, 2, now) // 每 500ms 一个令牌

	if d := b.nextAccrual(now); d != 0 {
		t.Errorf("bucket with tokens should report 0, got %v", d)
	}

	b.tokens = 0
	d := b.nextAccrual(now.Add(100 * time.Millisecond))
	if d != 400*time.Millisecond {
		t.Errorf("nextAccrual = %v, want 400ms", d)
	}

	// 已超过累积时刻：返回精度下限而非 0 或负数
	d = b.nextAccrual(now.Add(time.Second))
	if d != time.Millisecond {
		t.Errorf("nextAccrual = %v, want 1ms floor", d)
	}
}

func TestTokenBucket_Reconfigure(t *testing.T) {
	now := time.Now()
	b := newTokenBucket(10, 1, now)

	b.reconfigure(3, 5)
	if b.capacity != 3 || b.rate != 5 {
		t.Errorf("reconfigure not applied: capacity=%d rate=%v", b.capacity, b.rate)
	}
	if b.tokens != 3 {
		t.Errorf("tokens should truncate to new capacity, got %d", b.tokens)
	}
}
