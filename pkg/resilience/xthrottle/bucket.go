package xthrottle

import (
	"math"
	"time"
)

// tokenBucket 令牌桶
//
// 惰性补充：每次访问时按 floor(elapsed × rate) 计算新增令牌，
// 仅当整数令牌累积时才推进时间戳，避免丢失不足一个令牌的时间。
// 不变量：0 <= tokens <= capacity。
// 调用方（Controller）负责加锁，本类型自身不做同步。
type tokenBucket struct {
	capacity   int
	rate       float64 // 每秒补充的令牌数
	tokens     int
	lastRefill time.Time
}

// newTokenBucket 创建满桶状态的令牌桶
func newTokenBucket(capacity int, rate float64, now time.Time) tokenBucket {
	return tokenBucket{
		capacity:   capacity,
		rate:       rate,
		tokens:     capacity,
		lastRefill: now,
	}
}

// refill 按已流逝时间补充令牌
func (b *tokenBucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed <= 0 {
		return
	}

	toAdd := int(math.Floor(elapsed.Seconds() * b.rate))
	if toAdd <= 0 {
		return
	}

	b.tokens = min(b.capacity, b.tokens+toAdd)
	b.lastRefill = now
}

// take 消费一个令牌，无令牌可用时返回 false
func (b *tokenBucket) take() bool {
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// nextAccrual 返回距下一个令牌累积还需等待的时间
// 已有令牌可用时返回 0。
func (b *tokenBucket) nextAccrual(now time.Time) time.Duration {
	if b.tokens > 0 {
		return 0
	}

	// 一个令牌需要 1/rate 秒，扣除自上次补充以来已流逝的部分
	interval := time.Duration(float64(time.Second) / b.rate)
	elapsed := now.Sub(b.lastRefill)
	remaining := interval - elapsed
	if remaining < time.Millisecond {
		// 计时器精度下限，避免零延迟忙转
		return time.Millisecond
	}
	return remaining
}

// reconfigure 替换速率与容量，现有令牌数截断到新容量
func (b *tokenBucket) reconfigure(capacity int, rate float64) {
	b.capacity = capacity
	b.rate = rate
	if b.tokens > capacity {
		b.tokens = capacity
	}
}
