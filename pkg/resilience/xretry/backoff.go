package xretry

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	"time"
)

// BackoffPolicy 退避策略接口
// 计算重试间隔时间。
type BackoffPolicy interface {
	// NextDelay 返回下次重试的延迟时间
	// attempt: 当前尝试次数（从 1 开始）
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff 指数退避策略
// delay = min(baseDelay * 2^(attempt-1) * (1 + rand(-1,1) * jitter), maxDelay)
type ExponentialBackoff struct {
	baseDelay time.Duration
	maxDelay  time.Duration
	jitter    float64
}

// ExponentialBackoffOption 指数退避配置选项
type ExponentialBackoffOption func(*ExponentialBackoff)

// WithBackoffBaseDelay 设置基础延迟。
// d <= 0 时静默忽略（保持默认值）。
func WithBackoffBaseDelay(d time.Duration) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if d > 0 {
			b.baseDelay = d
		}
	}
}

// WithBackoffMaxDelay 设置最大延迟上限
func WithBackoffMaxDelay(d time.Duration) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if d > 0 {
			b.maxDelay = d
		}
	}
}

// WithBackoffJitter 设置抖动因子（0-1 之间，越界截断）
func WithBackoffJitter(j float64) ExponentialBackoffOption {
	return func(b *ExponentialBackoff) {
		if j < 0 {
			j = 0
		} else if j > 1 {
			j = 1
		}
		b.jitter = j
	}
}

// NewExponentialBackoff 创建指数退避策略
// 默认值：
//   - baseDelay: 100ms
//   - maxDelay: 30s
//   - jitter: 0.1 (10%)
func NewExponentialBackoff(opts ...ExponentialBackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		baseDelay: 100 * time.Millisecond,
		maxDelay:  30 * time.Second,
		jitter:    0.1,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.maxDelay < b.baseDelay {
		b.maxDelay = b.baseDelay
	}
	return b
}

func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(b.baseDelay) * math.Pow(2, float64(attempt-1))

	if b.jitter > 0 {
		jitterFactor := 1.0 + (randomFloat64()*2-1)*b.jitter
		delay *= jitterFactor
	}

	// 设计决策: NaN 安全的延迟限制。attempt 极大时 math.Pow 溢出为 +Inf，
	// 与 0 相乘会产生 NaN，而 NaN 的所有比较均为 false，会绕过 maxDelay。
	// NaN/负数统一返回 maxDelay（语义为退避已达上限）。
	if math.IsNaN(delay) || delay < 0 {
		return b.maxDelay
	}
	if delay >= float64(b.maxDelay) {
		return b.maxDelay
	}

	return time.Duration(delay)
}

// FixedBackoff 固定延迟退避策略
type FixedBackoff struct {
	delay time.Duration
}

// NewFixedBackoff 创建固定延迟退避策略
func NewFixedBackoff(delay time.Duration) *FixedBackoff {
	if delay < 0 {
		delay = 0
	}
	return &FixedBackoff{delay: delay}
}

func (b *FixedBackoff) NextDelay(_ int) time.Duration {
	return b.delay
}

// NoBackoff 无延迟退避策略，主要用于测试
type NoBackoff struct{}

// NewNoBackoff 创建无延迟退避策略
func NewNoBackoff() *NoBackoff {
	return &NoBackoff{}
}

func (b *NoBackoff) NextDelay(_ int) time.Duration {
	return 0
}

// floatScale 将 53 位随机整数映射到 [0,1) 区间
const floatScale = 1.0 / (1 << 53)

// randomFloat64 返回 [0,1) 区间的安全随机数
func randomFloat64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand 失败时返回 0，意味着无抖动（安全默认值）
		return 0
	}
	return float64(binary.LittleEndian.Uint64(buf[:])>>11) * floatScale
}

// 编译时接口检查
var (
	_ BackoffPolicy = (*ExponentialBackoff)(nil)
	_ BackoffPolicy = (*FixedBackoff)(nil)
	_ BackoffPolicy = (*NoBackoff)(nil)
)
