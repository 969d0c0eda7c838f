package xbreaker

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/omeyang/flowkit/pkg/resilience/xretry"
)

// gobreaker 类型别名，调用方无需直接导入 gobreaker 包
type (
	// State 熔断器状态
	State = gobreaker.State

	// Counts 统计计数，用于熔断判定
	Counts = gobreaker.Counts
)

// 熔断器状态常量
const (
	// StateClosed 关闭状态（正常）
	StateClosed = gobreaker.StateClosed

	// StateHalfOpen 半开状态（探测）
	StateHalfOpen = gobreaker.StateHalfOpen

	// StateOpen 打开状态（熔断）
	StateOpen = gobreaker.StateOpen
)

// TripPolicy 熔断判定策略接口
//
// 当 ReadyToTrip 返回 true 时，熔断器从 Closed 转换为 Open。
type TripPolicy interface {
	// ReadyToTrip 判断是否应该触发熔断
	// counts 包含当前统计窗口内的请求统计信息
	ReadyToTrip(counts Counts) bool
}

// Breaker 熔断器执行器
//
// 封装 gobreaker 的熔断逻辑，失败判定与 xretry 的错误分类联动：
// 取消类错误不计入失败统计。
type Breaker struct {
	name          string
	tripPolicy    TripPolicy
	timeout       time.Duration
	interval      time.Duration
	maxRequests   uint32
	logger        *slog.Logger
	onStateChange func(name string, from, to State)

	cb *gobreaker.CircuitBreaker[any]
}

// BreakerOption 熔断器配置选项
type BreakerOption func(*Breaker)

// WithTripPolicy 设置熔断判定策略
// 默认策略：连续失败 5 次触发熔断。
func WithTripPolicy(p TripPolicy) BreakerOption {
	return func(b *Breaker) {
		if p != nil {
			b.tripPolicy = p
		}
	}
}

// WithTimeout 设置从 Open 恢复到 HalfOpen 的超时时间，默认 60 秒
func WithTimeout(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithInterval 设置 Closed 状态下统计窗口的清零周期
// 默认 0（持续累积，不清零）。
func WithInterval(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d > 0 {
			b.interval = d
		}
	}
}

// WithMaxRequests 设置 HalfOpen 状态下允许通过的最大请求数，默认 1
func WithMaxRequests(n uint32) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.maxRequests = n
		}
	}
}

// WithBreakerLogger 设置日志记录器，状态变化时输出 Warn 日志
func WithBreakerLogger(logger *slog.Logger) BreakerOption {
	return func(b *Breaker) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithOnStateChange 设置状态变化回调，可用于监控告警
func WithOnStateChange(f func(name string, from, to State)) BreakerOption {
	return func(b *Breaker) {
		b.onStateChange = f
	}
}

// NewBreaker 创建熔断器执行器
//
// 默认配置：连续失败 5 次触发熔断，Open 超时 60 秒，
// HalfOpen 最大请求数 1。
func NewBreaker(name string, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		name:        name,
		tripPolicy:  NewConsecutiveFailures(5),
		timeout:     60 * time.Second,
		maxRequests: 1,
	}
	for _, opt := range opts {
		opt(b)
	}

	b.cb = gobreaker.NewCircuitBreaker[any](b.buildSettings())
	return b
}

// buildSettings 构建 gobreaker 配置
func (b *Breaker) buildSettings() gobreaker.Settings {
	return gobreaker.Settings{
		Name:        b.name,
		MaxRequests: b.maxRequests,
		Interval:    b.interval,
		Timeout:     b.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return b.tripPolicy.ReadyToTrip(counts)
		},
		// 设计决策: 取消类错误视作"成功"上报给 gobreaker。
		// gobreaker 的成败统计是二元的，而取消既不该触发熔断、
		// 也不该在半开探测时被当成下游故障，按成功上报是两害相权
		// 后对探测影响最小的选择。
		IsSuccessful: func(err error) bool {
			return err == nil || xretry.Classify(err) == xretry.ClassCancelled
		},
		OnStateChange: b.handleStateChange,
	}
}

// handleStateChange 状态变化处理：先日志，后回调
func (b *Breaker) handleStateChange(name string, from, to gobreaker.State) {
	if b.logger != nil {
		b.logger.Warn("breaker state changed",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	if b.onStateChange != nil {
		b.onStateChange(name, from, to)
	}
}

// Do 执行受熔断器保护的操作
//
// 熔断器处于 Open 状态时操作不会执行，返回包装后的 ErrOpenState；
// HalfOpen 状态下请求超限返回包装后的 ErrTooManyRequests。
// 两者均为 BreakerError，分类为致命，与 xretry 组合时不会被重试。
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx == nil {
		return ErrNilContext
	}
	if fn == nil {
		return ErrNilFunc
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	return wrapBreakerError(err, b.name)
}

// Execute 执行受熔断器保护的操作（有返回值）
//
// 这是泛型函数，必须作为包级函数使用。
func Execute[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if b == nil {
		return zero, ErrNilBreaker
	}
	if ctx == nil {
		return zero, ErrNilContext
	}
	if fn == nil {
		return zero, ErrNilFunc
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	result, err := b.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, wrapBreakerError(err, b.name)
	}
	if typed, ok := result.(T); ok {
		return typed, nil
	}
	return zero, nil
}

// State 返回熔断器当前状态
func (b *Breaker) State() State {
	return b.cb.State()
}

// Counts 返回当前统计计数
func (b *Breaker) Counts() Counts {
	return b.cb.Counts()
}

// Name 返回熔断器名称
func (b *Breaker) Name() string {
	return b.name
}
