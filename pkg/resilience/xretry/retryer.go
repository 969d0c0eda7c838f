package xretry

import (
	"context"
	"math"
	"time"

	retry "github.com/avast/retry-go/v5"

	"github.com/omeyang/flowkit/pkg/observability/xstats"
)

// defaultMaxAttempts 默认最大尝试次数（包含首次尝试）
const defaultMaxAttempts = 3

// safeIntToUint 将 int 安全转换为 uint。
// 负数返回 0，用于向 retry-go 的 Attempts (uint) 传递。
func safeIntToUint(n int) uint {
	if n <= 0 {
		return 0
	}
	return uint(n)
}

// safeUintToInt 将 uint 安全转换为 int。
// 超过 MaxInt 的值被截断到 MaxInt。
func safeUintToInt(n uint) int {
	if n > uint(math.MaxInt) {
		return math.MaxInt
	}
	return int(n)
}

// Executor 重试执行器接口
//
// 调用方如需 mock 重试执行器，可使用此接口作为函数参数类型。
type Executor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// 确保 *Retryer 实现 Executor 接口
var _ Executor = (*Retryer)(nil)

// Retryer 重试执行器
//
// 组合错误分类（Classify）与退避策略（BackoffPolicy）：
//   - ClassFatal / ClassCancelled 立即终止重试并上抛
//   - ClassRetryable 按退避延迟重试，直到成功或尝试次数耗尽
//   - 耗尽后返回 *ExhaustedError 包装的最后一个错误
//
// 底层使用 avast/retry-go/v5 实现重试循环。
type Retryer struct {
	maxAttempts int
	backoff     BackoffPolicy
	onRetry     func(attempt int, err error)
	stats       *xstats.Aggregator
}

// RetryerOption 执行器配置选项
type RetryerOption func(*Retryer)

// WithMaxAttempts 设置最大尝试次数（包含首次尝试），最小为 1。
// 非正值被静默忽略（保持默认值 3）。
func WithMaxAttempts(n int) RetryerOption {
	return func(r *Retryer) {
		if n >= 1 {
			r.maxAttempts = n
		}
	}
}

// WithBaseDelay 设置指数退避的基础延迟。
// 这是 WithBackoffPolicy(NewExponentialBackoff(WithBackoffBaseDelay(d))) 的快捷方式。
func WithBaseDelay(d time.Duration) RetryerOption {
	return func(r *Retryer) {
		if d > 0 {
			r.backoff = NewExponentialBackoff(WithBackoffBaseDelay(d))
		}
	}
}

// WithBackoffPolicy 设置退避策略
func WithBackoffPolicy(p BackoffPolicy) RetryerOption {
	return func(r *Retryer) {
		if p != nil {
			r.backoff = p
		}
	}
}

// WithOnRetry 设置重试回调函数。
// attempt 从 1 开始，表示第 attempt 次尝试失败后触发的重试。
// 传入 nil 会被静默忽略。
func WithOnRetry(f func(attempt int, err error)) RetryerOption {
	return func(r *Retryer) {
		if f != nil {
			r.onRetry = f
		}
	}
}

// WithStats 设置统计聚合器，每次重试会累积 Retried 计数
func WithStats(stats *xstats.Aggregator) RetryerOption {
	return func(r *Retryer) {
		r.stats = stats
	}
}

// NewRetryer 创建重试执行器
// 默认最大尝试 3 次，使用带抖动的指数退避（基础延迟 100ms）。
func NewRetryer(opts ...RetryerOption) *Retryer {
	r := &Retryer{
		maxAttempts: defaultMaxAttempts,
		backoff:     NewExponentialBackoff(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxAttempts 返回最大尝试次数
func (r *Retryer) MaxAttempts() int {
	return r.maxAttempts
}

// Do 执行带重试的操作
//
// 终止条件（任一满足即停止重试）：
//   - 操作成功
//   - 错误分类为 ClassFatal 或 ClassCancelled
//   - 尝试次数达到 MaxAttempts（此时返回 *ExhaustedError）
//
// 如果接收者为 nil，返回 ErrNilRetryer。
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil {
		return ErrNilRetryer
	}
	if ctx == nil {
		return ErrNilContext
	}
	if fn == nil {
		return ErrNilFunc
	}

	err := retry.New(r.buildOptions(ctx)...).Do(func() error {
		return fn(ctx)
	})
	return r.finalize(err)
}

// DoWithResult 执行带重试的操作（有返回值）
//
// 这是泛型函数，必须作为包级函数使用。
// 如果 r 为 nil，返回零值和 ErrNilRetryer。
func DoWithResult[T any](ctx context.Context, r *Retryer, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if r == nil {
		return zero, ErrNilRetryer
	}
	if ctx == nil {
		return zero, ErrNilContext
	}
	if fn == nil {
		return zero, ErrNilFunc
	}

	result, err := retry.NewWithData[T](r.buildOptions(ctx)...).Do(func() (T, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, r.finalize(err)
	}
	return result, nil
}

// buildOptions 构建 retry-go 的选项。
// 设计决策: 每次 Do 调用重建选项切片，重试是低频路径，分配开销可忽略；
// 预构建会引入并发安全复杂度而收益甚微。
func (r *Retryer) buildOptions(ctx context.Context) []retry.Option {
	backoff := r.backoff
	if backoff == nil {
		backoff = NewExponentialBackoff()
	}
	maxAttempts := r.maxAttempts
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}

	opts := make([]retry.Option, 0, 6)
	opts = append(opts, retry.Context(ctx))
	opts = append(opts, retry.Attempts(safeIntToUint(maxAttempts)))

	// 只有可重试分类才继续；fatal/cancelled 立即终止
	opts = append(opts, retry.RetryIf(func(err error) bool {
		if ctx.Err() != nil {
			return false
		}
		return Classify(err) == ClassRetryable
	}))

	// 延迟计算：错误携带的重试间隔提示优先于退避策略
	opts = append(opts, retry.DelayType(func(n uint, err error, _ retry.DelayContext) time.Duration {
		if hint, ok := RetryAfterHint(err); ok {
			return hint
		}
		// retry-go v5 中 DelayType 的 n 从 1 开始，与 BackoffPolicy.NextDelay 一致
		return backoff.NextDelay(safeUintToInt(n))
	}))

	opts = append(opts, retry.OnRetry(func(n uint, err error) {
		r.stats.RecordRetried()
		if r.onRetry != nil {
			// retry-go v5 中 OnRetry 的 n 从 0 开始，+1 转换为 1-based
			r.onRetry(safeUintToInt(n)+1, err)
		}
	}))

	// 只返回最后一个错误，简化调用方的错误处理
	opts = append(opts, retry.LastErrorOnly(true))

	return opts
}

// finalize 对最终错误做耗尽标记。
// 最后一个错误仍是可重试分类，说明重试循环因次数耗尽而终止，
// 包装为 ExhaustedError 防止外层再次重试。
func (r *Retryer) finalize(err error) error {
	if err == nil {
		return nil
	}
	if Classify(err) == ClassRetryable {
		return &ExhaustedError{Attempts: r.maxAttempts, Err: err}
	}
	return err
}
