package xbreaker

import (
	"context"

	"github.com/omeyang/flowkit/pkg/resilience/xretry"
)

// BreakerRetryer 熔断器+重试组合执行器
//
// 组合熔断与重试：熔断器负责快速失败，重试器负责吸收瞬时故障。
// 每次重试尝试都经过熔断器检查与统计，连续失败可能在重试过程中
// 触发熔断，此后剩余的重试被 BreakerError（致命分类）立即终止。
type BreakerRetryer struct {
	breaker *Breaker
	retryer *xretry.Retryer
}

// NewBreakerRetryer 创建熔断器+重试组合执行器
func NewBreakerRetryer(breaker *Breaker, retryer *xretry.Retryer) (*BreakerRetryer, error) {
	if breaker == nil {
		return nil, ErrNilBreaker
	}
	if retryer == nil {
		return nil, ErrNilRetryer
	}
	return &BreakerRetryer{breaker: breaker, retryer: retryer}, nil
}

// Do 执行带熔断和重试的操作
//
// 执行顺序为 重试器 → 熔断器 → 操作：每次尝试的结果都被熔断器
// 记录；熔断器打开后返回的错误分类为致命，重试立即停止。
func (br *BreakerRetryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx == nil {
		return ErrNilContext
	}
	if fn == nil {
		return ErrNilFunc
	}
	return br.retryer.Do(ctx, func(ctx context.Context) error {
		return br.breaker.Do(ctx, fn)
	})
}

// DoWithResult 执行带熔断和重试的操作（有返回值）
//
// 这是泛型函数，必须作为包级函数使用。
func DoWithResult[T any](ctx context.Context, br *BreakerRetryer, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if br == nil {
		return zero, ErrNilBreaker
	}
	if ctx == nil {
		return zero, ErrNilContext
	}
	if fn == nil {
		return zero, ErrNilFunc
	}
	return xretry.DoWithResult(ctx, br.retryer, func(ctx context.Context) (T, error) {
		return Execute(ctx, br.breaker, fn)
	})
}

// Breaker 返回熔断器
func (br *BreakerRetryer) Breaker() *Breaker {
	return br.breaker
}

// Retryer 返回重试器
func (br *BreakerRetryer) Retryer() *xretry.Retryer {
	return br.retryer
}
