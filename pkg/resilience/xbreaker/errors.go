package xbreaker

import (
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"

	"github.com/omeyang/flowkit/pkg/resilience/xretry"
)

// 参数校验错误
var (
	// ErrNilBreaker 传入的 Breaker 为 nil
	ErrNilBreaker = errors.New("xbreaker: breaker cannot be nil")

	// ErrNilRetryer 传入的 Retryer 为 nil
	ErrNilRetryer = errors.New("xbreaker: retryer cannot be nil")

	// ErrNilContext 传入的 context 为 nil
	ErrNilContext = errors.New("xbreaker: context cannot be nil")

	// ErrNilFunc 传入的操作函数为 nil
	ErrNilFunc = errors.New("xbreaker: function cannot be nil")
)

// 熔断器错误，gobreaker 原生哨兵错误的别名
var (
	// ErrOpenState 熔断器处于打开状态
	ErrOpenState = gobreaker.ErrOpenState

	// ErrTooManyRequests 半开状态下请求过多
	ErrTooManyRequests = gobreaker.ErrTooManyRequests
)

// BreakerError 熔断器错误包装类型
//
// 包装 gobreaker 的哨兵错误（ErrOpenState、ErrTooManyRequests），
// 并实现 xretry 的错误分类接口，分类为致命。
// 熔断器打开说明下游不可用，继续退避重试只会拖长失败路径，
// 正确的动作是快速失败或走降级逻辑。
type BreakerError struct {
	Err   error  // 原始错误（ErrOpenState 或 ErrTooManyRequests）
	Name  string // 熔断器名称，用于日志
	State State  // 错误发生时的熔断器状态
}

// Error 实现 error 接口
func (e *BreakerError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("breaker %s: %v", e.Name, e.Err)
	}
	return e.Err.Error()
}

// Unwrap 实现 errors.Unwrap 接口
func (e *BreakerError) Unwrap() error {
	return e.Err
}

// Classification 实现 xretry 错误分类接口，熔断器错误不重试
func (e *BreakerError) Classification() xretry.Classification {
	return xretry.ClassFatal
}

// wrapBreakerError 如果是熔断器错误则包装，否则原样返回
//
// 设计决策: 只包装直接的 sentinel error，不用 errors.Is 遍历错误链，
// 避免嵌套熔断器场景下把内层熔断器的错误归因到外层。
// 状态从错误类型推导（ErrOpenState→StateOpen，
// ErrTooManyRequests→StateHalfOpen），而非事后查询 State()，
// 规避 Execute 返回与状态查询之间的竞态。
func wrapBreakerError(err error, name string) error {
	if err == nil {
		return nil
	}

	var be *BreakerError
	if errors.As(err, &be) {
		return err
	}

	if err == gobreaker.ErrOpenState { //nolint:errorlint // 仅匹配直接哨兵
		return &BreakerError{Err: err, Name: name, State: StateOpen}
	}
	if err == gobreaker.ErrTooManyRequests { //nolint:errorlint // 仅匹配直接哨兵
		return &BreakerError{Err: err, Name: name, State: StateHalfOpen}
	}
	return err
}

// IsOpen 检查错误是否是熔断器打开错误
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState)
}

// IsTooManyRequests 检查错误是否是半开状态下的请求过多错误
func IsTooManyRequests(err error) bool {
	return errors.Is(err, gobreaker.ErrTooManyRequests)
}

// IsBreakerError 检查错误是否由熔断器产生
// 包括 ErrOpenState 和 ErrTooManyRequests，用于区分熔断错误和业务错误。
func IsBreakerError(err error) bool {
	return IsOpen(err) || IsTooManyRequests(err)
}
