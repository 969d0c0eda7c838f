package xretry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Classification 错误分类
type Classification int

const (
	// ClassRetryable 可重试错误：超时、限流、瞬时网络故障、5xx 类服务错误
	ClassRetryable Classification = iota
	// ClassFatal 致命错误：鉴权失败、请求格式错误、资源不存在，永不重试
	ClassFatal
	// ClassCancelled 取消：协作式取消导致的放弃，不重试，不计入错误率
	ClassCancelled
)

// String 返回分类的可读字符串表示，用于日志输出。
func (c Classification) String() string {
	switch c {
	case ClassRetryable:
		return "retryable"
	case ClassFatal:
		return "fatal"
	case ClassCancelled:
		return "cancelled"
	default:
		return "Classification(" + strconv.Itoa(int(c)) + ")"
	}
}

// Classifier 可分类错误接口
// 实现此接口的错误自带分类信息，Classify 优先采用。
type Classifier interface {
	error
	Classification() Classification
}

// RetryAfterHinter 重试间隔提示接口
//
// 限流类响应通常携带服务端建议的重试等待时间（如 Retry-After 头）。
// 实现此接口的错误，其提示会覆盖计算出的退避延迟。
type RetryAfterHinter interface {
	// RetryAfter 返回建议的重试间隔
	// ok 为 false 表示无提示
	RetryAfter() (d time.Duration, ok bool)
}

// Classify 对错误进行分类。
// 规则（按优先级）：
//   - 实现 Classifier 接口：采用其自带分类
//   - context.Canceled：取消
//   - context.DeadlineExceeded：可重试（操作自身的超时属于瞬时故障）
//   - net.Error 及网络层错误：可重试
//   - 其他未知错误：默认可重试
//
// nil 错误视为成功，返回 ClassRetryable 仅为占位，调用方不应对 nil 调用此函数。
func Classify(err error) Classification {
	if err == nil {
		return ClassRetryable
	}

	var c Classifier
	if errors.As(err, &c) {
		return c.Classification()
	}

	if errors.Is(err, context.Canceled) {
		return ClassCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassRetryable
	}

	if isNetworkError(err) {
		return ClassRetryable
	}

	// 默认：未知错误视为可重试
	return ClassRetryable
}

// IsRetryable 检查错误是否可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err) == ClassRetryable
}

// IsFatal 检查错误是否为致命错误
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err) == ClassFatal
}

// IsCancelled 检查错误是否由取消导致
func IsCancelled(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err) == ClassCancelled
}

// RetryAfterHint 提取错误携带的重试间隔提示
func RetryAfterHint(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}
	var h RetryAfterHinter
	if errors.As(err, &h) {
		return h.RetryAfter()
	}
	return 0, false
}

// isNetworkError 检查是否是网络相关错误
// 使用类型断言和错误链检查，而不是字符串匹配。
func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// =============================================================================
// 分类错误包装
// =============================================================================

// RetryableError 显式标记为可重试的错误
type RetryableError struct {
	Err error
	// Hint 服务端建议的重试间隔，0 表示无提示
	Hint time.Duration
}

// NewRetryableError 创建可重试错误
func NewRetryableError(err error) *RetryableError {
	return &RetryableError{Err: err}
}

// NewRateLimitedError 创建携带重试间隔提示的限流错误
func NewRateLimitedError(err error, retryAfter time.Duration) *RetryableError {
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &RetryableError{Err: err, Hint: retryAfter}
}

func (e *RetryableError) Error() string {
	if e.Err == nil {
		return "retryable error"
	}
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// Classification 实现 Classifier 接口
func (e *RetryableError) Classification() Classification {
	return ClassRetryable
}

// RetryAfter 实现 RetryAfterHinter 接口
func (e *RetryableError) RetryAfter() (time.Duration, bool) {
	return e.Hint, e.Hint > 0
}

// FatalError 显式标记为致命（不应重试）的错误
type FatalError struct {
	Err error
}

// NewFatalError 创建致命错误
func NewFatalError(err error) *FatalError {
	return &FatalError{Err: err}
}

func (e *FatalError) Error() string {
	if e.Err == nil {
		return "fatal error"
	}
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Classification 实现 Classifier 接口
func (e *FatalError) Classification() Classification {
	return ClassFatal
}

// CancelledError 显式标记为取消的错误
type CancelledError struct {
	Err error
}

// NewCancelledError 创建取消错误
func NewCancelledError(err error) *CancelledError {
	return &CancelledError{Err: err}
}

func (e *CancelledError) Error() string {
	if e.Err == nil {
		return "operation cancelled"
	}
	return e.Err.Error()
}

func (e *CancelledError) Unwrap() error {
	return e.Err
}

// Classification 实现 Classifier 接口
func (e *CancelledError) Classification() Classification {
	return ClassCancelled
}

// ExhaustedError 重试耗尽错误
//
// 包装重试次数用尽后的最后一个错误。
// 设计决策: Classification 返回 ClassFatal 而非保留底层分类，
// 防止外层执行器对已耗尽的操作再次发起重试。
type ExhaustedError struct {
	// Attempts 实际执行的尝试次数
	Attempts int
	// Err 最后一次尝试的错误
	Err error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("xretry: %d attempts exhausted: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Classification 实现 Classifier 接口
func (e *ExhaustedError) Classification() Classification {
	return ClassFatal
}

// IsExhausted 检查错误是否为重试耗尽错误
func IsExhausted(err error) bool {
	var ex *ExhaustedError
	return errors.As(err, &ex)
}

// 编译时接口检查
var (
	_ Classifier       = (*RetryableError)(nil)
	_ RetryAfterHinter = (*RetryableError)(nil)
	_ Classifier       = (*FatalError)(nil)
	_ Classifier       = (*CancelledError)(nil)
	_ Classifier       = (*ExhaustedError)(nil)
)
