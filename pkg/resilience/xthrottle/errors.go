package xthrottle

import (
	"errors"
	"fmt"

	"github.com/omeyang/flowkit/pkg/resilience/xretry"
)

var (
	// ErrQueueFull 表示等待队列已饱和，请求被立即拒绝
	ErrQueueFull = errors.New("xthrottle: admission queue full")

	// ErrControllerClosed 表示控制器已关闭
	ErrControllerClosed = errors.New("xthrottle: controller closed")

	// ErrInvalidConfig 表示配置无效
	ErrInvalidConfig = errors.New("xthrottle: invalid config")

	// ErrNilContext 表示 context 参数为 nil
	ErrNilContext = errors.New("xthrottle: nil context")

	// ErrNilOperation 表示操作函数为 nil
	ErrNilOperation = errors.New("xthrottle: nil operation")
)

// QueueFullError 容量拒绝错误
//
// 队列饱和时的背压信号，与限流等待有本质区别：它不等待、立即上抛，
// 由调用方决定是否稍后重试。
type QueueFullError struct {
	// Controller 控制器名称
	Controller string
	// Depth 拒绝发生时的队列深度
	Depth int
	// MaxDepth 配置的队列深度上限
	MaxDepth int
}

// Error 实现 error 接口
func (e *QueueFullError) Error() string {
	return fmt.Sprintf("xthrottle: admission queue full on %q (depth=%d, max=%d)",
		e.Controller, e.Depth, e.MaxDepth)
}

// Is 支持 errors.Is(err, ErrQueueFull) 检查
func (e *QueueFullError) Is(target error) bool {
	return target == ErrQueueFull
}

// Unwrap 返回底层错误
func (e *QueueFullError) Unwrap() error {
	return ErrQueueFull
}

// Classification 实现 xretry.Classifier 接口
//
// 容量拒绝不由本核心重试（背压应向上游传导），归类为 fatal
// 使重试执行器立即上抛。
func (e *QueueFullError) Classification() xretry.Classification {
	return xretry.ClassFatal
}

// IsQueueFull 检查错误是否为容量拒绝
func IsQueueFull(err error) bool {
	return errors.Is(err, ErrQueueFull)
}

// 编译时接口检查
var _ xretry.Classifier = (*QueueFullError)(nil)
