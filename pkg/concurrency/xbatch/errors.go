package xbatch

import "errors"

// 包级错误定义。
var (
	// ErrNilScheduler 表示传入的调度器为 nil。
	ErrNilScheduler = errors.New("xbatch: scheduler cannot be nil")

	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xbatch: context cannot be nil")

	// ErrNilOperation 表示传入的操作函数为 nil。
	ErrNilOperation = errors.New("xbatch: operation cannot be nil")

	// ErrInvalidConfig 表示批处理配置无效。
	ErrInvalidConfig = errors.New("xbatch: invalid config")
)
