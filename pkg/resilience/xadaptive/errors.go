package xadaptive

import "errors"

// 包级错误定义。
var (
	// ErrInvalidTuning 表示自适应调参配置无效。
	ErrInvalidTuning = errors.New("xadaptive: invalid tuning config")

	// ErrRegistryClosed 表示注册表已关闭。
	ErrRegistryClosed = errors.New("xadaptive: registry is closed")

	// ErrEmptyTier 表示层级名称为空。
	ErrEmptyTier = errors.New("xadaptive: empty tier name")

	// ErrTierNotFound 表示指定层级不存在。
	ErrTierNotFound = errors.New("xadaptive: tier not found")
)
