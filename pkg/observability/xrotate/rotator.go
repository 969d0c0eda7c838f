package xrotate

import "io"

// Rotator 日志轮转器接口
//
// 是 io.WriteCloser 的超集，额外支持手动触发轮转。
// 实现必须保证并发安全。
type Rotator interface {
	io.WriteCloser

	// Rotate 手动触发一次轮转：关闭当前文件并以原名新建。
	// 常见用途是响应 SIGHUP 信号。
	Rotate() error
}
