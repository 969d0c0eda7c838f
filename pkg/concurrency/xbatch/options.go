package xbatch

import (
	"context"
	"log/slog"

	"github.com/omeyang/flowkit/pkg/concurrency/xgate"
	"github.com/omeyang/flowkit/pkg/resilience/xretry"
)

// Executor 条目执行器接口
//
// xthrottle.Controller 与 xadaptive.Controller 均满足此接口，
// 其他形状的执行函数可通过 ExecutorFunc 适配。
type Executor interface {
	Execute(ctx context.Context, op func(ctx context.Context) error) error
}

// ExecutorFunc 函数适配器，将执行函数适配为 Executor
//
// 例如把熔断器接入条目管线：
//
//	xbatch.ExecutorFunc(breaker.Do)
type ExecutorFunc func(ctx context.Context, op func(ctx context.Context) error) error

// Execute 实现 Executor 接口
func (f ExecutorFunc) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	return f(ctx, op)
}

// Resolver 按条目标注路由执行器
// 返回 nil 表示该条目不经过执行器阶段。
type Resolver func(label string) Executor

// options 内部配置结构
type options struct {
	gate        *xgate.Gate
	concurrency int
	retryer     *xretry.Retryer
	executor    Executor
	resolver    Resolver
	logger      *slog.Logger
}

// Option 配置选项函数
type Option func(*options)

// WithGate 设置批内并发门
// 与 WithConcurrency 同时设置时以 WithGate 为准。
func WithGate(g *xgate.Gate) Option {
	return func(o *options) {
		if g != nil {
			o.gate = g
		}
	}
}

// WithConcurrency 按最大在飞数创建批内并发门
// 0 或负值表示不限制批内并发。
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithRetryer 设置条目重试器
// 不设置则条目失败不重试。
func WithRetryer(r *xretry.Retryer) Option {
	return func(o *options) {
		o.retryer = r
	}
}

// WithExecutor 设置所有条目共用的执行器（通常是限流控制器）
func WithExecutor(e Executor) Option {
	return func(o *options) {
		o.executor = e
	}
}

// WithResolver 按条目标注路由执行器
//
// 用于同一作业内的条目分属不同层级的场景。
// 与 WithExecutor 同时设置时优先使用 Resolver，
// 其返回 nil 时回退到共用执行器。
func WithResolver(r Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithLogger 设置日志记录器。传入 nil 将被忽略。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
