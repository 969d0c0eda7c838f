package xadaptive

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/omeyang/flowkit/pkg/resilience/xretry"
	"github.com/omeyang/flowkit/pkg/resilience/xthrottle"
)

// Controller 自适应限流控制器
//
// 独占持有一个 xthrottle.Controller，并在执行完成路径上按窗口
// 评估错误率、在线调整其速率与突发容量。
// 原始配置作为调整上限保留，调整永不超出
// [原始配置 × MinFactor, 原始配置] 区间。
type Controller struct {
	opts   *options
	tuning Tuning
	inner  *xthrottle.Controller

	mu          sync.Mutex
	original    xthrottle.Config
	current     xthrottle.Config
	successes   int
	failures    int
	windowStart time.Time
}

// New 创建自适应控制器
//
// cfg 为初始（亦即上限）限流配置。调参配置通过 WithTuning 设置，
// 默认为 DefaultTuning。
func New(cfg xthrottle.Config, opts ...Option) (*Controller, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if err := o.tuning.Validate(); err != nil {
		return nil, err
	}

	inner, err := xthrottle.New(cfg,
		xthrottle.WithName(o.name),
		xthrottle.WithLogger(o.logger),
		xthrottle.WithStats(o.stats),
		xthrottle.WithMeterProvider(o.meterProvider),
	)
	if err != nil {
		return nil, err
	}

	return &Controller{
		opts:        o,
		tuning:      o.tuning,
		inner:       inner,
		original:    cfg,
		current:     cfg,
		windowStart: time.Now(),
	}, nil
}

// Execute 在自适应限流下执行操作
//
// 契约与 xthrottle.Controller.Execute 一致，额外将执行结果
// 计入反馈环：nil 为成功，取消类错误不计入，其余计为失败。
func (a *Controller) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	err := a.inner.Execute(ctx, op)
	a.observe(err)
	return err
}

// ExecuteWithResult 在自适应限流下执行操作（有返回值）
func ExecuteWithResult[T any](ctx context.Context, a *Controller, op func(ctx context.Context) (T, error)) (T, error) {
	result, err := xthrottle.ExecuteWithResult(ctx, a.inner, op)
	a.observe(err)
	return result, err
}

// observe 将一次执行结果计入反馈环，并在窗口到期时评估调整
func (a *Controller) observe(err error) {
	// 取消不反映服务端压力，不计入任何一侧
	if err != nil && xretry.Classify(err) == xretry.ClassCancelled {
		return
	}

	now := time.Now()

	a.mu.Lock()
	defer a.mu.Unlock()

	if err == nil {
		a.successes++
	} else {
		a.failures++
	}
	a.maybeAdjustLocked(now)
}

// maybeAdjustLocked 窗口到期且样本充足时评估一次调整。
// 调用方必须持有 mu。
func (a *Controller) maybeAdjustLocked(now time.Time) {
	if now.Sub(a.windowStart) < a.tuning.AdjustmentInterval {
		return
	}
	total := a.successes + a.failures
	if total < a.tuning.MinSamples {
		return
	}

	errorRate := float64(a.failures) / float64(total)

	target := a.current
	switch {
	case errorRate > a.tuning.HighErrorThreshold:
		target.RequestsPerSecond *= a.tuning.DampingFactor
		target.BurstLimit = int(math.Floor(float64(target.BurstLimit) * a.tuning.DampingFactor))
	case errorRate < a.tuning.LowErrorThreshold:
		target.RequestsPerSecond *= a.tuning.RecoveryFactor
		target.BurstLimit = int(math.Ceil(float64(target.BurstLimit) * a.tuning.RecoveryFactor))
	}
	target = a.clampLocked(target)

	// 每次评估后重置窗口，无论是否产生调整
	a.successes, a.failures = 0, 0
	a.windowStart = now

	if target == a.current {
		return
	}

	if err := a.inner.Reconfigure(target); err != nil {
		if a.opts.logger != nil {
			a.opts.logger.Warn("adaptive adjustment failed",
				"controller", a.opts.name, "error", err)
		}
		return
	}

	if a.opts.logger != nil {
		a.opts.logger.Info("adaptive adjustment applied",
			"controller", a.opts.name,
			"error_rate", errorRate,
			"old_rate", a.current.RequestsPerSecond,
			"new_rate", target.RequestsPerSecond,
			"old_burst", a.current.BurstLimit,
			"new_burst", target.BurstLimit,
		)
	}
	a.current = target
}

// clampLocked 将目标配置限定在 [原始 × MinFactor, 原始] 区间。
// 速率下限为正数，容量下限至少为 1，永不坍缩到零吞吐。
// 调用方必须持有 mu。
func (a *Controller) clampLocked(target xthrottle.Config) xthrottle.Config {
	floorRate := a.original.RequestsPerSecond * a.tuning.MinFactor
	target.RequestsPerSecond = math.Min(math.Max(target.RequestsPerSecond, floorRate), a.original.RequestsPerSecond)

	floorBurst := int(math.Floor(float64(a.original.BurstLimit) * a.tuning.MinFactor))
	if floorBurst < 1 {
		floorBurst = 1
	}
	if target.BurstLimit < floorBurst {
		target.BurstLimit = floorBurst
	}
	if target.BurstLimit > a.original.BurstLimit {
		target.BurstLimit = a.original.BurstLimit
	}
	return target
}

// Reconfigure 原子替换初始配置
//
// 新配置同时成为新的调整上限，反馈环计数与窗口随之重置。
// 用于配置文件驱动的在线变更。
func (a *Controller) Reconfigure(cfg xthrottle.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.inner.Reconfigure(cfg); err != nil {
		return err
	}
	a.original = cfg
	a.current = cfg
	a.successes, a.failures = 0, 0
	a.windowStart = time.Now()
	return nil
}

// Config 返回当前生效的限流配置副本
func (a *Controller) Config() xthrottle.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Original 返回原始（上限）限流配置副本
func (a *Controller) Original() xthrottle.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.original
}

// Tuning 返回调参配置
func (a *Controller) Tuning() Tuning {
	return a.tuning
}

// Name 返回控制器名称
func (a *Controller) Name() string {
	return a.opts.name
}

// Tokens 返回底层桶当前可用令牌数
func (a *Controller) Tokens() int {
	return a.inner.Tokens()
}

// QueueDepth 返回底层等待队列深度
func (a *Controller) QueueDepth() int {
	return a.inner.QueueDepth()
}

// Close 关闭控制器，幂等
func (a *Controller) Close() error {
	return a.inner.Close()
}
