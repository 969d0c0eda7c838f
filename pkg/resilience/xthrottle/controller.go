package xthrottle

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/flowkit/pkg/observability/xstats"
)

// Controller 准入控制器
//
// 独占持有一个令牌桶和一个 FIFO 等待队列。
// 状态变更都在 mu 保护的短临界区内完成；等待者在锁外挂起，
// 由派发定时器或新到达的请求唤醒。
type Controller struct {
	opts *options

	mu     sync.Mutex
	cfg    Config
	bucket tokenBucket
	queue  admissionQueue
	timer  *time.Timer
	closed bool

	seq  atomic.Uint64
	done chan struct{} // Close 时关闭，唤醒所有等待者
}

// New 创建准入控制器
// 配置非法（速率 <= 0、容量 < 1、队列深度 < 0）时返回错误。
func New(cfg Config, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.meterProvider != nil {
		metrics, err := xstats.NewMetrics(o.meterProvider)
		if err != nil {
			return nil, err
		}
		o.metrics = metrics
	}

	return &Controller{
		opts:   o,
		cfg:    cfg,
		bucket: newTokenBucket(cfg.BurstLimit, cfg.RequestsPerSecond, time.Now()),
		done:   make(chan struct{}),
	}, nil
}

// Execute 在准入控制下执行操作
//
// 操作只在取得令牌后运行；等待期间请求按提交顺序排队。
// 队列饱和时立即返回 QueueFullError（不等待）。
// 每次操作完成会累积 processed 计数与延迟，无论操作本身成败。
func (c *Controller) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	if ctx == nil {
		return ErrNilContext
	}
	if op == nil {
		return ErrNilOperation
	}

	if err := c.admit(ctx); err != nil {
		return err
	}

	start := time.Now()
	err := op(ctx)
	latency := time.Since(start)

	c.opts.stats.RecordProcessed(latency)
	c.opts.metrics.RecordProcessed(ctx, c.opts.name, err == nil, latency)
	return err
}

// ExecuteWithResult 在准入控制下执行操作（有返回值）
//
// 这是泛型函数，必须作为包级函数使用。
func ExecuteWithResult[T any](ctx context.Context, c *Controller, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	if op == nil {
		return result, ErrNilOperation
	}
	err := c.Execute(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// admit 取得令牌或排队等待
func (c *Controller) admit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrControllerClosed
	}

	c.bucket.refill(now)

	// 快路径：有令牌且无人排队时直接放行，保证不插队
	if c.queue.len() == 0 && c.bucket.take() {
		c.mu.Unlock()
		return nil
	}

	// 背压：队列饱和立即拒绝
	if c.queue.len() >= c.cfg.MaxQueueDepth {
		depth := c.queue.len()
		maxDepth := c.cfg.MaxQueueDepth
		c.mu.Unlock()

		c.opts.stats.RecordRejected()
		c.opts.metrics.RecordRejected(ctx, c.opts.name)
		if c.opts.logger != nil {
			c.opts.logger.Warn("admission queue full",
				slog.String("controller", c.opts.name),
				slog.Int("depth", depth),
				slog.Int("max_depth", maxDepth),
			)
		}
		return &QueueFullError{Controller: c.opts.name, Depth: depth, MaxDepth: maxDepth}
	}

	pending := &pendingOp{
		seq:        c.seq.Add(1),
		enqueuedAt: now,
		ready:      make(chan struct{}, 1),
	}
	elem := c.queue.push(pending)
	c.dispatchLocked(now)
	c.mu.Unlock()

	c.opts.stats.RecordQueued()
	c.opts.metrics.RecordQueued(ctx, c.opts.name)

	select {
	case <-pending.ready:
		return nil
	case <-ctx.Done():
		c.abandon(elem, pending)
		return ctx.Err()
	case <-c.done:
		c.abandon(elem, pending)
		return ErrControllerClosed
	}
}

// abandon 等待者放弃排队。
// 与派发存在竞争：若令牌已经转移给该等待者，将其归还并让给下一位。
func (c *Controller) abandon(elem *queueElement, pending *pendingOp) {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-pending.ready:
		if c.bucket.tokens < c.bucket.capacity {
			c.bucket.tokens++
		}
		c.dispatchLocked(time.Now())
	default:
		c.queue.remove(elem)
	}
}

// dispatchLocked 派发循环：令牌与队首同时存在时持续放行。
// 队列仍非空时安排定时器在下一个令牌累积时再次派发。
// 调用方必须持有 mu。
func (c *Controller) dispatchLocked(now time.Time) {
	for c.queue.len() > 0 && c.bucket.take() {
		pending := c.queue.pop()
		if pending != nil {
			pending.ready <- struct{}{}
		}
	}

	if c.queue.len() > 0 {
		c.scheduleLocked(now)
	}
}

// scheduleLocked 安排派发定时器
func (c *Controller) scheduleLocked(now time.Time) {
	d := c.bucket.nextAccrual(now)
	if c.timer == nil {
		c.timer = time.AfterFunc(d, c.dispatchTick)
		return
	}
	c.timer.Reset(d)
}

// dispatchTick 定时器回调
func (c *Controller) dispatchTick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	now := time.Now()
	c.bucket.refill(now)
	c.dispatchLocked(now)
}

// Reconfigure 原子替换速率与容量
//
// 在派发锁内完成：先按旧速率结算已流逝时间的令牌，再应用新配置。
// 已入队的等待者不受影响，新配置只作用于后续准入与派发节奏。
func (c *Controller) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrControllerClosed
	}

	now := time.Now()
	c.bucket.refill(now)
	c.cfg = cfg
	c.bucket.reconfigure(cfg.BurstLimit, cfg.RequestsPerSecond)
	c.dispatchLocked(now)

	if c.opts.logger != nil {
		c.opts.logger.Info("controller reconfigured",
			slog.String("controller", c.opts.name),
			slog.Float64("requests_per_second", cfg.RequestsPerSecond),
			slog.Int("burst_limit", cfg.BurstLimit),
			slog.Int("max_queue_depth", cfg.MaxQueueDepth),
		)
	}
	return nil
}

// Config 返回当前生效的配置副本
func (c *Controller) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Tokens 返回当前可用令牌数（结算补充后）
func (c *Controller) Tokens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bucket.refill(time.Now())
	return c.bucket.tokens
}

// QueueDepth 返回当前等待队列深度
func (c *Controller) QueueDepth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.len()
}

// Name 返回控制器名称
func (c *Controller) Name() string {
	return c.opts.name
}

// Close 关闭控制器
//
// 幂等。所有排队等待者被唤醒并收到 ErrControllerClosed；
// 已放行的操作不受影响，允许其自然完成。
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	close(c.done)
	return nil
}
