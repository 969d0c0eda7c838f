package xadaptive

import (
	"errors"
	"sort"
	"sync"

	"github.com/omeyang/flowkit/pkg/resilience/xthrottle"
)

// Registry 分层限流注册表
//
// 按名称管理多个 Controller，每个层级独立限流。
// 注册表独占持有其创建的全部控制器，调用方只通过名称引用层级。
//
// 设计决策: 显式对象而非包级单例。调用方在进程启动时构造一个
// 注册表并按引用传递，测试可以构造互不干扰的隔离实例，
// 不存在隐藏的全局可变状态。
type Registry struct {
	opts *options

	mu     sync.Mutex
	tiers  map[string]*Controller
	closed bool
}

// NewRegistry 创建注册表
//
// 选项作为注册表内所有控制器的默认选项；
// 控制器名称始终为其层级名。
func NewRegistry(opts ...Option) *Registry {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Registry{
		opts:  o,
		tiers: make(map[string]*Controller),
	}
}

// GetOrCreate 返回指定层级的控制器，不存在时按 cfg 创建
//
// 层级在首次引用时创建，此后与注册表同生命周期；
// 已存在的层级直接返回，cfg 被忽略。
func (r *Registry) GetOrCreate(tier string, cfg xthrottle.Config) (*Controller, error) {
	if tier == "" {
		return nil, ErrEmptyTier
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}
	if c, ok := r.tiers[tier]; ok {
		return c, nil
	}

	c, err := New(cfg,
		WithName(tier),
		WithTuning(r.opts.tuning),
		WithLogger(r.opts.logger),
		WithStats(r.opts.stats),
		WithMeterProvider(r.opts.meterProvider),
	)
	if err != nil {
		return nil, err
	}
	r.tiers[tier] = c
	return c, nil
}

// Get 返回指定层级的控制器，不存在时返回 false
func (r *Registry) Get(tier string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.tiers[tier]
	return c, ok
}

// Tiers 返回当前所有层级名称，按字典序排序
func (r *Registry) Tiers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.tiers))
	for name := range r.tiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reconfigure 在线替换指定层级的限流配置
// 层级不存在时返回 ErrTierNotFound。
func (r *Registry) Reconfigure(tier string, cfg xthrottle.Config) error {
	r.mu.Lock()
	c, ok := r.tiers[tier]
	r.mu.Unlock()

	if !ok {
		return ErrTierNotFound
	}
	return c.Reconfigure(cfg)
}

// Close 关闭注册表及其全部控制器，幂等
//
// 各控制器的关闭错误合并返回；关闭后 GetOrCreate 返回
// ErrRegistryClosed，已取得的控制器引用不再可用。
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for _, c := range r.tiers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
