package xadaptive

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/omeyang/flowkit/pkg/config/xconf"
	"github.com/omeyang/flowkit/pkg/resilience/xthrottle"
)

// TierConfigs 各层级的限流配置，键为层级名。
type TierConfigs map[string]xthrottle.Config

// ConfigChange 配置变更事件
type ConfigChange struct {
	// Tiers 新的各层级配置
	Tiers TierConfigs
	// Err 如果加载失败
	Err error
}

// Provider 从 xconf 加载各层级限流配置
//
// 配置文件按层级名组织，例如：
//
//	tiers:
//	  inference:
//	    requests_per_second: 5
//	    burst_limit: 10
//	    max_queue_depth: 100
//	  embedding:
//	    requests_per_second: 20
//	    burst_limit: 40
type Provider struct {
	loader *xconf.Loader
	path   string
}

// NewProvider 创建配置提供器
// path 为配置内的键路径前缀，如 "tiers"；空字符串表示整个文档。
func NewProvider(loader *xconf.Loader, path string) (*Provider, error) {
	if loader == nil {
		return nil, errors.New("xadaptive: nil config loader")
	}
	return &Provider{loader: loader, path: path}, nil
}

// Load 加载并校验全部层级配置
// 任一层级配置无效时整体失败，避免部分生效的中间状态。
func (p *Provider) Load() (TierConfigs, error) {
	var tiers TierConfigs
	if err := p.loader.Unmarshal(p.path, &tiers); err != nil {
		return nil, err
	}

	for name, cfg := range tiers {
		if name == "" {
			return nil, ErrEmptyTier
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("tier %q: %w", name, err)
		}
	}
	return tiers, nil
}

// Watch 监视配置变更，返回变更通道
// 调用方需要在不再需要时取消 context 以停止监视。
func (p *Provider) Watch(ctx context.Context) (<-chan ConfigChange, error) {
	ch := make(chan ConfigChange, 1)

	var mu sync.Mutex
	stopped := false

	// 设计决策: 非阻塞投递，丢弃旧事件保新事件。
	// 配置变更是覆盖语义，只需最新的完整配置；阻塞投递会
	// 卡住文件监视回调，影响后续变更通知和停止流程。
	send := func(change ConfigChange) {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- change:
		default:
		}
	}

	watcher, err := p.loader.Watch(func(_ *xconf.Loader, watchErr error) {
		if watchErr != nil {
			send(ConfigChange{Err: watchErr})
			return
		}
		tiers, loadErr := p.Load()
		if loadErr != nil {
			send(ConfigChange{Err: loadErr})
			return
		}
		send(ConfigChange{Tiers: tiers})
	})
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		stopErr := watcher.Stop()
		mu.Lock()
		if stopErr != nil && !stopped {
			select {
			case ch <- ConfigChange{Err: stopErr}:
			default:
			}
		}
		stopped = true
		mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// ApplyTierConfigs 将一组层级配置应用到注册表
//
// 已存在的层级在线 Reconfigure，不存在的层级按新配置创建。
// 配置中未出现的存活层级保持原配置不变（覆盖而非替换语义）。
// 各层级的错误合并返回，单个层级失败不影响其余层级。
func (r *Registry) ApplyTierConfigs(tiers TierConfigs) error {
	var errs []error
	for name, cfg := range tiers {
		if c, ok := r.Get(name); ok {
			if err := c.Reconfigure(cfg); err != nil {
				errs = append(errs, fmt.Errorf("tier %q: %w", name, err))
			}
			continue
		}
		if _, err := r.GetOrCreate(name, cfg); err != nil {
			errs = append(errs, fmt.Errorf("tier %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
