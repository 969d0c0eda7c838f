package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/flowkit/pkg/concurrency/xbatch"
	"github.com/omeyang/flowkit/pkg/config/xconf"
	"github.com/omeyang/flowkit/pkg/observability/xstats"
	"github.com/omeyang/flowkit/pkg/resilience/xadaptive"
	"github.com/omeyang/flowkit/pkg/resilience/xbreaker"
	"github.com/omeyang/flowkit/pkg/resilience/xretry"
	"github.com/omeyang/flowkit/pkg/resilience/xthrottle"
)

// benchOptions run 命令的完整参数
type benchOptions struct {
	configPath       string
	watch            bool
	items            int
	failRate         float64
	batchSize        int
	concurrency      int
	breakerThreshold int
	tier             string
	seed             int64
}

// defaultTierConfig 未提供配置文件时使用的限流配置
var defaultTierConfig = xthrottle.Config{
	RequestsPerSecond: 200,
	BurstLimit:        20,
	MaxQueueDepth:     64,
}

// workItem 一个合成操作
//
// attempts 在重试间共享，瞬态失败的条目第二次尝试时成功。
type workItem struct {
	id       int
	outcome  outcome
	attempts *atomic.Int32
}

func (w workItem) Label() string { return fmt.Sprintf("op-%04d", w.id) }

// outcome 预先抽签决定的操作结局
type outcome int

const (
	outcomeOK    outcome = iota // 直接成功
	outcomeFlaky                // 首次尝试失败（可重试），重试后成功
	outcomeFatal                // 永久失败
)

// runBench 执行一轮合成负载。
func runBench(ctx context.Context, logger *slog.Logger, opts benchOptions) error {
	stats := xstats.New()
	registry := xadaptive.NewRegistry(
		xadaptive.WithLogger(logger),
		xadaptive.WithStats(stats),
	)
	defer registry.Close() //nolint:errcheck // defer cleanup

	var provider *xadaptive.Provider
	if opts.configPath != "" {
		loader, err := xconf.New(opts.configPath)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		provider, err = xadaptive.NewProvider(loader, "tiers")
		if err != nil {
			return err
		}
		tiers, err := provider.Load()
		if err != nil {
			return fmt.Errorf("解析层级配置失败: %w", err)
		}
		if err := registry.ApplyTierConfigs(tiers); err != nil {
			return fmt.Errorf("应用层级配置失败: %w", err)
		}
		logger.Info("tier configs loaded",
			"path", opts.configPath, "tiers", registry.Tiers())
	}

	// 目标层级不在配置文件中时按默认配置创建
	ctrl, err := registry.GetOrCreate(opts.tier, defaultTierConfig)
	if err != nil {
		return fmt.Errorf("创建层级 %q 失败: %w", opts.tier, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)

	if opts.watch {
		changes, err := provider.Watch(gctx)
		if err != nil {
			return fmt.Errorf("启动配置监听失败: %w", err)
		}
		g.Go(func() error {
			return watchLoop(gctx, logger, registry, changes)
		})
	}

	var result benchResult
	g.Go(func() error {
		defer cancel() // 负载结束后停止配置监听
		var err error
		result, err = runLoad(gctx, logger, ctrl, stats, opts)
		return err
	})

	err = g.Wait()
	if result.ran {
		printSummary(result, stats.Snapshot(), ctrl)
	}
	return err
}

// watchLoop 消费配置变更并热更新各层级。
func watchLoop(ctx context.Context, logger *slog.Logger,
	registry *xadaptive.Registry, changes <-chan xadaptive.ConfigChange,
) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if change.Err != nil {
				logger.Warn("config reload failed", "error", change.Err)
				continue
			}
			if err := registry.ApplyTierConfigs(change.Tiers); err != nil {
				logger.Warn("tier reconfigure failed", "error", err)
				continue
			}
			logger.Info("tier configs reloaded", "tiers", registry.Tiers())
		}
	}
}

// benchResult 一轮负载的落定结果
type benchResult struct {
	ran       bool
	succeeded int
	failed    int
	elapsed   time.Duration
	batchErr  error
}

// runLoad 合成条目并跑完整条流水线：限流 → 重试 → 批调度。
func runLoad(ctx context.Context, logger *slog.Logger,
	ctrl *xadaptive.Controller, stats *xstats.Aggregator, opts benchOptions,
) (benchResult, error) {
	items := synthesizeItems(opts)

	retryer := xretry.NewRetryer(
		xretry.WithMaxAttempts(3),
		xretry.WithBaseDelay(5*time.Millisecond),
		xretry.WithStats(stats),
	)

	// 限流 → 熔断：批内条目先过层级限流，再经熔断器观察失败压力
	var exec xbatch.Executor = ctrl
	if opts.breakerThreshold > 0 {
		breaker := xbreaker.NewBreaker(opts.tier,
			xbreaker.WithTripPolicy(xbreaker.NewConsecutiveFailures(uint32(opts.breakerThreshold))), //nolint:gosec // validate() 已拒绝负值
			xbreaker.WithBreakerLogger(logger),
		)
		exec = xbatch.ExecutorFunc(func(ctx context.Context, op func(context.Context) error) error {
			return breaker.Do(ctx, func(ctx context.Context) error {
				return ctrl.Execute(ctx, op)
			})
		})
	}

	schedOpts := []xbatch.Option{
		xbatch.WithExecutor(exec),
		xbatch.WithRetryer(retryer),
		xbatch.WithLogger(logger),
	}
	if opts.concurrency > 0 {
		schedOpts = append(schedOpts, xbatch.WithConcurrency(opts.concurrency))
	}
	scheduler, err := xbatch.New(schedOpts...)
	if err != nil {
		return benchResult{}, err
	}

	cfg := xbatch.Config{BatchSize: opts.batchSize}

	start := time.Now()
	settled, batchErr := xbatch.Process(ctx, scheduler, items, executeItem, cfg,
		func(snap xbatch.ProgressSnapshot) {
			fmt.Printf("[%s] %d/%d %s\n",
				snap.Stage, snap.Completed, snap.Total, snap.CurrentLabel)
		})

	result := benchResult{
		ran:      true,
		elapsed:  time.Since(start),
		batchErr: batchErr,
	}
	for _, s := range settled {
		if s.Err != nil {
			result.failed++
		} else {
			result.succeeded++
		}
	}
	// 条目级失败只体现在 settled 里；batchErr 仅在取消时非空
	return result, batchErr
}

// synthesizeItems 按失败率为每个条目预先抽签。
// 失败配额内偶数位是瞬态失败（重试可恢复），奇数位是永久失败。
func synthesizeItems(opts benchOptions) []workItem {
	rng := rand.New(rand.NewPCG(uint64(effectiveSeed(opts.seed)), 0)) //nolint:gosec // 合成负载无需加密随机

	items := make([]workItem, opts.items)
	failSeen := 0
	for i := range items {
		o := outcomeOK
		if rng.Float64() < opts.failRate {
			if failSeen%2 == 0 {
				o = outcomeFlaky
			} else {
				o = outcomeFatal
			}
			failSeen++
		}
		items[i] = workItem{id: i, outcome: o, attempts: new(atomic.Int32)}
	}
	return items
}

// executeItem 模拟一次远程调用，返回耗时。
func executeItem(ctx context.Context, item workItem) (time.Duration, error) {
	start := time.Now()
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(time.Millisecond):
	}

	switch item.outcome {
	case outcomeFlaky:
		if item.attempts.Add(1) == 1 {
			return 0, xretry.NewRetryableError(errors.New("simulated transient failure"))
		}
		return time.Since(start), nil
	case outcomeFatal:
		return 0, xretry.NewFatalError(errors.New("simulated permanent failure"))
	default:
		return time.Since(start), nil
	}
}

// printSummary 输出人类可读的最终统计。
func printSummary(result benchResult, snap xstats.Snapshot, ctrl *xadaptive.Controller) {
	fmt.Println("---")
	fmt.Printf("succeeded=%d failed=%d elapsed=%s\n",
		result.succeeded, result.failed, result.elapsed.Round(time.Millisecond))
	if result.batchErr != nil {
		fmt.Printf("run ended early: %v\n", result.batchErr)
	}
	fmt.Printf("stats: processed=%d queued=%d rejected=%d retried=%d avg_latency=%s\n",
		snap.Processed, snap.Queued, snap.Rejected, snap.Retried,
		snap.AvgLatency.Round(time.Microsecond))
	cfg := ctrl.Config()
	fmt.Printf("tier %q: rate=%.1f/s burst=%d (original rate=%.1f/s)\n",
		ctrl.Name(), cfg.RequestsPerSecond, cfg.BurstLimit,
		ctrl.Original().RequestsPerSecond)
}
