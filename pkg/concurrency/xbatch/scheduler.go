package xbatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omeyang/flowkit/pkg/concurrency/xgate"
)

// Scheduler 批处理调度器
//
// 无状态的可复用对象：一次 Process 调用构成一个作业，
// 作业间不共享任何可变状态，同一调度器可被并发使用。
type Scheduler struct {
	opts *options
}

// New 创建批处理调度器
func New(opts ...Option) (*Scheduler, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.gate == nil && o.concurrency > 0 {
		g, err := xgate.New(o.concurrency)
		if err != nil {
			return nil, err
		}
		o.gate = g
	}

	return &Scheduler{opts: o}, nil
}

// resolve 返回条目应使用的执行器，可能为 nil
func (s *Scheduler) resolve(label string) Executor {
	if s.opts.resolver != nil {
		if e := s.opts.resolver(label); e != nil {
			return e
		}
	}
	return s.opts.executor
}

// Process 分批并发处理工作项
//
// items 切分为连续的 cfg.BatchSize 大小的批次（末批允许不足），
// 批间严格串行，批内条目并发落定。空输入立即返回空结果集和一个
// completed 快照。返回的 Settled 序列按输入顺序排列，只包含实际
// 尝试过的条目；条目错误不会中止整体执行。
//
// 取消在批次边界与批间延迟处检查：返回已落定的部分结果与
// context 错误，并发出 cancelled 快照。
//
// 这是泛型函数，必须作为包级函数使用。
func Process[T, R any](
	ctx context.Context,
	s *Scheduler,
	items []T,
	op func(ctx context.Context, item T) (R, error),
	cfg Config,
	onProgress func(ProgressSnapshot),
) ([]Settled[R], error) {
	if s == nil {
		return nil, ErrNilScheduler
	}
	if ctx == nil {
		return nil, ErrNilContext
	}
	if op == nil {
		return nil, ErrNilOperation
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	total := len(items)

	emit := func(snap ProgressSnapshot) {
		if onProgress != nil {
			onProgress(snap)
		}
	}

	emit(ProgressSnapshot{JobID: jobID, Total: total, Stage: StageInitializing})

	if total == 0 {
		emit(ProgressSnapshot{JobID: jobID, Total: 0, Stage: StageCompleted})
		return []Settled[R]{}, nil
	}

	if s.opts.logger != nil {
		s.opts.logger.Info("batch job started",
			"job", jobID, "items", total, "batch_size", cfg.BatchSize)
	}

	settled := make([]Settled[R], 0, total)
	var errs []error
	completed := 0

	for start := 0; start < total; start += cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			if s.opts.logger != nil {
				s.opts.logger.Info("batch job cancelled",
					"job", jobID, "completed", completed, "total", total)
			}
			emit(ProgressSnapshot{
				JobID: jobID, Completed: completed, Total: total,
				Stage: StageCancelled, Errs: snapshotErrs(errs),
			})
			return settled, err
		}

		end := min(start+cfg.BatchSize, total)
		group := items[start:end]
		currentLabel := labelOf(group[0], start)

		emit(ProgressSnapshot{
			JobID: jobID, Completed: completed, Total: total,
			CurrentLabel: currentLabel, Stage: StageRunning, Errs: snapshotErrs(errs),
		})

		// 批内并发落定：一个条目的失败不中止兄弟条目
		results := make([]Settled[R], len(group))
		var wg sync.WaitGroup
		for i := range group {
			wg.Add(1)
			go func(offset int, item T) {
				defer wg.Done()
				index := start + offset
				label := labelOf(item, index)
				value, err := runItem(ctx, s, item, label, op)
				results[offset] = Settled[R]{Index: index, Label: label, Value: value, Err: err}
			}(i, group[i])
		}
		wg.Wait()

		for _, r := range results {
			settled = append(settled, r)
			if r.Err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", r.Label, r.Err))
			}
		}
		completed += len(group)

		emit(ProgressSnapshot{
			JobID: jobID, Completed: completed, Total: total,
			CurrentLabel: currentLabel, Stage: StageRunning, Errs: snapshotErrs(errs),
		})

		if end < total && cfg.InterBatchDelay > 0 {
			select {
			case <-ctx.Done():
				// 延迟期间的取消交由下一轮边界检查统一处理
			case <-time.After(cfg.InterBatchDelay):
			}
		}
	}

	stage := StageCompleted
	if len(errs) > 0 {
		stage = StageError
	}
	if s.opts.logger != nil {
		s.opts.logger.Info("batch job finished",
			"job", jobID, "completed", completed, "errors", len(errs))
	}
	emit(ProgressSnapshot{
		JobID: jobID, Completed: completed, Total: total,
		Stage: stage, Errs: snapshotErrs(errs),
	})
	return settled, nil
}

// runItem 执行单个条目的完整管线：并发门 → 重试器 → 执行器 → 操作
func runItem[T, R any](
	ctx context.Context,
	s *Scheduler,
	item T,
	label string,
	op func(ctx context.Context, item T) (R, error),
) (R, error) {
	var result R

	execute := func(ctx context.Context) error {
		r, err := op(ctx, item)
		if err != nil {
			return err
		}
		result = r
		return nil
	}

	if exec := s.resolve(label); exec != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return exec.Execute(ctx, inner)
		}
	}
	if s.opts.retryer != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return s.opts.retryer.Do(ctx, inner)
		}
	}
	if s.opts.gate != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return s.opts.gate.Do(ctx, inner)
		}
	}

	return result, execute(ctx)
}
