package xstats

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot 统计快照
//
// 不可变值对象，由 Aggregator.Snapshot() 产生。
type Snapshot struct {
	// Processed 已完成的操作数（含失败完成）
	Processed int64
	// Queued 进入等待队列的操作数
	Queued int64
	// Rejected 因队列饱和被拒绝的操作数
	Rejected int64
	// Retried 重试次数（不含首次尝试）
	Retried int64
	// AvgLatency 完成操作的平均延迟
	AvgLatency time.Duration
}

// Aggregator 统计聚合器
//
// 计数器使用原子操作，延迟累积使用互斥锁保护，
// 保证多 goroutine 并发记录时快照的一致性。
type Aggregator struct {
	processed atomic.Int64
	queued    atomic.Int64
	rejected  atomic.Int64
	retried   atomic.Int64

	// 延迟累积需要 total/count 两个字段同时更新，单独用锁保护
	mu           sync.Mutex
	totalLatency time.Duration
	latencyCount int64
}

// New 创建统计聚合器
func New() *Aggregator {
	return &Aggregator{}
}

// RecordProcessed 记录一次操作完成及其延迟
// latency 为负时按 0 处理。
func (a *Aggregator) RecordProcessed(latency time.Duration) {
	if a == nil {
		return
	}
	if latency < 0 {
		latency = 0
	}
	a.processed.Add(1)

	a.mu.Lock()
	a.totalLatency += latency
	a.latencyCount++
	a.mu.Unlock()
}

// RecordQueued 记录一次入队等待
func (a *Aggregator) RecordQueued() {
	if a == nil {
		return
	}
	a.queued.Add(1)
}

// RecordRejected 记录一次容量拒绝
func (a *Aggregator) RecordRejected() {
	if a == nil {
		return
	}
	a.rejected.Add(1)
}

// RecordRetried 记录一次重试
func (a *Aggregator) RecordRetried() {
	if a == nil {
		return
	}
	a.retried.Add(1)
}

// Snapshot 返回当前统计快照
func (a *Aggregator) Snapshot() Snapshot {
	if a == nil {
		return Snapshot{}
	}

	a.mu.Lock()
	var avg time.Duration
	if a.latencyCount > 0 {
		avg = a.totalLatency / time.Duration(a.latencyCount)
	}
	a.mu.Unlock()

	return Snapshot{
		Processed:  a.processed.Load(),
		Queued:     a.queued.Load(),
		Rejected:   a.rejected.Load(),
		Retried:    a.retried.Load(),
		AvgLatency: avg,
	}
}

// Reset 清零所有计数
//
// 这是唯一会使计数下降的操作，仅由调用方显式触发。
func (a *Aggregator) Reset() {
	if a == nil {
		return
	}
	a.processed.Store(0)
	a.queued.Store(0)
	a.rejected.Store(0)
	a.retried.Store(0)

	a.mu.Lock()
	a.totalLatency = 0
	a.latencyCount = 0
	a.mu.Unlock()
}
