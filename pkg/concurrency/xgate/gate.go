package xgate

import (
	"container/list"
	"context"
	"sync"
)

// Gate 计数并发闸门
//
// 不变量：0 <= available <= max；等待者按 Acquire 调用顺序被唤醒（严格 FIFO）。
// 所有字段由 mu 保护，临界区内不做任何阻塞操作。
type Gate struct {
	mu        sync.Mutex
	max       int
	available int
	waiters   list.List // 元素类型为 chan struct{}，容量 1
}

// New 创建并发闸门
// maxPermits 必须 >= 1，否则返回 ErrInvalidPermits。
func New(maxPermits int) (*Gate, error) {
	if maxPermits < 1 {
		return nil, ErrInvalidPermits
	}
	return &Gate{
		max:       maxPermits,
		available: maxPermits,
	}, nil
}

// Acquire 获取一个许可，无可用许可时挂起直到被唤醒或 ctx 取消。
//
// 返回 nil 表示成功获取，调用方必须保证恰好一次 Release。
// ctx 取消返回 ctx.Err()，此时不持有许可、无需 Release。
func (g *Gate) Acquire(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	// 快路径前先检查取消，保证已取消的 ctx 永不获得许可
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	if g.available > 0 && g.waiters.Len() == 0 {
		g.available--
		g.mu.Unlock()
		return nil
	}

	// 入队等待；ready 容量为 1，Release 投递许可时不会阻塞
	ready := make(chan struct{}, 1)
	elem := g.waiters.PushBack(ready)
	g.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		g.mu.Lock()
		select {
		case <-ready:
			// 取消与唤醒竞争：许可已经转移给我们，归还并让给下一位
			g.mu.Unlock()
			g.Release()
		default:
			g.waiters.Remove(elem)
			g.mu.Unlock()
		}
		return ctx.Err()
	}
}

// TryAcquire 非阻塞获取许可
// 有等待者时直接返回 false，保证 FIFO 不被插队。
func (g *Gate) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.available > 0 && g.waiters.Len() == 0 {
		g.available--
		return true
	}
	return false
}

// Release 归还一个许可，唤醒等待最久的获取者（若有）。
//
// 没有匹配 Acquire 的 Release 会 panic，这是调用方的配对错误。
func (g *Gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if front := g.waiters.Front(); front != nil {
		// 许可直接转移给队首等待者，available 不变
		g.waiters.Remove(front)
		ready, ok := front.Value.(chan struct{})
		if ok {
			ready <- struct{}{}
		}
		return
	}

	if g.available >= g.max {
		panic("xgate: release without matching acquire")
	}
	g.available++
}

// Do 在闸门保护下执行 fn，保证所有退出路径（成功、失败、panic）都归还许可。
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx == nil {
		return ErrNilContext
	}
	if fn == nil {
		return ErrNilFunc
	}
	if err := g.Acquire(ctx); err != nil {
		return err
	}
	defer g.Release()
	return fn(ctx)
}

// Available 返回当前可用许可数
func (g *Gate) Available() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.available
}

// Capacity 返回许可上限
func (g *Gate) Capacity() int {
	return g.max
}

// Waiting 返回当前排队等待的获取者数量
func (g *Gate) Waiting() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waiters.Len()
}
