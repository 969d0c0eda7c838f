package xthrottle

import (
	"container/list"
	"time"
)

// pendingOp 等待队列中的条目
//
// ready 容量为 1，派发方投递令牌时不会阻塞；
// seq 严格单调递增，作为 FIFO 次序的显式标识。
type pendingOp struct {
	seq        uint64
	enqueuedAt time.Time
	ready      chan struct{}
}

// queueElement 队列元素句柄，入队时返回给等待者用于取消摘除
type queueElement = list.Element

// admissionQueue 准入等待队列
//
// 严格 FIFO：只在尾部入队、头部出队。
// 与 tokenBucket 相同，由 Controller 持锁访问。
type admissionQueue struct {
	entries list.List // 元素类型为 *pendingOp
}

// push 入队并返回元素句柄（用于取消时摘除）
func (q *admissionQueue) push(op *pendingOp) *list.Element {
	return q.entries.PushBack(op)
}

// pop 弹出队首，队列为空时返回 nil
func (q *admissionQueue) pop() *pendingOp {
	front := q.entries.Front()
	if front == nil {
		return nil
	}
	q.entries.Remove(front)
	op, ok := front.Value.(*pendingOp)
	if !ok {
		return nil
	}
	return op
}

// remove 摘除指定元素（等待者取消时调用）
func (q *admissionQueue) remove(elem *list.Element) {
	q.entries.Remove(elem)
}

// len 返回当前队列深度
func (q *admissionQueue) len() int {
	return q.entries.Len()
}
