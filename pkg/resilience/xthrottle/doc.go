// Package xthrottle 提供基于令牌桶的出站调用准入控制。
//
// Controller 将令牌桶与有界 FIFO 等待队列组合成一个可调度单元：
//
//	controller, _ := xthrottle.New(xthrottle.Config{
//	    RequestsPerSecond: 5,
//	    BurstLimit:        5,
//	    MaxQueueDepth:     100,
//	})
//	err := controller.Execute(ctx, func(ctx context.Context) error {
//	    return callService(ctx)
//	})
//
// # 准入语义
//
//   - 有令牌且队列为空：立即放行
//   - 无令牌：按提交顺序排队等待（严格 FIFO，无优先级）
//   - 队列已满：立即返回 QueueFullError（背压信号，不等待）
//
// 令牌按 elapsed × rate 懒惰补充，仅累积整数令牌时推进时间戳，
// 桶容量（BurstLimit）限制空闲后可瞬时放行的操作数。
//
// 节奏控制只作用于准入：操作被放行后独立运行，完成与否不影响
// 后续操作的派发。
//
// # 动态调整
//
// Reconfigure 在派发锁内原子替换速率与容量，已入队的等待者不受
// 影响（新配置只作用于后续准入与派发节奏）。自适应控制器
// （xadaptive）通过此接口实施闭环调速。
//
// # 并发安全
//
// 所有方法可从任意 goroutine 并发调用。桶与队列的变更都在
// 互斥锁保护的短临界区内完成，等待者在锁外挂起。
package xthrottle
