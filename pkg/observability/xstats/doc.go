// Package xstats 提供调度子系统的统计聚合能力。
//
// Aggregator 累积四类计数（processed/queued/rejected/retried）和平均延迟，
// 供限流器、批处理调度器和自适应控制器共享使用：
//   - 限流层在每次完成/入队/拒绝时记录
//   - 重试层在每次重试时记录
//   - 自适应控制器读取快照作为反馈信号的补充观测
//
// # 并发语义
//
// 所有 Record* 方法可从任意 goroutine 并发调用；计数单调不减，
// 只有显式调用 Reset() 才会清零。Snapshot() 返回不可变的值对象。
//
// # 指标导出
//
// Metrics 将计数桥接到 OpenTelemetry（Counter + Histogram），
// 通过 NewMetrics(meterProvider) 创建，nil provider 表示不导出。
package xstats
