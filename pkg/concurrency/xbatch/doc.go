// Package xbatch 提供分批并发调度能力。
//
// # 设计理念
//
// Scheduler 将一组工作项切分为固定大小的批次，批与批之间严格
// 串行（批 N+1 在批 N 的全部条目落定前不会开始），批内条目并发
// 执行，由 xgate 约束在飞数量。条目的执行管线按需叠加：
//
//	并发门 → 重试器 → 执行器（限流控制器）→ 操作
//
// # 落定语义
//
// 批内任一条目的失败不会中止兄弟条目；每个条目各自落定
//（成功或失败），结果以 Settled 值收集，错误汇入快照的错误列表
// 而不作为整体错误抛出，成败框架由调用方最终裁定。
//
// # 取消
//
// 取消是协作式的：批次边界与批间延迟处检查 context；
// 已派发的条目允许自然落定并保留在结果集中，未尝试的条目
// 不计入 completed，也不出现在结果或错误集合中。
//
// # 进度
//
// 每次状态变化向观察者发送一个不可变的 ProgressSnapshot 值，
// 任意两个快照不共享可变存储。作业以 uuid 标识，便于日志关联。
package xbatch
