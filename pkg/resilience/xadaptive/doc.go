// Package xadaptive 提供自适应限流控制器与分层注册表。
//
// # 设计理念
//
// Controller 包装一个 xthrottle.Controller，构成闭环调速器：
// 观察每次执行的成败结果，按固定窗口计算错误率，错误率过高时
// 按阻尼系数收缩速率与突发容量，错误率足够低时按恢复系数逐步
// 回升。调整始终限定在 [原始配置 × 下限系数, 原始配置] 区间内，
// 既不会超出运维配置的上限，也不会坍缩到零吞吐。
//
// 调整在执行完成路径上惰性评估，不引入后台协程：
// 窗口时间未到或样本不足时只累积计数。
//
// # 结果分类
//
// 反馈环的结果分类遵循 xretry 的错误分类：
//   - nil 错误 → 成功
//   - 取消类错误（context 取消）→ 不计入任何一侧
//   - 其余错误（容量拒绝、致命、重试耗尽、可重试失败）→ 失败
//
// # 分层注册表
//
// Registry 按名称管理多个 Controller，每个层级（tier）独立限流。
// 显式对象而非全局单例，测试可以构造隔离实例。
// 配合 Provider 可从 xconf 配置文件加载各层级配置，
// 并在文件变更时在线 Reconfigure 存活的层级。
package xadaptive
