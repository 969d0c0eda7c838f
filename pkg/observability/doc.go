// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xstats: 执行统计聚合（吞吐、排队、拒绝、重试、平均延迟）
//   - xrotate: 日志文件轮转
//
// 设计原则：
//   - 基于 log/slog 与 OpenTelemetry metric API
//   - 统计快照为不可变值对象，读取不阻塞记录路径
package observability
