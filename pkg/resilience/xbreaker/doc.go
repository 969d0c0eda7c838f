// Package xbreaker 提供熔断器功能，保护系统免受级联故障影响。
//
// # 设计理念
//
// xbreaker 基于 [sony/gobreaker/v2] 实现，通过类型别名暴露底层
// 状态与统计类型，并提供 TripPolicy 抽象简化熔断策略配置。
//
// 与 xretry 的错误分类联动：
//   - 熔断器错误（BreakerError）分类为致命，重试器不会对其退避重试
//   - 取消类错误不计入失败统计，避免调用方取消被误判为下游故障
//
// # 熔断器状态
//
//   - StateClosed（关闭）：正常状态，请求正常通过
//   - StateOpen（打开）：熔断状态，请求直接失败
//   - StateHalfOpen（半开）：探测状态，允许部分请求通过
//
// # 与限流器的关系
//
// 限流器（xthrottle/xadaptive）约束请求的节奏，熔断器约束请求的
// 命运：下游持续故障时快速失败，避免把配额浪费在注定失败的请求上。
// 两者可以叠加使用，典型顺序为 限流 → 熔断 → 重试。
//
// [sony/gobreaker/v2]: https://github.com/sony/gobreaker
package xbreaker
