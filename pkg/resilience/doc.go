// Package resilience 提供弹性控制相关的子包。
//
// 子包列表：
//   - xthrottle: 令牌桶限流与有界等待队列
//   - xadaptive: 基于错误率反馈的自适应限流与分层注册表
//   - xretry: 错误分类驱动的重试器与退避策略
//   - xbreaker: 熔断器及其与重试器的组合
//
// 推荐的组合顺序为 限流 → 熔断 → 重试：
// 重试包裹熔断，熔断开启产生的错误被分类为致命，立即终止剩余重试。
package resilience
