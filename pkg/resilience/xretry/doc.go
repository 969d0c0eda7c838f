// Package xretry 提供基于错误分类的重试执行能力。
//
// # 错误分类
//
// 所有错误被归入三类（Classify）：
//   - ClassRetryable：超时、限流响应、瞬时网络故障、5xx 类服务错误，按策略重试
//   - ClassFatal：鉴权失败、请求格式错误、资源不存在，立即上抛，永不重试
//   - ClassCancelled：协作式取消导致的放弃，不重试，也不计入自适应错误率
//
// 未实现 Classifier 接口的未知错误默认视为可重试。
// 实现 RetryAfterHinter 的错误可携带服务端建议的重试间隔，
// 该提示会覆盖计算出的退避延迟。
//
// # 退避策略
//
// 默认使用带抖动的指数退避：
//
//	delay = min(baseDelay × 2^(attempt-1) × (1 ± jitter), maxDelay)
//
// # 使用方式
//
//	retryer := xretry.NewRetryer(
//	    xretry.WithMaxAttempts(3),
//	    xretry.WithBaseDelay(100*time.Millisecond),
//	)
//	err := retryer.Do(ctx, func(ctx context.Context) error {
//	    return callService(ctx)
//	})
//
// 重试耗尽后返回 *ExhaustedError 包装的最后一个错误；
// 中间失败不会作为独立错误暴露给调用方。
//
// 底层使用 [avast/retry-go/v5] 实现重试循环。
//
// [avast/retry-go/v5]: https://github.com/avast/retry-go
package xretry
