package xthrottle

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/flowkit/pkg/observability/xstats"
)

// options 内部配置结构
type options struct {
	name          string
	logger        *slog.Logger
	stats         *xstats.Aggregator
	meterProvider metric.MeterProvider
	metrics       *xstats.Metrics
}

// Option 配置选项函数
type Option func(*options)

func defaultOptions() *options {
	return &options{
		name: "default",
	}
}

// WithName 设置控制器名称，用于日志、指标和错误信息中区分多个实例
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger 设置日志记录器。传入 nil 将被忽略。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStats 设置统计聚合器
// 完成、入队、拒绝事件会累积到该聚合器。
func WithStats(stats *xstats.Aggregator) Option {
	return func(o *options) {
		o.stats = stats
	}
}

// WithMeterProvider 设置 OpenTelemetry MeterProvider
// 用于收集 Counter/Histogram 类型的指标。不设置则不收集。
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}
