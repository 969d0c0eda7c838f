package xadaptive

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/flowkit/pkg/observability/xstats"
)

// options 内部配置结构
type options struct {
	name          string
	tuning        Tuning
	logger        *slog.Logger
	stats         *xstats.Aggregator
	meterProvider metric.MeterProvider
}

// Option 配置选项函数
type Option func(*options)

func defaultOptions() *options {
	return &options{
		name:   "default",
		tuning: DefaultTuning(),
	}
}

// WithName 设置控制器名称，透传给底层 xthrottle 控制器
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithTuning 设置自适应调参配置，默认为 DefaultTuning
func WithTuning(t Tuning) Option {
	return func(o *options) {
		o.tuning = t
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

// WithStats 设置统计聚合器，透传给底层 xthrottle 控制器
func WithStats(stats *xstats.Aggregator) Option {
	return func(o *options) {
		o.stats = stats
	}
}

// WithMeterProvider 设置 OpenTelemetry MeterProvider，透传给底层控制器
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}
