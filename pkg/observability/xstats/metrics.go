package xstats

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 指标名称常量
const (
	// metricNameProcessedTotal 完成操作计数器
	metricNameProcessedTotal = "flowkit.processed.total"
	// metricNameQueuedTotal 入队等待计数器
	metricNameQueuedTotal = "flowkit.queued.total"
	// metricNameRejectedTotal 容量拒绝计数器
	metricNameRejectedTotal = "flowkit.rejected.total"
	// metricNameRetriedTotal 重试计数器
	metricNameRetriedTotal = "flowkit.retried.total"
	// metricNameOperationDuration 操作耗时直方图
	metricNameOperationDuration = "flowkit.operation.duration"
)

// Metrics 调度指标收集器
//
// 将 Aggregator 的各类事件桥接到 OpenTelemetry。
// 所有 Record* 方法对 nil 接收者安全，便于在未启用指标时直接透传。
type Metrics struct {
	processedTotal    metric.Int64Counter
	queuedTotal       metric.Int64Counter
	rejectedTotal     metric.Int64Counter
	retriedTotal      metric.Int64Counter
	operationDuration metric.Float64Histogram
}

// NewMetrics 创建指标收集器
// 如果 meterProvider 为 nil，返回 nil（不收集指标）
func NewMetrics(meterProvider metric.MeterProvider) (*Metrics, error) {
	if meterProvider == nil {
		return nil, nil
	}

	meter := meterProvider.Meter("flowkit",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	processedTotal, err := meter.Int64Counter(
		metricNameProcessedTotal,
		metric.WithDescription("完成的操作总数"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	queuedTotal, err := meter.Int64Counter(
		metricNameQueuedTotal,
		metric.WithDescription("进入等待队列的操作数"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	rejectedTotal, err := meter.Int64Counter(
		metricNameRejectedTotal,
		metric.WithDescription("因队列饱和被拒绝的操作数"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	retriedTotal, err := meter.Int64Counter(
		metricNameRetriedTotal,
		metric.WithDescription("重试次数"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram(
		metricNameOperationDuration,
		metric.WithDescription("操作完成耗时"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0, 30.0,
		),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		processedTotal:    processedTotal,
		queuedTotal:       queuedTotal,
		rejectedTotal:     rejectedTotal,
		retriedTotal:      retriedTotal,
		operationDuration: operationDuration,
	}, nil
}

// RecordProcessed 记录一次操作完成
func (m *Metrics) RecordProcessed(ctx context.Context, tier string, success bool, latency time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("tier", tier),
		attribute.Bool("success", success),
	)
	m.processedTotal.Add(ctx, 1, attrs)
	m.operationDuration.Record(ctx, latency.Seconds(), attrs)
}

// RecordQueued 记录一次入队等待
func (m *Metrics) RecordQueued(ctx context.Context, tier string) {
	if m == nil {
		return
	}
	m.queuedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}

// RecordRejected 记录一次容量拒绝
func (m *Metrics) RecordRejected(ctx context.Context, tier string) {
	if m == nil {
		return
	}
	m.rejectedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}

// RecordRetried 记录一次重试
func (m *Metrics) RecordRetried(ctx context.Context, tier string) {
	if m == nil {
		return
	}
	m.retriedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}
