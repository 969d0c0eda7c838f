//nolint:errcheck // 测试代码中 defer 调用忽略 Shutdown 错误
package xstats

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewMetrics(t *testing.T) {
	t.Run("nil meter provider returns nil", func(t *testing.T) {
		m, err := NewMetrics(nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if m != nil {
			t.Error("expected nil metrics")
		}
	})

	t.Run("valid meter provider creates metrics", func(t *testing.T) {
		reader := metric.NewManualReader()
		provider := metric.NewMeterProvider(metric.WithReader(reader))
		defer func() { _ = provider.Shutdown(context.Background()) }()

		m, err := NewMetrics(provider)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if m == nil {
			t.Error("expected metrics to be created")
		}
	})
}

// collectNames 收集当前已记录的指标名称集合
func collectNames(t *testing.T, reader *metric.ManualReader) map[string]bool {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	names := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	return names
}

func TestMetrics_Record(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	m, err := NewMetrics(provider)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	ctx := context.Background()

	m.RecordProcessed(ctx, "inference", true, 50*time.Millisecond)
	m.RecordQueued(ctx, "inference")
	m.RecordRejected(ctx, "source-control")
	m.RecordRetried(ctx, "inference")

	names := collectNames(t, reader)
	for _, want := range []string{
		metricNameProcessedTotal,
		metricNameQueuedTotal,
		metricNameRejectedTotal,
		metricNameRetriedTotal,
		metricNameOperationDuration,
	} {
		if !names[want] {
			t.Errorf("expected metric %q to be recorded", want)
		}
	}
}

func TestMetrics_NilReceiverSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	// nil 接收者不应 panic
	m.RecordProcessed(ctx, "tier", false, time.Second)
	m.RecordQueued(ctx, "tier")
	m.RecordRejected(ctx, "tier")
	m.RecordRetried(ctx, "tier")
}
