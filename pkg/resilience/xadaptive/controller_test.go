package xadaptive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/omeyang/flowkit/pkg/resilience/xthrottle"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errUpstream = errors.New("upstream failure")

// fastTuning 缩短评估窗口，便于测试驱动多轮调整
func fastTuning() Tuning {
	t := DefaultTuning()
	t.AdjustmentInterval = time.Millisecond
	t.MinSamples = 2
	return t
}

func succeed(context.Context) error { return nil }
func fail(context.Context) error    { return errUpstream }

// driveWindow 等待窗口到期后注入 n 次结果。
// n 等于 MinSamples 时恰好在最后一个样本上触发一次评估。
func driveWindow(t *testing.T, a *Controller, n int, op func(context.Context) error) {
	t.Helper()
	time.Sleep(3 * time.Millisecond)
	for i := 0; i < n; i++ {
		_ = a.Execute(context.Background(), op) //nolint:errcheck // 注入样本
	}
}

func TestNew(t *testing.T) {
	t.Run("invalid tuning", func(t *testing.T) {
		_, err := New(xthrottle.DefaultConfig(), WithTuning(Tuning{}))
		assert.ErrorIs(t, err, ErrInvalidTuning)
	})

	t.Run("invalid throttle config", func(t *testing.T) {
		_, err := New(xthrottle.Config{RequestsPerSecond: -1, BurstLimit: 1})
		assert.ErrorIs(t, err, xthrottle.ErrInvalidConfig)
	})

	t.Run("defaults", func(t *testing.T) {
		a, err := New(xthrottle.DefaultConfig(), WithName("inference"))
		require.NoError(t, err)
		defer func() { _ = a.Close() }() //nolint:errcheck // defer cleanup

		assert.Equal(t, "inference", a.Name())
		assert.Equal(t, DefaultTuning(), a.Tuning())
		assert.Equal(t, xthrottle.DefaultConfig(), a.Config())
	})
}

func TestController_DampingOnHighErrorRate(t *testing.T) {
	original := xthrottle.Config{RequestsPerSecond: 100, BurstLimit: 10, MaxQueueDepth: 100}
	a, err := New(original, WithTuning(fastTuning()))
	require.NoError(t, err)
	defer func() { _ = a.Close() }() //nolint:errcheck // defer cleanup

	driveWindow(t, a, 2, fail)

	got := a.Config()
	assert.InDelta(t, 80.0, got.RequestsPerSecond, 1e-9)
	assert.Equal(t, 8, got.BurstLimit)
	// 原始上限不随调整漂移
	assert.Equal(t, original, a.Original())
}

func TestController_NeverBelowFloor(t *testing.T) {
	tuning := fastTuning()
	tuning.MinFactor = 0.5
	tuning.DampingFactor = 0.5

	original := xthrottle.Config{RequestsPerSecond: 100, BurstLimit: 8, MaxQueueDepth: 100}
	a, err := New(original, WithTuning(tuning))
	require.NoError(t, err)
	defer func() { _ = a.Close() }() //nolint:errcheck // defer cleanup

	// 多轮高错误率窗口，速率与容量收敛到下限后不再下降
	for i := 0; i < 4; i++ {
		driveWindow(t, a, 2, fail)
	}

	got := a.Config()
	assert.InDelta(t, 50.0, got.RequestsPerSecond, 1e-9)
	assert.Equal(t, 4, got.BurstLimit)
}

func TestController_BurstFloorIsOne(t *testing.T) {
	tuning := fastTuning()
	tuning.DampingFactor = 0.4

	a, err := New(xthrottle.Config{RequestsPerSecond: 1000, BurstLimit: 2, MaxQueueDepth: 100}, WithTuning(tuning))
	require.NoError(t, err)
	defer func() { _ = a.Close() }() //nolint:errcheck // defer cleanup

	for i := 0; i < 3; i++ {
		driveWindow(t, a, 2, fail)
	}

	got := a.Config()
	assert.Equal(t, 1, got.BurstLimit)
	assert.Positive(t, got.RequestsPerSecond)
}

func TestController_RecoveryCappedAtOriginal(t *testing.T) {
	original := xthrottle.Config{RequestsPerSecond: 100, BurstLimit: 10, MaxQueueDepth: 100}
	a, err := New(original, WithTuning(fastTuning()))
	require.NoError(t, err)
	defer func() { _ = a.Close() }() //nolint:errcheck // defer cleanup

	// 先压低
	driveWindow(t, a, 2, fail)
	damped := a.Config()
	require.Less(t, damped.RequestsPerSecond, original.RequestsPerSecond)

	// 一轮全成功窗口，严格回升
	driveWindow(t, a, 2, succeed)
	recovered := a.Config()
	assert.Greater(t, recovered.RequestsPerSecond, damped.RequestsPerSecond)

	// 持续全成功，最终回到原始上限且不越界
	for i := 0; i < 10; i++ {
		driveWindow(t, a, 2, succeed)
	}
	assert.Equal(t, original, a.Config())
}

func TestController_MidBandHoldsSteady(t *testing.T) {
	tuning := DefaultTuning()
	tuning.AdjustmentInterval = 50 * time.Millisecond
	tuning.MinSamples = 2

	a, err := New(xthrottle.Config{RequestsPerSecond: 1000, BurstLimit: 20, MaxQueueDepth: 100}, WithTuning(tuning))
	require.NoError(t, err)
	defer func() { _ = a.Close() }() //nolint:errcheck // defer cleanup

	before := a.Config()

	// 窗口内累积 10 成功 1 失败，错误率 ≈ 0.09 落在
	// (low 0.05, high 0.2) 中间带，评估后不触发调整
	for i := 0; i < 9; i++ {
		require.NoError(t, a.Execute(context.Background(), succeed))
	}
	_ = a.Execute(context.Background(), fail) //nolint:errcheck // 注入失败样本
	time.Sleep(60 * time.Millisecond)
	require.NoError(t, a.Execute(context.Background(), succeed))

	assert.Equal(t, before, a.Config())
}

func TestController_CancelledNotCounted(t *testing.T) {
	a, err := New(xthrottle.Config{RequestsPerSecond: 100, BurstLimit: 10, MaxQueueDepth: 100}, WithTuning(fastTuning()))
	require.NoError(t, err)
	defer func() { _ = a.Close() }() //nolint:errcheck // defer cleanup

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	// 取消类结果不进入反馈环，即便窗口与样本条件满足也不调整
	before := a.Config()
	time.Sleep(3 * time.Millisecond)
	for i := 0; i < 5; i++ {
		err := a.Execute(cancelled, succeed)
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, before, a.Config())
}

func TestController_InsufficientSamplesDefersWindow(t *testing.T) {
	tuning := fastTuning()
	tuning.MinSamples = 5

	a, err := New(xthrottle.Config{RequestsPerSecond: 100, BurstLimit: 10, MaxQueueDepth: 100}, WithTuning(tuning))
	require.NoError(t, err)
	defer func() { _ = a.Close() }() //nolint:errcheck // defer cleanup

	before := a.Config()
	driveWindow(t, a, 3, fail)
	assert.Equal(t, before, a.Config())
}

func TestController_Reconfigure(t *testing.T) {
	a, err := New(xthrottle.Config{RequestsPerSecond: 100, BurstLimit: 10, MaxQueueDepth: 100}, WithTuning(fastTuning()))
	require.NoError(t, err)
	defer func() { _ = a.Close() }() //nolint:errcheck // defer cleanup

	driveWindow(t, a, 2, fail)
	require.Less(t, a.Config().RequestsPerSecond, 100.0)

	// 在线替换配置后，新配置同时成为新上限
	next := xthrottle.Config{RequestsPerSecond: 50, BurstLimit: 5, MaxQueueDepth: 10}
	require.NoError(t, a.Reconfigure(next))
	assert.Equal(t, next, a.Config())
	assert.Equal(t, next, a.Original())

	t.Run("invalid config rejected", func(t *testing.T) {
		err := a.Reconfigure(xthrottle.Config{RequestsPerSecond: 0, BurstLimit: 1})
		assert.ErrorIs(t, err, xthrottle.ErrInvalidConfig)
	})
}

func TestExecuteWithResult(t *testing.T) {
	a, err := New(xthrottle.DefaultConfig())
	require.NoError(t, err)
	defer func() { _ = a.Close() }() //nolint:errcheck // defer cleanup

	got, err := ExecuteWithResult(context.Background(), a, func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	_, err = ExecuteWithResult(context.Background(), a, func(context.Context) (string, error) {
		return "", errUpstream
	})
	assert.ErrorIs(t, err, errUpstream)
}

func TestController_QueueFullCountsAsFailure(t *testing.T) {
	a, err := New(xthrottle.Config{RequestsPerSecond: 0.5, BurstLimit: 2, MaxQueueDepth: 0}, WithTuning(fastTuning()))
	require.NoError(t, err)
	defer func() { _ = a.Close() }() //nolint:errcheck // defer cleanup

	// 两个初始令牌放行并触发一次无变化评估，计数随之清零
	time.Sleep(3 * time.Millisecond)
	for i := 0; i < 2; i++ {
		require.NoError(t, a.Execute(context.Background(), succeed))
	}

	// 令牌耗尽且不排队，两次容量拒绝构成错误率 1.0 的窗口
	time.Sleep(3 * time.Millisecond)
	for i := 0; i < 2; i++ {
		err := a.Execute(context.Background(), succeed)
		require.ErrorIs(t, err, xthrottle.ErrQueueFull)
	}

	got := a.Config()
	assert.Less(t, got.RequestsPerSecond, 0.5)
	assert.Equal(t, 1, got.BurstLimit)
}
