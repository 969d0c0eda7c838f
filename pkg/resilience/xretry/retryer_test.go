package xretry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/omeyang/flowkit/pkg/observability/xstats"
)

func TestRetryer_NilGuards(t *testing.T) {
	var nilRetryer *Retryer
	if err := nilRetryer.Do(context.Background(), func(context.Context) error { return nil }); !errors.Is(err, ErrNilRetryer) {
		t.Errorf("expected ErrNilRetryer, got %v", err)
	}

	r := NewRetryer()
	if err := r.Do(nil, func(context.Context) error { return nil }); !errors.Is(err, ErrNilContext) { //nolint:staticcheck // 测试 nil ctx 防御
		t.Errorf("expected ErrNilContext, got %v", err)
	}
	if err := r.Do(context.Background(), nil); !errors.Is(err, ErrNilFunc) {
		t.Errorf("expected ErrNilFunc, got %v", err)
	}
}

func TestRetryer_SucceedsFirstAttempt(t *testing.T) {
	var calls atomic.Int32
	r := NewRetryer(WithBackoffPolicy(NewNoBackoff()))

	err := r.Do(context.Background(), func(context.Context) error {
		calls.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestRetryer_TwoFailuresThenSuccess(t *testing.T) {
	stats := xstats.New()
	var calls atomic.Int32
	var retryAttempts []int

	r := NewRetryer(
		WithMaxAttempts(3),
		WithBaseDelay(time.Millisecond),
		WithStats(stats),
		WithOnRetry(func(attempt int, _ error) {
			retryAttempts = append(retryAttempts, attempt)
		}),
	)

	result, err := DoWithResult(context.Background(), r, func(context.Context) (string, error) {
		if calls.Add(1) < 3 {
			return "", NewRetryableError(errors.New("transient"))
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if result != "ok" {
		t.Errorf("expected ok, got %q", result)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}

	// 恰好 2 次重试被记录
	if got := stats.Snapshot().Retried; got != 2 {
		t.Errorf("expected 2 retries recorded, got %d", got)
	}
	if len(retryAttempts) != 2 || retryAttempts[0] != 1 || retryAttempts[1] != 2 {
		t.Errorf("unexpected retry attempts: %v", retryAttempts)
	}
}

func TestRetryer_FatalStopsImmediately(t *testing.T) {
	var calls atomic.Int32
	r := NewRetryer(WithMaxAttempts(5), WithBackoffPolicy(NewNoBackoff()))

	fatal := NewFatalError(errors.New("401 unauthorized"))
	err := r.Do(context.Background(), func(context.Context) error {
		calls.Add(1)
		return fatal
	})

	if calls.Load() != 1 {
		t.Errorf("fatal error should not be retried, got %d calls", calls.Load())
	}
	if !errors.Is(err, fatal) {
		t.Errorf("expected fatal error propagated unmodified, got %v", err)
	}
	if IsExhausted(err) {
		t.Error("fatal error must not be tagged as exhausted")
	}
}

func TestRetryer_ExhaustionTagged(t *testing.T) {
	var calls atomic.Int32
	r := NewRetryer(WithMaxAttempts(3), WithBackoffPolicy(NewNoBackoff()))

	last := NewRetryableError(errors.New("still failing"))
	err := r.Do(context.Background(), func(context.Context) error {
		calls.Add(1)
		return last
	})

	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
	var ex *ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if ex.Attempts != 3 {
		t.Errorf("expected 3 attempts in error, got %d", ex.Attempts)
	}
	if !errors.Is(err, last) {
		t.Error("exhausted error should unwrap to the last failure")
	}
	// 耗尽后分类为 fatal，外层不会再次重试
	if Classify(err) != ClassFatal {
		t.Errorf("exhausted error should classify fatal, got %v", Classify(err))
	}
}

func TestRetryer_CancelledStopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	r := NewRetryer(WithMaxAttempts(10), WithBackoffPolicy(NewFixedBackoff(10*time.Millisecond)))

	err := r.Do(ctx, func(context.Context) error {
		if calls.Add(1) == 1 {
			cancel()
		}
		return NewRetryableError(errors.New("transient"))
	})

	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if Classify(err) == ClassRetryable {
		t.Errorf("cancelled run must not surface a retryable error: %v", err)
	}
	if calls.Load() > 2 {
		t.Errorf("expected at most 2 calls after cancel, got %d", calls.Load())
	}
}

func TestRetryer_RetryAfterHintOverridesBackoff(t *testing.T) {
	var timestamps []time.Time
	r := NewRetryer(
		WithMaxAttempts(2),
		// 故意配置一个很大的退避，提示应将其覆盖为 20ms
		WithBackoffPolicy(NewFixedBackoff(5*time.Second)),
	)

	start := time.Now()
	err := r.Do(context.Background(), func(context.Context) error {
		timestamps = append(timestamps, time.Now())
		if len(timestamps) == 1 {
			return NewRateLimitedError(errors.New("429"), 20*time.Millisecond)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(timestamps) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(timestamps))
	}

	elapsed := timestamps[1].Sub(start)
	if elapsed >= time.Second {
		t.Errorf("retry-after hint not honored, waited %v", elapsed)
	}
	if elapsed < 20*time.Millisecond {
		t.Errorf("retry happened before hint elapsed: %v", elapsed)
	}
}

func TestDoWithResult_NilGuards(t *testing.T) {
	if _, err := DoWithResult[int](context.Background(), nil, func(context.Context) (int, error) { return 0, nil }); !errors.Is(err, ErrNilRetryer) {
		t.Errorf("expected ErrNilRetryer, got %v", err)
	}

	r := NewRetryer()
	if _, err := DoWithResult[int](context.Background(), r, nil); !errors.Is(err, ErrNilFunc) {
		t.Errorf("expected ErrNilFunc, got %v", err)
	}
}
