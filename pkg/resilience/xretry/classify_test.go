package xretry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Classification
	}{
		{"nil error", nil, ClassRetryable},
		{"unknown error defaults to retryable", errors.New("boom"), ClassRetryable},
		{"context canceled", context.Canceled, ClassCancelled},
		{"wrapped context canceled", fmt.Errorf("op: %w", context.Canceled), ClassCancelled},
		{"deadline exceeded is retryable", context.DeadlineExceeded, ClassRetryable},
		{"explicit retryable", NewRetryableError(errors.New("503")), ClassRetryable},
		{"explicit fatal", NewFatalError(errors.New("401")), ClassFatal},
		{"wrapped fatal", fmt.Errorf("call: %w", NewFatalError(errors.New("404"))), ClassFatal},
		{"explicit cancelled", NewCancelledError(nil), ClassCancelled},
		{"network error", &net.OpError{Op: "dial", Err: errors.New("refused")}, ClassRetryable},
		{"dns error", &net.DNSError{Err: "timeout", IsTimeout: true}, ClassRetryable},
		{"exhausted is fatal", &ExhaustedError{Attempts: 3, Err: errors.New("x")}, ClassFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassificationString(t *testing.T) {
	if ClassRetryable.String() != "retryable" {
		t.Errorf("unexpected: %s", ClassRetryable)
	}
	if ClassFatal.String() != "fatal" {
		t.Errorf("unexpected: %s", ClassFatal)
	}
	if ClassCancelled.String() != "cancelled" {
		t.Errorf("unexpected: %s", ClassCancelled)
	}
	if Classification(42).String() != "Classification(42)" {
		t.Errorf("unexpected: %s", Classification(42))
	}
}

func TestPredicates(t *testing.T) {
	if IsRetryable(nil) || IsFatal(nil) || IsCancelled(nil) {
		t.Error("nil error should match no predicate")
	}
	if !IsRetryable(errors.New("unknown")) {
		t.Error("unknown error should be retryable")
	}
	if !IsFatal(NewFatalError(errors.New("auth"))) {
		t.Error("fatal error should be fatal")
	}
	if !IsCancelled(context.Canceled) {
		t.Error("context.Canceled should be cancelled")
	}
}

func TestRetryAfterHint(t *testing.T) {
	t.Run("no hint", func(t *testing.T) {
		if _, ok := RetryAfterHint(errors.New("plain")); ok {
			t.Error("expected no hint")
		}
		if _, ok := RetryAfterHint(nil); ok {
			t.Error("expected no hint for nil")
		}
		if _, ok := RetryAfterHint(NewRetryableError(errors.New("x"))); ok {
			t.Error("expected no hint for zero-hint retryable")
		}
	})

	t.Run("with hint", func(t *testing.T) {
		err := NewRateLimitedError(errors.New("429"), 2*time.Second)
		d, ok := RetryAfterHint(err)
		if !ok || d != 2*time.Second {
			t.Errorf("expected 2s hint, got %v ok=%v", d, ok)
		}
	})

	t.Run("wrapped hint", func(t *testing.T) {
		err := fmt.Errorf("call: %w", NewRateLimitedError(errors.New("429"), time.Second))
		d, ok := RetryAfterHint(err)
		if !ok || d != time.Second {
			t.Errorf("expected 1s hint through wrapping, got %v ok=%v", d, ok)
		}
	})

	t.Run("negative hint clamped", func(t *testing.T) {
		err := NewRateLimitedError(errors.New("429"), -time.Second)
		if _, ok := RetryAfterHint(err); ok {
			t.Error("clamped zero hint should report no hint")
		}
	})
}

func TestErrorWrappers_Unwrap(t *testing.T) {
	base := errors.New("base")

	if !errors.Is(NewRetryableError(base), base) {
		t.Error("RetryableError should unwrap to base")
	}
	if !errors.Is(NewFatalError(base), base) {
		t.Error("FatalError should unwrap to base")
	}
	if !errors.Is(&ExhaustedError{Attempts: 1, Err: base}, base) {
		t.Error("ExhaustedError should unwrap to base")
	}
}

func TestErrorWrappers_NilInner(t *testing.T) {
	if NewRetryableError(nil).Error() != "retryable error" {
		t.Error("unexpected message for nil inner")
	}
	if NewFatalError(nil).Error() != "fatal error" {
		t.Error("unexpected message for nil inner")
	}
	if NewCancelledError(nil).Error() != "operation cancelled" {
		t.Error("unexpected message for nil inner")
	}
}

func TestIsExhausted(t *testing.T) {
	base := errors.New("last failure")
	err := fmt.Errorf("item 3: %w", &ExhaustedError{Attempts: 3, Err: base})

	if !IsExhausted(err) {
		t.Error("expected exhausted through wrapping")
	}
	if IsExhausted(base) {
		t.Error("plain error is not exhausted")
	}
}
