package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryRetriesOnlyRetryable(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		return &RetryableError{Err: errors.New("transient")}
	})
	if err == nil {
		t.Fatal("expected final error")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}

	calls = 0
	permanent := errors.New("bad request")
	err = Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Errorf("err = %v", err)
	}
	if calls != 1 {
		t.Errorf("permanent errors must not retry, calls = %d", calls)
	}
}

func TestRetrySucceedsMidway(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return &RetryableError{Err: errors.New("transient")}
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 5, time.Minute, func() error {
		return &RetryableError{Err: errors.New("transient")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(&RetryableError{Err: errors.New("x")}) {
		t.Error("direct retryable not recognised")
	}
	if IsRetryable(errors.New("x")) {
		t.Error("plain error misclassified")
	}
}
