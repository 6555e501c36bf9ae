package gcsrequest

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noSleep(ctx context.Context, d time.Duration) {}

func TestDoSucceedsImmediately(t *testing.T) {
	calls := 0
	err := Do(context.Background(), RetryConfig{InitDelay: time.Millisecond, MaxRetries: 3}, noSleep,
		func(n int) (Kind, error) {
			calls++
			return KindOK, nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoRetriesRetryableThenSucceeds(t *testing.T) {
	calls := 0
	err := Do(context.Background(), RetryConfig{InitDelay: time.Millisecond, MaxRetries: 5}, noSleep,
		func(n int) (Kind, error) {
			calls++
			if n < 3 {
				return KindUnavailable, errors.New("boom")
			}
			return KindOK, nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := Do(context.Background(), RetryConfig{InitDelay: time.Millisecond, MaxRetries: 5}, noSleep,
		func(n int) (Kind, error) {
			calls++
			return KindNotFound, errors.New("nope")
		})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (non-retryable stops immediately)", calls)
	}
	var aborted *AbortedError
	if errors.As(err, &aborted) {
		t.Fatal("non-retryable terminal error should not be AbortedError")
	}
}

func TestDoExhaustsRetriesReturnsAborted(t *testing.T) {
	calls := 0
	err := Do(context.Background(), RetryConfig{InitDelay: time.Millisecond, MaxRetries: 4}, noSleep,
		func(n int) (Kind, error) {
			calls++
			return KindUnavailable, errors.New("still down")
		})
	if err == nil {
		t.Fatal("expected error")
	}
	var aborted *AbortedError
	if !errors.As(err, &aborted) {
		t.Fatalf("expected *AbortedError, got %T: %v", err, err)
	}
	if aborted.Attempts != 4 {
		t.Errorf("Attempts = %d, want 4", aborted.Attempts)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
}
