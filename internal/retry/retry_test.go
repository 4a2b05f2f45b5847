package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
)

func testConfig() Config {
	return Config{
		MaxAttempts:       3,
		BaseDelay:         time.Millisecond,
		MaxDelay:          10 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestComputeDelay_NonDecreasingAndCapped(t *testing.T) {
	config := Config{
		BaseDelay:         2 * time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
	}

	var prev time.Duration
	for attempt := 1; attempt <= 10; attempt++ {
		delay := ComputeDelay(attempt, config)
		if delay < prev {
			t.Errorf("delay decreased at attempt %d: %v < %v", attempt, delay, prev)
		}
		if delay > config.MaxDelay {
			t.Errorf("delay %v exceeds cap %v at attempt %d", delay, config.MaxDelay, attempt)
		}
		prev = delay
	}

	if got := ComputeDelay(1, config); got != 2*time.Second {
		t.Errorf("first delay = %v, want 2s", got)
	}
	if got := ComputeDelay(2, config); got != 4*time.Second {
		t.Errorf("second delay = %v, want 4s", got)
	}
	if got := ComputeDelay(6, config); got != 30*time.Second {
		t.Errorf("sixth delay = %v, want cap 30s", got)
	}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	logger := arbor.NewLogger()
	failures := 2
	calls := 0

	value, attempts, err := Do(context.Background(), testConfig(), logger, func(ctx context.Context) (string, error) {
		calls++
		if calls <= failures {
			return "", NewProviderError(503, "unavailable", nil)
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "ok" {
		t.Errorf("value = %q, want ok", value)
	}
	if attempts != failures+1 {
		t.Errorf("attempts = %d, want %d", attempts, failures+1)
	}
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	logger := arbor.NewLogger()
	calls := 0

	_, attempts, err := Do(context.Background(), testConfig(), logger, func(ctx context.Context) (int, error) {
		calls++
		return 0, NewProviderError(401, "bad key", nil)
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 || calls != 1 {
		t.Errorf("attempts = %d, calls = %d, want 1 and 1", attempts, calls)
	}

	var classified *ClassifiedError
	if !errors.As(err, &classified) || classified.Kind != KindAuthentication {
		t.Errorf("error = %v, want authentication_error", err)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	logger := arbor.NewLogger()
	calls := 0

	_, attempts, err := Do(context.Background(), testConfig(), logger, func(ctx context.Context) (int, error) {
		calls++
		return 0, NewProviderError(429, "slow down", nil)
	})

	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if attempts != 3 || calls != 3 {
		t.Errorf("attempts = %d, calls = %d, want 3 and 3", attempts, calls)
	}
}

func TestDo_RetryableKindsOverride(t *testing.T) {
	logger := arbor.NewLogger()
	config := testConfig()
	config.RetryableKinds = map[ErrorKind]bool{KindRateLimit: false}

	calls := 0
	_, attempts, _ := Do(context.Background(), config, logger, func(ctx context.Context) (int, error) {
		calls++
		return 0, NewProviderError(429, "slow down", nil)
	})

	if attempts != 1 || calls != 1 {
		t.Errorf("attempts = %d, calls = %d, want 1 and 1 with rate limit marked non-retryable", attempts, calls)
	}
}

func TestDo_CancelledBeforeStart(t *testing.T) {
	logger := arbor.NewLogger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, attempts, err := Do(ctx, testConfig(), logger, func(ctx context.Context) (int, error) {
		calls++
		return 0, nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if calls != 0 || attempts != 0 {
		t.Errorf("calls = %d, attempts = %d, want 0 and 0", calls, attempts)
	}
}

func TestDo_CancelledDuringBackoff(t *testing.T) {
	logger := arbor.NewLogger()
	config := testConfig()
	config.BaseDelay = time.Minute
	config.MaxDelay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	done := make(chan struct{})
	var err error
	go func() {
		defer close(done)
		_, _, err = Do(ctx, config, logger, func(ctx context.Context) (int, error) {
			calls++
			return 0, NewProviderError(503, "unavailable", nil)
		})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not return after cancellation during backoff")
	}

	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
