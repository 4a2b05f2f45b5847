package retry

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
)

// Config defines retry behavior with exponential backoff.
// Configs are explicitly constructed and passed per call site; there is no
// process-wide mutable default.
type Config struct {
	// MaxAttempts is the total number of attempts including the first (default: 3)
	MaxAttempts int

	// BaseDelay is the backoff before the second attempt (default: 2s)
	BaseDelay time.Duration

	// MaxDelay caps the computed backoff (default: 30s)
	MaxDelay time.Duration

	// BackoffMultiplier is applied per attempt (default: 2.0)
	BackoffMultiplier float64

	// RetryableKinds overrides the default retryable table when non-nil
	RetryableKinds map[ErrorKind]bool
}

// NewDefaultConfig returns a Config with sensible defaults for
// generative AI provider calls.
func NewDefaultConfig() Config {
	return Config{
		MaxAttempts:       3,
		BaseDelay:         2 * time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// retryable applies the config's kind set, falling back to the default table
func (c Config) retryable(err *ClassifiedError) bool {
	if c.RetryableKinds != nil {
		if allowed, ok := c.RetryableKinds[err.Kind]; ok {
			if err.override != nil {
				return *err.override
			}
			return allowed
		}
	}
	return err.Retryable()
}

// ComputeDelay calculates the backoff before retrying after the given
// attempt. Attempt is 1-indexed; the result never exceeds MaxDelay.
func ComputeDelay(attempt int, config Config) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= config.BackoffMultiplier
	}

	delay := time.Duration(float64(config.BaseDelay) * multiplier)
	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

// Do runs op with bounded retries. On failure the error is classified;
// non-retryable kinds and exhausted attempts stop immediately. The backoff
// sleep is a cancellation point: a cancelled context aborts regardless of
// retryability and the context error is returned unwrapped.
//
// Returns the operation result, the number of attempts actually made, and
// the last classified error when all attempts failed.
func Do[T any](ctx context.Context, config Config, logger arbor.ILogger, op func(context.Context) (T, error)) (T, int, error) {
	var zero T
	var lastErr *ClassifiedError

	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, attempt - 1, err
		}

		value, err := op(ctx)
		if err == nil {
			return value, attempt, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, attempt, ctxErr
		}

		lastErr = AsClassified(err)

		if !config.retryable(lastErr) {
			logger.Debug().
				Int("attempt", attempt).
				Str("kind", string(lastErr.Kind)).
				Err(err).
				Msg("Non-retryable error, failing immediately")
			return zero, attempt, lastErr
		}

		if attempt == config.MaxAttempts {
			break
		}

		backoff := ComputeDelay(attempt, config)
		logger.Debug().
			Int("attempt", attempt).
			Str("kind", string(lastErr.Kind)).
			Dur("backoff", backoff).
			Err(err).
			Msg("Retrying after backoff")

		select {
		case <-ctx.Done():
			return zero, attempt, ctx.Err()
		case <-time.After(backoff):
		}
	}

	logger.Warn().
		Int("max_attempts", config.MaxAttempts).
		Str("kind", string(lastErr.Kind)).
		Err(lastErr).
		Msg("All retry attempts exhausted")

	return zero, config.MaxAttempts, lastErr
}
