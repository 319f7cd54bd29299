package source

import (
	"context"
	"errors"
	"math"
	"time"
)

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		MaxDelay:    10 * time.Second,
	}
}

// statusError is a non-2xx answer from the export endpoint.
type statusError struct {
	StatusCode int
}

func (e *statusError) Error() string {
	return "unexpected status " + httpStatus(e.StatusCode)
}

// retryable reports whether another attempt could succeed. Client
// errors and malformed payloads never do.
func retryable(err error) bool {
	if errors.Is(err, errMalformed) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 || se.StatusCode == 429
	}
	return true
}

// withRetry runs fn with exponential backoff until it succeeds, fails
// with a permanent error, or runs out of attempts.
func withRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	attempts := max(cfg.MaxAttempts, 1)

	var lastErr error
	for attempt := range attempts {
		lastErr = fn()
		if lastErr == nil || !retryable(lastErr) {
			return lastErr
		}

		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff(attempt, cfg.BaseDelay, cfg.MaxDelay)):
			}
		}
	}
	return lastErr
}

func backoff(attempt int, base, maxDelay time.Duration) time.Duration {
	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}
	return delay
}
