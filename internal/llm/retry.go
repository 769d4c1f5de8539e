package llm

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"
)

const MaxRetries = 3

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// Retry runs fn up to attempts times, sleeping Backoff between tries, for
// as long as it fails with a retryable error.
func Retry(ctx context.Context, attempts int, log *slog.Logger, fn func() error) error {
	return retryWith(ctx, attempts, Backoff, log, fn)
}

func retryWith(ctx context.Context, attempts int, backoff func(int) time.Duration, log *slog.Logger, fn func() error) error {
	if attempts <= 0 {
		attempts = MaxRetries
	}
	var lastErr error
	for attempt := range attempts {
		lastErr = fn()
		if lastErr == nil || !IsRetryable(lastErr) || attempt == attempts-1 {
			return lastErr
		}
		if log != nil {
			log.Warn("retryable llm error", "attempt", attempt, "error", lastErr)
		}
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
