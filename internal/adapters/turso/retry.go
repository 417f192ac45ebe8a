package turso

import (
	"context"
	"strings"
	"time"
)

const streamRetries = 3

// IsStreamError checks if an error is a Turso "stream not found" error.
func IsStreamError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "stream not found")
}

// WithRetry executes a function with retry logic for Turso stream errors.
// It retries up to maxRetries times when encountering "stream not found"
// errors. Every store write is idempotent, so re-running an attempt whose
// stream died mid-flight is safe.
func WithRetry[T any](ctx context.Context, maxRetries int, fn func() (T, error)) (T, error) {
	var result T
	var err error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err = fn()
		if err == nil {
			return result, nil
		}

		if !IsStreamError(err) || attempt == maxRetries {
			return result, err
		}

		// Brief pause before retry to allow connection pool to refresh
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}

	return result, err
}

func withRetry(ctx context.Context, fn func() error) error {
	_, err := WithRetry(ctx, streamRetries, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
