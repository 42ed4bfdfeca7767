// Package providers contains the concrete LLM backends registered into the
// Model Provider Registry.
package providers

import (
	"context"
	"time"
)

// Base holds shared retry configuration for LLM providers, the same linear
// backoff shape used across the example corpus's provider implementations.
type Base struct {
	name       string
	maxRetries int
	retryDelay time.Duration
}

// NewBase creates a Base with sane defaults when maxRetries/retryDelay are
// left zero.
func NewBase(name string, maxRetries int, retryDelay time.Duration) Base {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	return Base{name: name, maxRetries: maxRetries, retryDelay: retryDelay}
}

// Name returns the provider's registry key.
func (b *Base) Name() string {
	return b.name
}

// Retry runs op, retrying with linear backoff while isRetryable(err) holds,
// up to maxRetries attempts.
func (b *Base) Retry(ctx context.Context, isRetryable func(error) bool, op func() error) error {
	var lastErr error
	for attempt := 1; attempt <= b.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		if isRetryable == nil || !isRetryable(err) {
			return err
		}
		if attempt >= b.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.retryDelay * time.Duration(attempt)):
		}
	}
	return lastErr
}
