package state

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/observability"
)

const (
	maxRetries     = 3
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: initialBackoff,
		MaxBackoff:     maxBackoff,
	}
}

// calculateBackoff calculates exponential backoff duration
func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	// Exponential backoff: initialBackoff * 2^attempt
	backoff := float64(config.InitialBackoff) * math.Pow(2, float64(attempt))

	if backoff > float64(config.MaxBackoff) {
		backoff = float64(config.MaxBackoff)
	}

	return time.Duration(backoff)
}

// retryingBackend retries failed calls of a networked backend. A missing
// snapshot is an answer, not a failure.
type retryingBackend struct {
	Backend
	config RetryConfig
	logger *observability.Logger
}

// WithRetry wraps b so transient failures are retried with exponential
// backoff.
func WithRetry(b Backend, config RetryConfig, logger *observability.Logger) Backend {
	return &retryingBackend{Backend: b, config: config, logger: logger.WithOperation("state")}
}

func (r *retryingBackend) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.retry(ctx, "load", func() error {
		var err error
		data, err = r.Backend.Load(ctx, key)
		return err
	})
	return data, err
}

func (r *retryingBackend) Save(ctx context.Context, key string, data []byte) error {
	return r.retry(ctx, "save", func() error {
		return r.Backend.Save(ctx, key, data)
	})
}

func (r *retryingBackend) retry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = fn()
		if lastErr == nil || errors.Is(lastErr, domain.ErrNotFound) {
			return lastErr
		}

		// Don't wait after last attempt
		if attempt == r.config.MaxRetries {
			break
		}

		backoff := calculateBackoff(attempt, r.config)
		r.logger.Warn().
			Err(lastErr).
			Str("op", op).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("state backend call failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("state %s failed after %d retries: %w", op, r.config.MaxRetries, lastErr)
}
