package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scantailor/scantailor-cli/internal/domain"
	"github.com/scantailor/scantailor-cli/internal/observability"
)

// flakyBackend fails the first failures calls.
type flakyBackend struct {
	failures int
	calls    int
	err      error
}

func (b *flakyBackend) Load(context.Context, string) ([]byte, error) {
	b.calls++
	if b.calls <= b.failures {
		return nil, errors.New("connection reset")
	}
	if b.err != nil {
		return nil, b.err
	}
	return []byte("ok"), nil
}

func (b *flakyBackend) Save(context.Context, string, []byte) error {
	b.calls++
	if b.calls <= b.failures {
		return errors.New("connection reset")
	}
	return nil
}

func (b *flakyBackend) Close() error { return nil }

var fastRetry = RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

func TestWithRetry_RecoversFromTransientFailures(t *testing.T) {
	inner := &flakyBackend{failures: 2}
	b := WithRetry(inner, fastRetry, observability.Nop())

	data, err := b.Load(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, 3, inner.calls)
}

func TestWithRetry_GivesUp(t *testing.T) {
	inner := &flakyBackend{failures: 10}
	b := WithRetry(inner, fastRetry, observability.Nop())

	err := b.Save(context.Background(), "k", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 retries")
	assert.Equal(t, 4, inner.calls)
}

func TestWithRetry_NotFoundIsFinal(t *testing.T) {
	inner := &flakyBackend{err: domain.ErrNotFound}
	b := WithRetry(inner, fastRetry, observability.Nop())

	_, err := b.Load(context.Background(), "k")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, inner.calls)
}

func TestWithRetry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inner := &flakyBackend{}

	_, err := WithRetry(inner, fastRetry, observability.Nop()).Load(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, inner.calls)
}

func TestCalculateBackoff(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, 200*time.Millisecond, calculateBackoff(0, cfg))
	assert.Equal(t, 800*time.Millisecond, calculateBackoff(2, cfg))
	assert.Equal(t, 5*time.Second, calculateBackoff(10, cfg))
}
