package retry

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mautomic/optrader/internal/models"
)

func testLogger() *log.Logger { return log.New(io.Discard, "", 0) }

// flakyFeed fails a set number of times before succeeding.
type flakyFeed struct {
	mu       sync.Mutex
	failures int
	err      error
	calls    int
}

func (f *flakyFeed) GetOptionChain(context.Context, string, string, int) (*models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return &models.Snapshot{Ticker: "SPY"}, nil
}

func fastConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func TestRetriesTransientErrors(t *testing.T) {
	inner := &flakyFeed{failures: 2, err: errors.New("connection refused")}
	f := NewFeed(inner, testLogger(), fastConfig())

	snap, err := f.GetOptionChain(context.Background(), "SPY", "2026-09-30", 40)
	require.NoError(t, err)
	assert.Equal(t, "SPY", snap.Ticker)
	assert.Equal(t, 3, inner.calls)
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	inner := &flakyFeed{failures: 10, err: errors.New("504 gateway timeout")}
	f := NewFeed(inner, testLogger(), fastConfig())

	_, err := f.GetOptionChain(context.Background(), "SPY", "2026-09-30", 40)
	assert.Error(t, err)
	assert.Equal(t, 4, inner.calls) // initial attempt + 3 retries
}

func TestNonTransientErrorFailsFast(t *testing.T) {
	inner := &flakyFeed{failures: 10, err: errors.New("invalid symbol")}
	f := NewFeed(inner, testLogger(), fastConfig())

	_, err := f.GetOptionChain(context.Background(), "SPY", "2026-09-30", 40)
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestCanceledContextStopsRetrying(t *testing.T) {
	inner := &flakyFeed{failures: 10, err: errors.New("timeout")}
	f := NewFeed(inner, testLogger(), Config{
		MaxRetries:     5,
		InitialBackoff: time.Minute,
		MaxBackoff:     time.Minute,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := f.GetOptionChain(ctx, "SPY", "2026-09-30", 40)
	assert.ErrorIs(t, err, context.Canceled)
}
