// Package retry wraps the market-data feed with bounded retries for
// transient failures.
package retry

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/mautomic/optrader/internal/feed"
	"github.com/mautomic/optrader/internal/models"
)

type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

var DefaultConfig = Config{
	MaxRetries:     3,
	InitialBackoff: 1 * time.Second,
	MaxBackoff:     30 * time.Second,
}

// Feed retries chain requests that fail with transient errors, backing off
// with jitter between attempts. Non-transient errors return immediately.
type Feed struct {
	inner  feed.Feed
	logger *log.Logger
	config Config
}

var _ feed.Feed = (*Feed)(nil)

func NewFeed(inner feed.Feed, logger *log.Logger, config ...Config) *Feed {
	cfg := DefaultConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	return &Feed{
		inner:  inner,
		logger: logger,
		config: cfg,
	}
}

// GetOptionChain implements feed.Feed.
func (f *Feed) GetOptionChain(ctx context.Context, ticker, maxExpiration string, strikeCount int) (*models.Snapshot, error) {
	var lastErr error
	backoff := f.config.InitialBackoff

	for attempt := 0; attempt <= f.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("operation canceled: %w", err)
		}

		snap, err := f.inner.GetOptionChain(ctx, ticker, maxExpiration, strikeCount)
		if err == nil {
			return snap, nil
		}

		lastErr = err
		if !f.isTransientError(err) || attempt == f.config.MaxRetries {
			break
		}

		f.logger.Printf("Chain request for %s failed (attempt %d/%d), retrying in %v: %v",
			ticker, attempt+1, f.config.MaxRetries+1, backoff, err)
		select {
		case <-time.After(backoff):
			backoff = f.calculateNextBackoff(backoff)
		case <-ctx.Done():
			return nil, fmt.Errorf("operation canceled during backoff: %w", ctx.Err())
		}
	}

	return nil, fmt.Errorf("chain request for %s failed after %d attempts: %w",
		ticker, f.config.MaxRetries+1, lastErr)
}

func (f *Feed) calculateNextBackoff(currentBackoff time.Duration) time.Duration {
	backoff := time.Duration(float64(currentBackoff) * 1.5)
	if backoff > f.config.MaxBackoff {
		backoff = f.config.MaxBackoff
	}

	maxJitter := int64(backoff / 4)
	if maxJitter > 0 {
		jitterVal, err := rand.Int(rand.Reader, big.NewInt(maxJitter))
		if err != nil {
			f.logger.Printf("Failed to generate jitter: %v", err)
		} else {
			backoff += time.Duration(jitterVal.Int64())
		}
	}

	return backoff
}

func (f *Feed) isTransientError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	transientPatterns := []string{
		"timeout",
		"connection refused",
		"connection reset",
		"temporary failure",
		"server error",
		"rate limit",
		"429", // HTTP 429 Too Many Requests
		"502", // HTTP 502 Bad Gateway
		"503", // HTTP 503 Service Unavailable
		"504", // HTTP 504 Gateway Timeout
		"network",
		"dns",
		"tcp",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
