package feed

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sony/gobreaker"

	"github.com/mautomic/optrader/internal/models"
)

// CircuitBreakerFeed wraps a Feed so a flapping market-data API trips open
// instead of stalling every scan cycle on timeouts.
type CircuitBreakerFeed struct {
	feed    Feed
	breaker *gobreaker.CircuitBreaker
}

var _ Feed = (*CircuitBreakerFeed)(nil)

// CircuitBreakerSettings configures breaker behavior.
type CircuitBreakerSettings struct {
	MaxRequests  uint32        // max requests when half-open
	Interval     time.Duration // reset counts interval
	Timeout      time.Duration // open circuit duration
	MinRequests  uint32        // min requests before tripping
	FailureRatio float64       // failure ratio threshold
}

// NewCircuitBreakerFeed wraps feed with sensible defaults.
func NewCircuitBreakerFeed(feed Feed, logger *log.Logger) *CircuitBreakerFeed {
	return NewCircuitBreakerFeedWithSettings(feed, logger, CircuitBreakerSettings{
		MaxRequests:  3,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	})
}

// NewCircuitBreakerFeedWithSettings wraps feed with custom settings.
func NewCircuitBreakerFeedWithSettings(feed Feed, logger *log.Logger, settings CircuitBreakerSettings) *CircuitBreakerFeed {
	gbSettings := gobreaker.Settings{
		Name:        "MarketDataFeed",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Printf("Circuit breaker %s state changed from %s to %s", name, from, to)
		},
	}

	return &CircuitBreakerFeed{
		feed:    feed,
		breaker: gobreaker.NewCircuitBreaker(gbSettings),
	}
}

// GetOptionChain implements Feed through the breaker.
func (c *CircuitBreakerFeed) GetOptionChain(ctx context.Context, ticker, maxExpiration string, strikeCount int) (*models.Snapshot, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.feed.GetOptionChain(ctx, ticker, maxExpiration, strikeCount)
	})
	if err != nil {
		return nil, err
	}
	snap, ok := res.(*models.Snapshot)
	if !ok {
		return nil, errors.New("circuit breaker: type assertion failed")
	}
	return snap, nil
}
