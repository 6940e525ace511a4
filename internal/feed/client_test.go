package feed

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mautomic/optrader/internal/models"
)

const chainPayload = `{
	"symbol": "SPY",
	"underlyingPrice": 450.10,
	"callExpDateMap": {
		"2026-09-18:18": {
			"450.0": [{
				"symbol": "SPY_091826C450",
				"strikePrice": 450.0,
				"bid": 2.10,
				"ask": 2.20,
				"last": 2.15,
				"totalVolume": 1200,
				"daysToExpiration": 18,
				"volatility": 25.3,
				"delta": 0.42,
				"gamma": 0.03,
				"theta": -0.05,
				"vega": 0.12
			}]
		}
	},
	"putExpDateMap": {
		"2026-09-18:18": {
			"445.0": [{
				"symbol": "SPY_091826P445",
				"strikePrice": 445.0,
				"bid": 1.05,
				"ask": 1.15,
				"last": 1.10,
				"totalVolume": 800,
				"daysToExpiration": 18,
				"volatility": 26.1,
				"delta": -0.31,
				"gamma": 0.03,
				"theta": -0.04,
				"vega": 0.11
			}]
		}
	}
}`

func TestGetOptionChainDecodesSnapshot(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(chainPayload))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, time.Second)
	snap, err := client.GetOptionChain(context.Background(), "SPY", "2026-09-18", 40)
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "symbol=SPY")
	assert.Contains(t, gotQuery, "strikeCount=40")
	assert.Equal(t, "SPY", snap.Ticker)
	assert.Equal(t, 450.10, snap.UnderlyingPrice)

	call := snap.Calls["2026-09-18:18"]["450.0"][0]
	assert.Equal(t, "SPY_091826C450", call.Symbol)
	assert.Equal(t, 1200, call.TotalVolume)
	assert.Equal(t, 0.42, call.Delta)

	put := snap.Puts["2026-09-18:18"]["445.0"][0]
	assert.Equal(t, -0.31, put.Delta)

	quotes := snap.Flatten()
	assert.Len(t, quotes, 2)
}

func TestGetOptionChainAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, time.Second)
	_, err := client.GetOptionChain(context.Background(), "SPY", "2026-09-18", 40)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
}

type failingFeed struct {
	err error
}

func (f *failingFeed) GetOptionChain(context.Context, string, string, int) (*models.Snapshot, error) {
	return nil, f.err
}

func TestCircuitBreakerOpensAfterRepeatedFailures(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	inner := &failingFeed{err: errors.New("connection refused")}
	breaker := NewCircuitBreakerFeedWithSettings(inner, logger, CircuitBreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  3,
		FailureRatio: 0.5,
	})

	for i := 0; i < 5; i++ {
		_, _ = breaker.GetOptionChain(context.Background(), "SPY", "2026-09-18", 40)
	}

	_, err := breaker.GetOptionChain(context.Background(), "SPY", "2026-09-18", 40)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
