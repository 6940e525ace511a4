// Package feed provides the market-data contract the scanner consumes and an
// HTTP client implementation with circuit-breaker protection.
package feed

import (
	"context"
	"fmt"

	"github.com/mautomic/optrader/internal/models"
)

// Feed retrieves option chain snapshots from an external market-data source.
type Feed interface {
	// GetOptionChain requests the chain for ticker out to maxExpiration
	// (YYYY-MM-DD) with at least strikeCount strikes per expiration. A
	// transport failure returns an error; the caller skips the ticker for
	// that cycle.
	GetOptionChain(ctx context.Context, ticker, maxExpiration string, strikeCount int) (*models.Snapshot, error)
}

// APIError is a non-2xx response from the market-data API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}
