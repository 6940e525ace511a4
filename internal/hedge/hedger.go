// Package hedge sizes the equity leg that offsets aggregate option delta for
// each tracked underlying.
package hedge

import (
	"github.com/mautomic/optrader/internal/models"
	"github.com/mautomic/optrader/internal/storage"
)

// Hedger adjusts the equity hedge legs in a position collection after the
// strategy has run against a snapshot.
type Hedger interface {
	Hedge(positions storage.PositionStore, snap *models.Snapshot, tickers []string, current []models.Position) error
}

// NoopHedger leaves the book unhedged. Used when hedging is disabled.
type NoopHedger struct{}

var _ Hedger = NoopHedger{}

// Hedge implements Hedger.
func (NoopHedger) Hedge(storage.PositionStore, *models.Snapshot, []string, []models.Position) error {
	return nil
}
