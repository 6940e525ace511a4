// Package portfolio binds strategies to position collections and defines the
// queued actions that deliver snapshots to them.
package portfolio

import (
	"fmt"
	"log"

	"github.com/mautomic/optrader/internal/models"
	"github.com/mautomic/optrader/internal/storage"
	"github.com/mautomic/optrader/internal/strategy"
)

// Manager ties one Strategy to one position collection. The fetchers fan
// every snapshot out to every registered manager; each manager trades its own
// book.
type Manager struct {
	name      string
	strategy  strategy.Strategy
	positions storage.PositionStore
	logger    *log.Logger
}

// NewManager creates a portfolio manager.
func NewManager(name string, strat strategy.Strategy, positions storage.PositionStore, logger *log.Logger) *Manager {
	return &Manager{
		name:      name,
		strategy:  strat,
		positions: positions,
		logger:    logger,
	}
}

// Name returns the manager's portfolio name.
func (m *Manager) Name() string { return m.name }

// Positions exposes the manager's position collection for read-only surfaces
// like the dashboard.
func (m *Manager) Positions() storage.PositionStore { return m.positions }

// RunStrategy executes the core trading logic for one snapshot.
func (m *Manager) RunStrategy(snap *models.Snapshot) error {
	return m.strategy.Run(snap)
}

// RefreshPositions re-marks every open position against the newest snapshot:
// last price, quantity-scaled greeks, implied vol, and unrealized PnL.
// Positions for other tickers have no quote in this snapshot and are left
// alone.
func (m *Manager) RefreshPositions(snap *models.Snapshot) error {
	quotes := snap.Flatten()
	positions, err := m.positions.AllPositions()
	if err != nil {
		return fmt.Errorf("read positions for refresh: %w", err)
	}

	for i := range positions {
		pos := positions[i]
		if !pos.IsOpen() {
			continue
		}
		quote, ok := quotes[pos.Symbol]
		if !ok {
			continue
		}
		qty := float64(pos.Quantity)
		pos.LastPrice = quote.Last
		pos.Delta = quote.Delta * qty
		pos.Gamma = quote.Gamma * qty
		pos.Theta = quote.Theta * qty
		pos.Vega = quote.Vega * qty
		pos.Volatility = quote.Volatility
		pos.CurrentNotional = quote.Last * qty * models.SharesPerContract
		pos.UnrealizedPnL = pos.CurrentNotional - pos.BuyNotional
		if err := m.positions.Update(&pos); err != nil {
			return fmt.Errorf("refresh %s: %w", pos.Symbol, err)
		}
	}
	return nil
}
