package strategy

import (
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mautomic/optrader/internal/models"
	"github.com/mautomic/optrader/internal/storage"
)

const testCommission = 0.65

func newTestBase(t *testing.T) (BaseStrategy, *storage.MockPositionStore) {
	t.Helper()
	store := storage.NewMockPositionStore()
	logger := log.New(io.Discard, "", 0)
	base := NewBaseStrategy(store, testCommission, logger, func() string { return "20260831" })
	return base, store
}

func TestEnterInsertsFreshPosition(t *testing.T) {
	base, store := newTestBase(t)
	quote := &models.ContractQuote{
		Symbol: "SPY_091826C450", Last: 2.15, Delta: 0.42, Gamma: 0.03,
		Theta: -0.05, Vega: 0.12, Volatility: 25.3,
	}

	require.NoError(t, base.Enter(quote, 1))

	pos, err := store.GetPosition("SPY_091826C450")
	require.NoError(t, err)
	assert.Equal(t, 2.15, pos.BuyPrice)
	assert.Equal(t, 1, pos.Quantity)
	assert.InDelta(t, 215.0, pos.BuyNotional, 1e-9)
	assert.InDelta(t, 0.42, pos.Delta, 1e-9)
	assert.InDelta(t, testCommission, pos.Commission, 1e-9)
	assert.Equal(t, models.StatusOpen, pos.Status)
	assert.Equal(t, "20260831", pos.EntryDate)
}

func TestEnterTwiceAveragesNotDuplicates(t *testing.T) {
	base, store := newTestBase(t)

	first := &models.ContractQuote{Symbol: "SPY_091826C450", Last: 2.00, Delta: 0.40}
	second := &models.ContractQuote{Symbol: "SPY_091826C450", Last: 4.00, Delta: 0.50}

	require.NoError(t, base.Enter(first, 1))
	require.NoError(t, base.Enter(second, 1))

	pos, err := store.GetPosition("SPY_091826C450")
	require.NoError(t, err)
	assert.Equal(t, 2, pos.Quantity)
	assert.InDelta(t, 3.00, pos.LastPrice, 1e-9) // notional-weighted average
	assert.InDelta(t, 600.0, pos.CurrentNotional, 1e-9)
	assert.InDelta(t, 1.00, pos.Delta, 1e-9) // rescaled by new quantity
	assert.InDelta(t, 2*testCommission, pos.Commission, 1e-9)

	all, err := store.AllPositions()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFullExitClosesPosition(t *testing.T) {
	base, store := newTestBase(t)

	entry := &models.ContractQuote{Symbol: "SPY_091826C450", Last: 2.00, Delta: 0.40}
	require.NoError(t, base.Enter(entry, 2))

	pos, err := store.GetPosition("SPY_091826C450")
	require.NoError(t, err)

	exitQuote := &models.ContractQuote{Symbol: "SPY_091826C450", Last: 3.00, Delta: 0.55}
	require.NoError(t, base.Exit(pos, exitQuote, 2))

	closed, err := store.GetPosition("SPY_091826C450")
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, closed.Status)
	assert.Equal(t, 0, closed.Quantity)
	assert.Equal(t, 3.00, closed.ClosePrice)
	assert.Zero(t, closed.Delta)
	assert.Zero(t, closed.Gamma)
	assert.Zero(t, closed.Theta)
	assert.Zero(t, closed.Vega)
	assert.Zero(t, closed.CurrentNotional)
	// Bought 2 @ 2.00 (notional 400), exited @ 3.00 (notional 600).
	assert.InDelta(t, 200.0, closed.RealizedPnL, 1e-9)
	// Round-trip commission on the original quantity.
	assert.InDelta(t, 2*testCommission*2, closed.Commission, 1e-9)
}

func TestPartialExitTrimsPosition(t *testing.T) {
	base, store := newTestBase(t)

	entry := &models.ContractQuote{Symbol: "SPY_091826C450", Last: 2.00, Delta: 0.40}
	require.NoError(t, base.Enter(entry, 3))

	pos, err := store.GetPosition("SPY_091826C450")
	require.NoError(t, err)

	exitQuote := &models.ContractQuote{Symbol: "SPY_091826C450", Last: 2.50, Delta: 0.45}
	require.NoError(t, base.Exit(pos, exitQuote, 1))

	trimmed, err := store.GetPosition("SPY_091826C450")
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, trimmed.Status)
	assert.Equal(t, 2, trimmed.Quantity)
	// PnL realized only on the exited lot.
	assert.InDelta(t, (2.50-2.00)*1*100, trimmed.RealizedPnL, 1e-9)
	// Greeks rescaled to the remaining quantity.
	assert.InDelta(t, 0.45*2, trimmed.Delta, 1e-9)
	assert.InDelta(t, 2.00*2*100, trimmed.BuyNotional, 1e-9)
	assert.InDelta(t, 2.50*2*100, trimmed.CurrentNotional, 1e-9)
}

func TestExitClosedPositionIsNoOp(t *testing.T) {
	base, store := newTestBase(t)

	entry := &models.ContractQuote{Symbol: "SPY_091826C450", Last: 2.00}
	require.NoError(t, base.Enter(entry, 1))

	pos, _ := store.GetPosition("SPY_091826C450")
	exitQuote := &models.ContractQuote{Symbol: "SPY_091826C450", Last: 3.00}
	require.NoError(t, base.Exit(pos, exitQuote, 1))

	closed, _ := store.GetPosition("SPY_091826C450")
	require.Equal(t, models.StatusClosed, closed.Status)

	// Second exit leaves the record untouched.
	require.NoError(t, base.Exit(closed, &models.ContractQuote{Symbol: "SPY_091826C450", Last: 9.99}, 1))
	after, _ := store.GetPosition("SPY_091826C450")
	assert.Equal(t, 3.00, after.ClosePrice)
}

func TestExitUnknownSymbolIsNoOp(t *testing.T) {
	base, _ := newTestBase(t)
	ghost := &models.Position{Symbol: "SPY_091826C999"}
	assert.NoError(t, base.Exit(ghost, &models.ContractQuote{Symbol: "SPY_091826C999", Last: 1.00}, 1))
}
