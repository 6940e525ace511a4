package hedge

import (
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mautomic/optrader/internal/models"
	"github.com/mautomic/optrader/internal/storage"
)

func newTestHedger(t *testing.T) *DeltaHedger {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	return NewDeltaHedger(1.0, logger, func() string { return "20260831" })
}

func optionLeg(symbol string, qty int, delta float64) models.Position {
	return models.Position{
		Symbol:   symbol,
		Quantity: qty,
		Delta:    delta,
		Status:   models.StatusOpen,
	}
}

func TestHedgeInsertsEquityLeg(t *testing.T) {
	hedger := newTestHedger(t)
	store := storage.NewMockPositionStore()
	snap := &models.Snapshot{Ticker: "SPY", UnderlyingPrice: 450.0}

	current := []models.Position{
		// Two lots with aggregate delta 0.84 -> avg 0.42 -> target -42.
		optionLeg("SPY_091826C450", 2, 0.84),
	}
	require.NoError(t, hedger.Hedge(store, snap, []string{"SPY"}, current))

	hedgePos, err := store.GetPosition("SPY_EQUITY")
	require.NoError(t, err)
	assert.Equal(t, -42, hedgePos.Quantity)
	assert.Equal(t, 450.0, hedgePos.BuyPrice)
	assert.Equal(t, models.StatusOpen, hedgePos.Status)
}

func TestHedgeInsertThenRecomputeIsNoOp(t *testing.T) {
	hedger := newTestHedger(t)
	store := storage.NewMockPositionStore()
	snap := &models.Snapshot{Ticker: "SPY", UnderlyingPrice: 450.0}

	current := []models.Position{optionLeg("SPY_091826C450", 2, 0.84)}
	require.NoError(t, hedger.Hedge(store, snap, []string{"SPY"}, current))

	hedgePos, err := store.GetPosition("SPY_EQUITY")
	require.NoError(t, err)

	// Re-run with the hedge leg now in the book; target equals current
	// quantity, so no update is emitted.
	current = append(current, *hedgePos)
	store.UpdateErr = assert.AnError // any Update call would fail the test
	require.NoError(t, hedger.Hedge(store, snap, []string{"SPY"}, current))
}

func TestHedgeAdjustsExistingLeg(t *testing.T) {
	hedger := newTestHedger(t)
	store := storage.NewMockPositionStore()
	snap := &models.Snapshot{Ticker: "SPY", UnderlyingPrice: 460.0}

	existing := models.Position{
		Symbol:    "SPY_EQUITY",
		Quantity:  -42,
		LastPrice: 450.0,
		Status:    models.StatusOpen,
	}
	require.NoError(t, store.Insert(&existing))

	// Delta moved: avg is now 0.50, so the target is -50.
	current := []models.Position{
		optionLeg("SPY_091826C450", 2, 1.00),
		existing,
	}
	require.NoError(t, hedger.Hedge(store, snap, []string{"SPY"}, current))

	hedgePos, err := store.GetPosition("SPY_EQUITY")
	require.NoError(t, err)
	assert.Equal(t, -50, hedgePos.Quantity)
	// Traded -8 more lots at 460 against -42 held at 450.
	assert.InDelta(t, models.AveragePrice(-42, 450.0, -8, 460.0), hedgePos.LastPrice, 1e-9)
}

func TestHedgeSkipsUnderlyingWithZeroQuantity(t *testing.T) {
	hedger := newTestHedger(t)
	store := storage.NewMockPositionStore()
	snap := &models.Snapshot{Ticker: "SPY", UnderlyingPrice: 450.0}

	// Long and short legs net to zero lots; average delta is undefined.
	current := []models.Position{
		optionLeg("SPY_091826C450", 2, 0.84),
		optionLeg("SPY_091826C455", -2, -0.30),
	}
	require.NoError(t, hedger.Hedge(store, snap, []string{"SPY"}, current))

	_, err := store.GetPosition("SPY_EQUITY")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHedgePutDominatedBookGoesLong(t *testing.T) {
	hedger := newTestHedger(t)
	store := storage.NewMockPositionStore()
	snap := &models.Snapshot{Ticker: "SPY", UnderlyingPrice: 450.0}

	// Puts carry negative delta, so the hedge leg comes out long.
	current := []models.Position{optionLeg("SPY_091826P445", 2, -0.60)}
	require.NoError(t, hedger.Hedge(store, snap, []string{"SPY"}, current))

	hedgePos, err := store.GetPosition("SPY_EQUITY")
	require.NoError(t, err)
	assert.Equal(t, 30, hedgePos.Quantity)
}

func TestHedgeIgnoresOtherTickers(t *testing.T) {
	hedger := newTestHedger(t)
	store := storage.NewMockPositionStore()
	snap := &models.Snapshot{Ticker: "SPY", UnderlyingPrice: 450.0}

	current := []models.Position{optionLeg("QQQ_091826C380", 1, 0.40)}
	require.NoError(t, hedger.Hedge(store, snap, []string{"SPY"}, current))

	_, err := store.GetPosition("QQQ_EQUITY")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
