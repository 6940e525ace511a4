package hedge

import (
	"fmt"
	"log"
	"math"

	"github.com/mautomic/optrader/internal/models"
	"github.com/mautomic/optrader/internal/storage"
)

// DeltaHedger keeps each underlying's equity leg sized to offset the average
// delta of its option legs. A skew of 1 is a one-to-one hedge; other skews
// over- or under-hedge proportionally.
type DeltaHedger struct {
	skew   float64
	logger *log.Logger
	today  func() string
}

var _ Hedger = (*DeltaHedger)(nil)

// NewDeltaHedger creates a delta hedger with the given ratio skew. today
// supplies the entry date stamped on newly inserted hedge legs.
func NewDeltaHedger(skew float64, logger *log.Logger, today func() string) *DeltaHedger {
	return &DeltaHedger{skew: skew, logger: logger, today: today}
}

// Hedge implements Hedger. For every tracked ticker it averages the delta of
// the open option legs and trades the equity leg to round2(avgDelta) * -100 *
// skew whole lots, inserting the leg if it does not exist yet.
func (h *DeltaHedger) Hedge(positions storage.PositionStore, snap *models.Snapshot, tickers []string, current []models.Position) error {
	for _, ticker := range tickers {
		var optionQty int
		var optionDelta float64
		var equity *models.Position

		for i := range current {
			pos := current[i]
			if pos.Ticker() != ticker {
				continue
			}
			if pos.IsOption() {
				optionQty += pos.Quantity
				optionDelta += pos.Delta
			} else {
				equity = &current[i]
			}
		}

		// No option exposure means the average delta is undefined; leave
		// any existing hedge alone.
		if optionQty == 0 {
			continue
		}

		avgDelta := optionDelta / float64(optionQty)
		target := int(round2(avgDelta) * -100 * h.skew)

		if equity == nil {
			if err := h.insertHedge(positions, ticker, target, snap.UnderlyingPrice); err != nil {
				return err
			}
			h.logger.Printf("Inserted hedge for %s: %d lots @ %.2f", ticker, target, snap.UnderlyingPrice)
			continue
		}

		if equity.Quantity == target {
			continue
		}

		tradeAmount := target - equity.Quantity
		averagePrice := models.AveragePrice(equity.Quantity, equity.LastPrice, tradeAmount, snap.UnderlyingPrice)
		equity.Quantity = target
		equity.LastPrice = averagePrice
		equity.CurrentNotional = averagePrice * float64(target)
		equity.Status = models.StatusOpen
		if err := positions.Update(equity); err != nil {
			return fmt.Errorf("update hedge %s: %w", equity.Symbol, err)
		}
		h.logger.Printf("Adjusted hedge for %s: traded %d lots to %d @ %.2f", ticker, tradeAmount, target, averagePrice)
	}
	return nil
}

func (h *DeltaHedger) insertHedge(positions storage.PositionStore, ticker string, quantity int, price float64) error {
	pos := &models.Position{
		Symbol:          models.EquitySymbol(ticker),
		BuyPrice:        price,
		LastPrice:       price,
		Quantity:        quantity,
		EntryDate:       h.today(),
		BuyNotional:     price * float64(quantity),
		CurrentNotional: price * float64(quantity),
		Status:          models.StatusOpen,
	}
	if err := positions.Insert(pos); err != nil {
		return fmt.Errorf("insert hedge %s: %w", pos.Symbol, err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
