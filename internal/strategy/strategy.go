// Package strategy contains the trading logic run against each option chain
// snapshot: anomaly detection, signal-gated entries and exits, and the
// position book-keeping they drive.
package strategy

import (
	"errors"
	"fmt"
	"log"

	"github.com/mautomic/optrader/internal/models"
	"github.com/mautomic/optrader/internal/storage"
)

// Strategy is the unit of trading logic a portfolio manager executes for
// every delivered snapshot.
type Strategy interface {
	Run(snap *models.Snapshot) error
}

// BaseStrategy carries the entry/exit book-keeping shared by concrete
// strategies: inserting fresh positions, averaging up existing ones, and
// closing or trimming on exit.
type BaseStrategy struct {
	positions             storage.PositionStore
	commissionPerContract float64
	logger                *log.Logger
	today                 func() string
}

// NewBaseStrategy wires the shared book-keeping against one position
// collection. today supplies the entry date stamped on new positions.
func NewBaseStrategy(positions storage.PositionStore, commissionPerContract float64, logger *log.Logger, today func() string) BaseStrategy {
	return BaseStrategy{
		positions:             positions,
		commissionPerContract: commissionPerContract,
		logger:                logger,
		today:                 today,
	}
}

// Enter opens a new position for the contract or increases an existing one at
// the notional-weighted average price.
func (b *BaseStrategy) Enter(quote *models.ContractQuote, quantity int) error {
	current, err := b.positions.GetPosition(quote.Symbol)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("look up %s: %w", quote.Symbol, err)
	}

	if current == nil {
		pos := &models.Position{
			Symbol:          quote.Symbol,
			BuyPrice:        quote.Last,
			LastPrice:       quote.Last,
			Quantity:        quantity,
			EntryDate:       b.today(),
			Delta:           quote.Delta * float64(quantity),
			Gamma:           quote.Gamma * float64(quantity),
			Theta:           quote.Theta * float64(quantity),
			Vega:            quote.Vega * float64(quantity),
			Volatility:      quote.Volatility,
			Commission:      b.commissionPerContract * float64(quantity),
			BuyNotional:     quote.Last * float64(quantity) * models.SharesPerContract,
			CurrentNotional: quote.Last * float64(quantity) * models.SharesPerContract,
			Status:          models.StatusOpen,
		}
		if err := b.positions.Insert(pos); err != nil {
			return fmt.Errorf("insert %s: %w", quote.Symbol, err)
		}
		b.logger.Printf("Entered a new position, %d %s @ %.2f", quantity, quote.Symbol, quote.Last)
		return nil
	}

	totalQty := current.Quantity + quantity
	averagePrice := models.AveragePrice(current.Quantity, current.LastPrice, quantity, quote.Last)
	current.LastPrice = averagePrice
	current.Quantity = totalQty
	current.CurrentNotional = averagePrice * float64(totalQty) * models.SharesPerContract
	current.Commission = b.commissionPerContract * float64(totalQty)
	current.Delta = quote.Delta * float64(totalQty)
	current.Gamma = quote.Gamma * float64(totalQty)
	current.Theta = quote.Theta * float64(totalQty)
	current.Vega = quote.Vega * float64(totalQty)
	if err := b.positions.Update(current); err != nil {
		return fmt.Errorf("increase %s: %w", quote.Symbol, err)
	}
	b.logger.Printf("Increased an existing position, %d %s @ %.2f", quantity, quote.Symbol, quote.Last)
	b.logger.Printf("Average price is now %.4f with %d lots", averagePrice, totalQty)
	return nil
}

// Exit closes the position outright when quantity covers it, or trims it and
// realizes PnL on the exited portion.
func (b *BaseStrategy) Exit(position *models.Position, quote *models.ContractQuote, quantity int) error {
	current, err := b.positions.GetPosition(position.Symbol)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up %s: %w", position.Symbol, err)
	}
	if !current.IsOpen() {
		return nil
	}

	if quantity >= current.Quantity {
		exitNotional := quote.Last * float64(current.Quantity) * models.SharesPerContract
		realized := exitNotional - current.BuyNotional
		current.Commission = float64(current.Quantity) * b.commissionPerContract * 2
		current.Status = models.StatusClosed
		current.ClosePrice = quote.Last
		current.Quantity = 0
		current.Delta = 0
		current.Gamma = 0
		current.Theta = 0
		current.Vega = 0
		current.CurrentNotional = 0
		current.RealizedPnL = realized
		if err := b.positions.Update(current); err != nil {
			return fmt.Errorf("close %s: %w", position.Symbol, err)
		}
		b.logger.Printf("Exited all of existing position, %s @ %.2f", position.Symbol, quote.Last)
		return nil
	}

	remaining := current.Quantity - quantity
	realized := (quote.Last - current.BuyPrice) * float64(quantity) * models.SharesPerContract
	current.Quantity = remaining
	current.Delta = quote.Delta * float64(remaining)
	current.Gamma = quote.Gamma * float64(remaining)
	current.Theta = quote.Theta * float64(remaining)
	current.Vega = quote.Vega * float64(remaining)
	current.BuyNotional = current.BuyPrice * float64(remaining) * models.SharesPerContract
	current.CurrentNotional = quote.Last * float64(remaining) * models.SharesPerContract
	current.Commission = float64(quantity)*b.commissionPerContract*2 + float64(remaining)*b.commissionPerContract
	current.RealizedPnL += realized
	if err := b.positions.Update(current); err != nil {
		return fmt.Errorf("trim %s: %w", position.Symbol, err)
	}
	b.logger.Printf("Exited portion of existing position, %d %s @ %.2f", quantity, position.Symbol, quote.Last)
	return nil
}
