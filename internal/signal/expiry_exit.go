package signal

import (
	"github.com/mautomic/optrader/internal/models"
)

// ExpiryExitSignal exits option positions that expire today or tomorrow.
// Equity hedge legs are never expired out.
type ExpiryExitSignal struct{}

var _ ExitSignal = ExpiryExitSignal{}

// Trigger implements ExitSignal.
func (ExpiryExitSignal) Trigger(_ *models.Snapshot, position *models.Position, quote *models.ContractQuote) bool {
	if position == nil || quote == nil {
		return false
	}
	if !position.IsOption() || quote.Symbol != position.Symbol {
		return false
	}
	return quote.DaysToExpiration <= 1
}
