package models

// Position status values persisted with each record.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Position is the durable record of quantity and economics for one symbol,
// either an option contract or the "<TICKER>_EQUITY" hedge leg. Greeks are
// stored already scaled by quantity. A fully exited position keeps its record
// with quantity 0 and status closed as an audit trail.
type Position struct {
	Symbol          string  `json:"symbol"`
	BuyPrice        float64 `json:"buy_price"`
	LastPrice       float64 `json:"last_price"`
	ClosePrice      float64 `json:"close_price"`
	Quantity        int     `json:"quantity"`
	EntryDate       string  `json:"entry_date"`
	Delta           float64 `json:"delta"`
	Gamma           float64 `json:"gamma"`
	Theta           float64 `json:"theta"`
	Vega            float64 `json:"vega"`
	Volatility      float64 `json:"volatility"`
	Commission      float64 `json:"commission"`
	BuyNotional     float64 `json:"buy_notional"`
	CurrentNotional float64 `json:"current_notional"`
	UnrealizedPnL   float64 `json:"unrealized_pnl"`
	RealizedPnL     float64 `json:"realized_pnl"`
	Status          string  `json:"status"`
}

// IsOption reports whether the position is an option contract rather than an
// equity hedge leg.
func (p *Position) IsOption() bool {
	return !IsEquitySymbol(p.Symbol)
}

// Ticker returns the underlying ticker for the position's symbol.
func (p *Position) Ticker() string {
	return TickerFromSymbol(p.Symbol)
}

// IsOpen reports whether the position still carries exposure.
func (p *Position) IsOpen() bool {
	return p.Status == StatusOpen
}

// AveragePrice returns the notional-weighted average price after adding
// newQuantity lots at newPrice to an existing fill. Negative existing
// quantities (short hedge legs) weigh by absolute size.
func AveragePrice(originalQuantity int, originalPrice float64, newQuantity int, newPrice float64) float64 {
	oq := originalQuantity
	if oq < 0 {
		oq = -oq
	}
	return (float64(oq)*originalPrice + float64(newQuantity)*newPrice) / float64(oq+newQuantity)
}
