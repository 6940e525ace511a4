// Package models defines the market data and position types shared across the
// scanner, strategies, and storage.
package models

import "strings"

// SharesPerContract is the standard option contract multiplier.
const SharesPerContract = 100.0

// EquitySuffix marks a position symbol as the equity hedge leg for its ticker,
// e.g. "SPY_EQUITY".
const EquitySuffix = "EQUITY"

// ContractQuote holds the market data for a single option contract inside a
// Snapshot. Quotes are read-only once the snapshot is built.
type ContractQuote struct {
	Symbol           string  `json:"symbol"`
	Strike           float64 `json:"strike"`
	Bid              float64 `json:"bid"`
	Ask              float64 `json:"ask"`
	Last             float64 `json:"last"`
	TotalVolume      int     `json:"total_volume"`
	DaysToExpiration int     `json:"days_to_expiration"`
	Volatility       float64 `json:"volatility"` // implied vol, percent (25.3 = 25.3%)
	Delta            float64 `json:"delta"`
	Gamma            float64 `json:"gamma"`
	Theta            float64 `json:"theta"`
	Vega             float64 `json:"vega"`
}

// StrikeMap groups contract quotes by strike for a single expiration date.
type StrikeMap map[string][]ContractQuote

// Snapshot is an immutable point-in-time capture of one underlying's option
// market: the underlying price plus call and put chains keyed by expiration
// date, then strike.
type Snapshot struct {
	Ticker          string               `json:"ticker"`
	UnderlyingPrice float64              `json:"underlying_price"`
	Calls           map[string]StrikeMap `json:"calls"`
	Puts            map[string]StrikeMap `json:"puts"`
}

// Flatten collapses both sides of the chain into a symbol -> quote lookup.
// When multiple quotes share a strike, the first one wins, matching the
// ordering the feed delivers.
func (s *Snapshot) Flatten() map[string]ContractQuote {
	quotes := make(map[string]ContractQuote)
	for _, side := range []map[string]StrikeMap{s.Calls, s.Puts} {
		for _, strikes := range side {
			for _, contracts := range strikes {
				if len(contracts) == 0 {
					continue
				}
				q := contracts[0]
				if _, ok := quotes[q.Symbol]; !ok {
					quotes[q.Symbol] = q
				}
			}
		}
	}
	return quotes
}

// TickerFromSymbol extracts the underlying ticker from a position symbol.
// Option symbols and hedge symbols are "<TICKER>_<rest>"; a bare symbol is
// already a ticker.
func TickerFromSymbol(symbol string) string {
	if i := strings.Index(symbol, "_"); i >= 0 {
		return symbol[:i]
	}
	return symbol
}

// EquitySymbol returns the hedge-leg symbol for a ticker.
func EquitySymbol(ticker string) string {
	return ticker + "_" + EquitySuffix
}

// IsEquitySymbol reports whether symbol names an equity hedge leg.
func IsEquitySymbol(symbol string) bool {
	return strings.HasSuffix(symbol, "_"+EquitySuffix)
}
