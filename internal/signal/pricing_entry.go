package signal

import (
	"github.com/mautomic/optrader/internal/models"
	"github.com/mautomic/optrader/internal/pricing"
)

// PricingEntrySignal accepts a contract only when it still has time value
// left, the market trades it below its Monte Carlo fair value, and its
// implied volatility clears the configured floor.
type PricingEntrySignal struct {
	minVolatility float64 // same percent units as quote implied vol
	riskFreeRate  float64
}

var _ EntrySignal = (*PricingEntrySignal)(nil)

// NewPricingEntrySignal builds a pricing signal with the portfolio's minimum
// implied volatility threshold and risk-free rate.
func NewPricingEntrySignal(minVolatility, riskFreeRate float64) *PricingEntrySignal {
	return &PricingEntrySignal{
		minVolatility: minVolatility,
		riskFreeRate:  riskFreeRate,
	}
}

// Trigger implements EntrySignal.
func (s *PricingEntrySignal) Trigger(snap *models.Snapshot, quote *models.ContractQuote) bool {
	if snap == nil || quote == nil {
		return false
	}
	if quote.DaysToExpiration <= 1 {
		return false
	}

	timeToMaturity := float64(quote.DaysToExpiration) / 365
	volatility := quote.Volatility / 100
	fairValue := pricing.MonteCarloEstimate(
		snap.UnderlyingPrice, quote.Strike, timeToMaturity, s.riskFreeRate, volatility)

	if quote.Last >= fairValue {
		return false
	}
	return quote.Volatility > s.minVolatility
}
