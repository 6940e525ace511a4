// Package pricing implements option fair-value estimation: the closed-form
// Black-Scholes call valuation and a Monte Carlo estimator used as an entry
// signal reference price.
package pricing

import (
	"math"
	"math/rand"
)

// monteCarloPaths is the number of simulated terminal prices per estimate.
const monteCarloPaths = 10000

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// CallPrice returns the closed-form Black-Scholes value of a European call
// under risk-neutral drift with no dividends. timeToMaturity is in years,
// volatility and riskFreeRate are decimals (0.25 = 25%).
func CallPrice(spot, strike, timeToMaturity, riskFreeRate, volatility float64) float64 {
	d1 := (math.Log(spot/strike) + (riskFreeRate+volatility*volatility/2)*timeToMaturity) /
		(volatility * math.Sqrt(timeToMaturity))
	d2 := d1 - volatility*math.Sqrt(timeToMaturity)
	return spot*normCDF(d1) - strike*math.Exp(-riskFreeRate*timeToMaturity)*normCDF(d2)
}

// MonteCarloEstimate prices a European call by simulating terminal spot prices
// under geometric Brownian motion and discounting the average payoff. The
// estimate is stochastic: repeated calls on identical inputs vary slightly, so
// comparisons must use a tolerance.
func MonteCarloEstimate(spot, strike, timeToMaturity, riskFreeRate, volatility float64) float64 {
	drift := (riskFreeRate - 0.5*volatility*volatility) * timeToMaturity
	diffusion := volatility * math.Sqrt(timeToMaturity)

	sum := 0.0
	for i := 0; i < monteCarloPaths; i++ {
		terminal := spot * math.Exp(drift+diffusion*rand.NormFloat64())
		if payoff := terminal - strike; payoff > 0 {
			sum += payoff
		}
	}
	return math.Exp(-riskFreeRate*timeToMaturity) * sum / monteCarloPaths
}
