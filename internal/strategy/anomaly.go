package strategy

import (
	"math"

	"github.com/mautomic/optrader/internal/models"
)

const (
	// volumeFloor excludes illiquid contracts from both the statistics and
	// the anomaly flag itself.
	volumeFloor = 10
	// priceFloor excludes garbage quotes with near-zero bids or asks.
	priceFloor = 0.10
	// stdDeviations is the anomaly threshold multiplier above the mean.
	stdDeviations = 4
)

// unusualVolume returns the contracts in one expiration date's strike map
// whose traded volume statistically exceeds their peers: above the volume
// floor and above mean + 4 standard deviations of the filtered set. An empty
// filtered set yields no anomalies.
func unusualVolume(strikes models.StrikeMap) []models.ContractQuote {
	var filtered []models.ContractQuote
	for _, contracts := range strikes {
		if len(contracts) == 0 {
			continue
		}
		q := contracts[0]
		if q.TotalVolume > volumeFloor && q.Ask > priceFloor && q.Bid > priceFloor {
			filtered = append(filtered, q)
		}
	}
	if len(filtered) == 0 {
		return nil
	}

	mean := volumeMean(filtered)
	stdDev := volumeStdDev(filtered, mean)
	threshold := mean + stdDeviations*stdDev

	var unusual []models.ContractQuote
	for _, q := range filtered {
		if q.TotalVolume > volumeFloor && float64(q.TotalVolume) > threshold {
			unusual = append(unusual, q)
		}
	}
	return unusual
}

// volumeMean returns the average traded volume rounded to two decimals.
func volumeMean(quotes []models.ContractQuote) float64 {
	total := 0
	for _, q := range quotes {
		total += q.TotalVolume
	}
	return round2(float64(total) / float64(len(quotes)))
}

// volumeStdDev returns the population standard deviation of traded volume,
// rounded to two decimals.
func volumeStdDev(quotes []models.ContractQuote, mean float64) float64 {
	variance := 0.0
	for _, q := range quotes {
		diff := mean - float64(q.TotalVolume)
		variance += diff * diff
	}
	return round2(math.Sqrt(variance / float64(len(quotes))))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
