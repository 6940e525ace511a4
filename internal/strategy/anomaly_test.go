package strategy

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mautomic/optrader/internal/models"
)

func liquidQuote(symbol string, volume int) []models.ContractQuote {
	return []models.ContractQuote{{Symbol: symbol, Bid: 1.00, Ask: 1.10, TotalVolume: volume}}
}

func TestUnusualVolumeFlagsOutlier(t *testing.T) {
	// Twenty strikes trading around 20 contracts, one at 35, and one at
	// 500. Only the 500-volume contract clears mean + 4 stddev.
	strikes := models.StrikeMap{}
	var filtered []models.ContractQuote
	for i := 0; i < 20; i++ {
		vol := 15
		if i%2 == 0 {
			vol = 25
		}
		key := fmt.Sprintf("%d.0", 400+i*5)
		strikes[key] = liquidQuote(fmt.Sprintf("PEER%d", i), vol)
		filtered = append(filtered, strikes[key][0])
	}
	strikes["500.0"] = liquidQuote("MODEST", 35)
	strikes["505.0"] = liquidQuote("SPIKE", 500)
	filtered = append(filtered, strikes["500.0"][0], strikes["505.0"][0])

	mean := volumeMean(filtered)
	stdDev := volumeStdDev(filtered, mean)
	threshold := mean + 4*stdDev

	unusual := unusualVolume(strikes)
	assert.Len(t, unusual, 1)
	assert.Equal(t, "SPIKE", unusual[0].Symbol)
	assert.Greater(t, float64(500), threshold)
	assert.Less(t, float64(35), threshold)
}

func TestUnusualVolumeUniformVolumesNeverFlag(t *testing.T) {
	strikes := models.StrikeMap{
		"440.0": liquidQuote("A", 5000),
		"445.0": liquidQuote("B", 5000),
		"450.0": liquidQuote("C", 5000),
	}
	// Standard deviation is 0 but no volume exceeds the mean.
	assert.Empty(t, unusualVolume(strikes))
}

func TestUnusualVolumeFiltersIlliquidQuotes(t *testing.T) {
	strikes := models.StrikeMap{
		"440.0": {{Symbol: "A", Bid: 0.05, Ask: 1.00, TotalVolume: 900}}, // bid too low
		"445.0": {{Symbol: "B", Bid: 1.00, Ask: 0.05, TotalVolume: 900}}, // ask too low
		"450.0": {{Symbol: "C", Bid: 1.00, Ask: 1.10, TotalVolume: 5}},   // volume too low
	}
	assert.Empty(t, unusualVolume(strikes))
}

func TestUnusualVolumeEmptyStrikeMap(t *testing.T) {
	assert.Empty(t, unusualVolume(models.StrikeMap{}))
	assert.Empty(t, unusualVolume(models.StrikeMap{"450.0": {}}))
}

func TestVolumeStatsInvariantUnderReordering(t *testing.T) {
	quotes := []models.ContractQuote{
		{TotalVolume: 15}, {TotalVolume: 22}, {TotalVolume: 37}, {TotalVolume: 101},
	}
	reversed := []models.ContractQuote{
		{TotalVolume: 101}, {TotalVolume: 37}, {TotalVolume: 22}, {TotalVolume: 15},
	}

	m1 := volumeMean(quotes)
	m2 := volumeMean(reversed)
	assert.InDelta(t, m1, m2, 1e-9)
	assert.InDelta(t, volumeStdDev(quotes, m1), volumeStdDev(reversed, m2), 1e-9)
}

func TestVolumeStatsRounding(t *testing.T) {
	quotes := []models.ContractQuote{
		{TotalVolume: 10}, {TotalVolume: 11}, {TotalVolume: 13},
	}
	assert.InDelta(t, 11.33, volumeMean(quotes), 1e-9)
}
