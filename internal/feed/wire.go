package feed

import (
	"github.com/mautomic/optrader/internal/models"
)

// chainResponse mirrors the market-data API's option chain payload.
type chainResponse struct {
	Symbol          string                                `json:"symbol"`
	UnderlyingPrice float64                               `json:"underlyingPrice"`
	CallExpDateMap  map[string]map[string][]wireContract  `json:"callExpDateMap"`
	PutExpDateMap   map[string]map[string][]wireContract  `json:"putExpDateMap"`
}

type wireContract struct {
	Symbol           string  `json:"symbol"`
	StrikePrice      float64 `json:"strikePrice"`
	Bid              float64 `json:"bid"`
	Ask              float64 `json:"ask"`
	Last             float64 `json:"last"`
	TotalVolume      int     `json:"totalVolume"`
	DaysToExpiration int     `json:"daysToExpiration"`
	Volatility       float64 `json:"volatility"`
	Delta            float64 `json:"delta"`
	Gamma            float64 `json:"gamma"`
	Theta            float64 `json:"theta"`
	Vega             float64 `json:"vega"`
}

func (w wireContract) toQuote() models.ContractQuote {
	return models.ContractQuote{
		Symbol:           w.Symbol,
		Strike:           w.StrikePrice,
		Bid:              w.Bid,
		Ask:              w.Ask,
		Last:             w.Last,
		TotalVolume:      w.TotalVolume,
		DaysToExpiration: w.DaysToExpiration,
		Volatility:       w.Volatility,
		Delta:            w.Delta,
		Gamma:            w.Gamma,
		Theta:            w.Theta,
		Vega:             w.Vega,
	}
}

func convertSide(side map[string]map[string][]wireContract) map[string]models.StrikeMap {
	out := make(map[string]models.StrikeMap, len(side))
	for expiry, strikes := range side {
		sm := make(models.StrikeMap, len(strikes))
		for strike, contracts := range strikes {
			quotes := make([]models.ContractQuote, 0, len(contracts))
			for _, c := range contracts {
				quotes = append(quotes, c.toQuote())
			}
			sm[strike] = quotes
		}
		out[expiry] = sm
	}
	return out
}

func (r *chainResponse) toSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Ticker:          r.Symbol,
		UnderlyingPrice: r.UnderlyingPrice,
		Calls:           convertSide(r.CallExpDateMap),
		Puts:            convertSide(r.PutExpDateMap),
	}
}
