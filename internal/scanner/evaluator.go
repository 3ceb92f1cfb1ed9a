package scanner

import (
	"time"

	"github.com/google/uuid"

	"arbscan/internal/domain"
)

// Evaluate selects the cheapest buy leg and richest sell leg from one pair's
// quotes and computes fee-adjusted profit. It returns domain.ErrNoData when
// no tradable quote remains (empty input, or every quote has a non-positive
// ask). Buy and sell may be the same venue when it holds both the lowest ask
// and the highest bid; that degenerate outcome is valid.
func Evaluate(pair domain.Pair, quotes []domain.Quote, triggered bool) (domain.Opportunity, error) {
	// A quote with a non-positive ask is not tradable and would make the
	// percentage meaningless; drop it before leg selection.
	tradable := make([]domain.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.Ask > 0 {
			tradable = append(tradable, q)
		}
	}
	if len(tradable) == 0 {
		return domain.Opportunity{}, domain.ErrNoData
	}

	// Ties keep the first-encountered quote in input order.
	buy := tradable[0]
	sell := tradable[0]
	for _, q := range tradable[1:] {
		if q.Ask < buy.Ask {
			buy = q
		}
		if q.Bid > sell.Bid {
			sell = q
		}
	}

	gross := sell.Bid - buy.Ask
	buyFee := buy.Ask * buy.FeeFraction
	sellFee := sell.Bid * sell.FeeFraction
	net := gross - buyFee - sellFee

	return domain.Opportunity{
		ID:           uuid.Must(uuid.NewRandom()).String(),
		Pair:         pair.Symbol,
		Buy:          buy,
		Sell:         sell,
		GrossProfit:  gross,
		BuyFee:       buyFee,
		SellFee:      sellFee,
		NetProfit:    net,
		NetProfitPct: net / buy.Ask * 100,
		Triggered:    triggered,
		DetectedAt:   time.Now(),
	}, nil
}
