package domain

import "time"

// Opportunity is the outcome of evaluating one pair's quotes in one cycle:
// the cheapest buy leg, the richest sell leg, and the fee-adjusted profit.
// It is produced once per cycle, consumed by the formatter/notifier, and only
// persisted when an opportunity store is configured and the result is
// profitable.
type Opportunity struct {
	ID           string
	Pair         string
	Buy          Quote // leg with the lowest ask
	Sell         Quote // leg with the highest bid
	GrossProfit  float64
	BuyFee       float64
	SellFee      float64
	NetProfit    float64
	NetProfitPct float64 // net profit as a percentage of the buy cost
	Triggered    bool    // true when evaluation was started by a venue event
	DetectedAt   time.Time
}

// Profitable reports whether the opportunity clears fees. Both outcomes are
// valid results; a non-profitable one is an informational market update.
func (o Opportunity) Profitable() bool {
	return o.NetProfitPct > 0
}
