package domain

import "time"

// SwapEvent is a state-changing notification from a venue (an on-chain swap
// or a CEX trade print) for a monitored pair. The engine treats it purely as
// a re-evaluation trigger, never as price data; the amounts are logged for
// context only.
type SwapEvent struct {
	Venue        string
	Pair         string
	Counterparty string  // swap sender / taker, when the venue reports one
	BaseIn       float64 // base amount paid into the venue
	QuoteIn      float64 // quote amount paid into the venue
	BaseOut      float64 // base amount paid out of the venue
	QuoteOut     float64 // quote amount paid out of the venue
	At           time.Time
}

// Direction describes the trade from the counterparty's perspective.
func (e SwapEvent) Direction() string {
	switch {
	case e.BaseIn > 0 && e.QuoteOut > 0:
		return "sell_base"
	case e.QuoteIn > 0 && e.BaseOut > 0:
		return "buy_base"
	default:
		return "unknown"
	}
}
