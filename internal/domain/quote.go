package domain

import (
	"fmt"
	"time"
)

// Quote is the normalized result of querying one (venue, pair) combination.
// Quotes are value objects: created fresh per fetch, never mutated, discarded
// after evaluation. Bid and Ask are independently derived for pool venues
// (mid price with a synthetic spread), so Bid <= Ask is not structurally
// guaranteed.
type Quote struct {
	Venue       string
	Pair        string
	Bid         float64
	Ask         float64
	FeeFraction float64 // per-trade fee, in [0, 1)
	ObservedAt  time.Time
}

// FetchError wraps a failure to produce a quote for one (venue, pair). It is
// recovered locally by the aggregator: the venue's quote is excluded from the
// cycle and the scan continues.
type FetchError struct {
	Venue string
	Pair  string
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s %s: %v", e.Venue, e.Pair, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}
