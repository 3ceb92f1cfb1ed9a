package domain

import "context"

// PriceSource produces a normalized Quote for one pair from one venue. A
// failed fetch returns a *FetchError; callers drop the venue from the cycle
// rather than aborting.
type PriceSource interface {
	// Venue returns the venue identifier the source fetches from.
	Venue() string
	// Covers reports whether the venue has a handle configured for pair.
	Covers(pair Pair) bool
	// Fetch acquires the venue's rate-limit permit, retrieves raw price data,
	// and normalizes it into a Quote.
	Fetch(ctx context.Context, pair Pair) (Quote, error)
}

// FeeRegistry resolves a verified fee fraction for a (venue, pair). Sources
// fall back to the configured default fee on any lookup failure; a fee lookup
// failure is never fatal to the quote.
type FeeRegistry interface {
	Fee(ctx context.Context, pair Pair) (float64, error)
}

// RateLimiter spaces successive calls attributed to the same venue. Venues
// are independent: concurrent waits on different venues never serialize.
type RateLimiter interface {
	Wait(ctx context.Context, venue string) error
}

// QuoteCache stores the latest observed quote per (venue, pair). Best-effort:
// the scan cycle proceeds on cache errors.
type QuoteCache interface {
	SetQuote(ctx context.Context, q Quote) error
	GetQuote(ctx context.Context, venue, pair string) (Quote, error)
}

// OpportunityStore records profitable detections for later analysis.
type OpportunityStore interface {
	Insert(ctx context.Context, opp Opportunity) error
	ListRecent(ctx context.Context, limit int) ([]Opportunity, error)
}
