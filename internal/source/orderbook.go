// Package source adapts venue clients into domain.PriceSource
// implementations: every fetch goes through the venue's rate-limit permit,
// normalizes the raw venue data into a Quote, and resolves the fee fraction
// with a non-fatal fallback to the configured default.
package source

import (
	"context"
	"time"

	"arbscan/internal/domain"
)

// BookTickerClient is the venue-side collaborator for order-book venues.
type BookTickerClient interface {
	BestBidAsk(ctx context.Context, symbol string) (bid, ask float64, err error)
}

// OrderBook fetches quotes from a centralized exchange order book. Bid and
// ask are taken directly from the book; the fee is the venue's configured
// taker fee, or the default when none is set.
type OrderBook struct {
	venue      string
	client     BookTickerClient
	symbols    map[string]string // pair symbol -> venue symbol
	takerFee   float64
	defaultFee float64
	limiter    domain.RateLimiter
}

// NewOrderBook creates an order-book price source.
func NewOrderBook(venue string, client BookTickerClient, symbols map[string]string, takerFee, defaultFee float64, limiter domain.RateLimiter) *OrderBook {
	return &OrderBook{
		venue:      venue,
		client:     client,
		symbols:    symbols,
		takerFee:   takerFee,
		defaultFee: defaultFee,
		limiter:    limiter,
	}
}

// Venue returns the venue identifier.
func (s *OrderBook) Venue() string { return s.venue }

// Covers reports whether a venue symbol is configured for pair.
func (s *OrderBook) Covers(pair domain.Pair) bool {
	_, ok := s.symbols[pair.Symbol]
	return ok
}

// Fetch acquires the rate-limit permit, queries the venue's best bid/ask, and
// returns the normalized quote.
func (s *OrderBook) Fetch(ctx context.Context, pair domain.Pair) (domain.Quote, error) {
	symbol, ok := s.symbols[pair.Symbol]
	if !ok {
		return domain.Quote{}, &domain.FetchError{Venue: s.venue, Pair: pair.Symbol, Cause: domain.ErrNoVenue}
	}

	if err := s.limiter.Wait(ctx, s.venue); err != nil {
		return domain.Quote{}, &domain.FetchError{Venue: s.venue, Pair: pair.Symbol, Cause: err}
	}

	bid, ask, err := s.client.BestBidAsk(ctx, symbol)
	if err != nil {
		return domain.Quote{}, &domain.FetchError{Venue: s.venue, Pair: pair.Symbol, Cause: err}
	}

	fee := s.takerFee
	if fee <= 0 {
		fee = s.defaultFee
	}

	return domain.Quote{
		Venue:       s.venue,
		Pair:        pair.Symbol,
		Bid:         bid,
		Ask:         ask,
		FeeFraction: fee,
		ObservedAt:  time.Now(),
	}, nil
}

// Compile-time interface check.
var _ domain.PriceSource = (*OrderBook)(nil)
