package source

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"arbscan/internal/domain"
)

// ReserveReader is the venue-side collaborator for liquidity-pool venues.
type ReserveReader interface {
	GetReserves(ctx context.Context, pool common.Address) (reserve0, reserve1 *big.Int, err error)
}

// PoolBinding ties a pair to one pool contract and its token layout.
type PoolBinding struct {
	Address      common.Address
	BaseIsToken0 bool
}

// Pool fetches quotes from a liquidity pool. The pool exposes only reserves,
// so the mid price is the decimal-scaled reserve ratio and bid/ask are
// derived by applying a fixed synthetic half-spread around it.
type Pool struct {
	venue      string
	client     ReserveReader
	pools      map[string]PoolBinding // pair symbol -> binding
	halfSpread float64
	defaultFee float64
	fees       domain.FeeRegistry // optional
	limiter    domain.RateLimiter
	logger     *slog.Logger
}

// NewPool creates a pool price source. fees may be nil; the default fee is
// then used unconditionally.
func NewPool(venue string, client ReserveReader, pools map[string]PoolBinding, halfSpread, defaultFee float64, fees domain.FeeRegistry, limiter domain.RateLimiter, logger *slog.Logger) *Pool {
	return &Pool{
		venue:      venue,
		client:     client,
		pools:      pools,
		halfSpread: halfSpread,
		defaultFee: defaultFee,
		fees:       fees,
		limiter:    limiter,
		logger:     logger.With(slog.String("component", "pool_source"), slog.String("venue", venue)),
	}
}

// Venue returns the venue identifier.
func (s *Pool) Venue() string { return s.venue }

// Covers reports whether a pool is configured for pair.
func (s *Pool) Covers(pair domain.Pair) bool {
	_, ok := s.pools[pair.Symbol]
	return ok
}

// Fetch acquires the rate-limit permit, reads the pool reserves, and
// normalizes them into a Quote. The decimal scales come from the pair's
// static configuration, never from inference.
func (s *Pool) Fetch(ctx context.Context, pair domain.Pair) (domain.Quote, error) {
	binding, ok := s.pools[pair.Symbol]
	if !ok {
		return domain.Quote{}, &domain.FetchError{Venue: s.venue, Pair: pair.Symbol, Cause: domain.ErrNoVenue}
	}

	if err := s.limiter.Wait(ctx, s.venue); err != nil {
		return domain.Quote{}, &domain.FetchError{Venue: s.venue, Pair: pair.Symbol, Cause: err}
	}

	reserve0, reserve1, err := s.client.GetReserves(ctx, binding.Address)
	if err != nil {
		return domain.Quote{}, &domain.FetchError{Venue: s.venue, Pair: pair.Symbol, Cause: err}
	}

	baseReserve, quoteReserve := reserve0, reserve1
	if !binding.BaseIsToken0 {
		baseReserve, quoteReserve = reserve1, reserve0
	}

	mid, err := midPrice(baseReserve, quoteReserve, pair.BaseDecimals, pair.QuoteDecimals)
	if err != nil {
		return domain.Quote{}, &domain.FetchError{Venue: s.venue, Pair: pair.Symbol, Cause: err}
	}

	// Fee lookup failure is non-fatal: log and fall back to the default.
	fee := s.defaultFee
	if s.fees != nil {
		if verified, err := s.fees.Fee(ctx, pair); err != nil {
			s.logger.Warn("fee lookup failed, using default",
				slog.String("pair", pair.Symbol),
				slog.Float64("default_fee", s.defaultFee),
				slog.String("error", err.Error()),
			)
		} else {
			fee = verified
		}
	}

	return domain.Quote{
		Venue:       s.venue,
		Pair:        pair.Symbol,
		Bid:         mid * (1 - s.halfSpread),
		Ask:         mid * (1 + s.halfSpread),
		FeeFraction: fee,
		ObservedAt:  time.Now(),
	}, nil
}

// midPrice converts raw reserves into a quote-per-base price using the
// configured decimal scales.
func midPrice(baseReserve, quoteReserve *big.Int, baseDecimals, quoteDecimals int) (float64, error) {
	base, _ := new(big.Float).SetInt(baseReserve).Float64()
	quote, _ := new(big.Float).SetInt(quoteReserve).Float64()

	baseAmount := base / math.Pow10(baseDecimals)
	quoteAmount := quote / math.Pow10(quoteDecimals)

	if baseAmount <= 0 {
		return 0, fmt.Errorf("pool has no base reserve")
	}
	if quoteAmount <= 0 {
		return 0, fmt.Errorf("pool has no quote reserve")
	}
	return quoteAmount / baseAmount, nil
}

// Compile-time interface check.
var _ domain.PriceSource = (*Pool)(nil)
