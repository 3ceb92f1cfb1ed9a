package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbscan/internal/domain"
)

var ethUSDT = domain.Pair{Symbol: "ETH/USDT", BaseDecimals: 18, QuoteDecimals: 6}

// nopLimiter grants every permit immediately.
type nopLimiter struct{}

func (nopLimiter) Wait(_ context.Context, _ string) error { return nil }

// stubTicker is a scripted BookTickerClient.
type stubTicker struct {
	bid, ask float64
	err      error
	symbol   string // last requested symbol
}

func (s *stubTicker) BestBidAsk(_ context.Context, symbol string) (float64, float64, error) {
	s.symbol = symbol
	if s.err != nil {
		return 0, 0, s.err
	}
	return s.bid, s.ask, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOrderBookFetch(t *testing.T) {
	ticker := &stubTicker{bid: 2499.5, ask: 2500.5}
	src := NewOrderBook("binance", ticker, map[string]string{"ETH/USDT": "ETHUSDT"}, 0.001, 0.003, nopLimiter{})

	q, err := src.Fetch(context.Background(), ethUSDT)
	require.NoError(t, err)

	assert.Equal(t, "ETHUSDT", ticker.symbol)
	assert.Equal(t, "binance", q.Venue)
	assert.Equal(t, "ETH/USDT", q.Pair)
	assert.Equal(t, 2499.5, q.Bid)
	assert.Equal(t, 2500.5, q.Ask)
	assert.Equal(t, 0.001, q.FeeFraction)
	assert.False(t, q.ObservedAt.IsZero())
}

func TestOrderBookFeeFallback(t *testing.T) {
	src := NewOrderBook("binance", &stubTicker{bid: 1, ask: 2}, map[string]string{"ETH/USDT": "ETHUSDT"}, 0, 0.003, nopLimiter{})

	q, err := src.Fetch(context.Background(), ethUSDT)
	require.NoError(t, err)
	assert.Equal(t, 0.003, q.FeeFraction)
}

func TestOrderBookCovers(t *testing.T) {
	src := NewOrderBook("binance", &stubTicker{}, map[string]string{"ETH/USDT": "ETHUSDT"}, 0, 0.003, nopLimiter{})

	assert.True(t, src.Covers(ethUSDT))
	assert.False(t, src.Covers(domain.Pair{Symbol: "DOGE/USDT"}))
}

func TestOrderBookFetchUnknownPair(t *testing.T) {
	src := NewOrderBook("binance", &stubTicker{}, map[string]string{}, 0, 0.003, nopLimiter{})

	_, err := src.Fetch(context.Background(), ethUSDT)
	require.Error(t, err)

	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "binance", fe.Venue)
	assert.ErrorIs(t, err, domain.ErrNoVenue)
}

func TestOrderBookFetchClientError(t *testing.T) {
	cause := errors.New("connection refused")
	src := NewOrderBook("binance", &stubTicker{err: cause}, map[string]string{"ETH/USDT": "ETHUSDT"}, 0, 0.003, nopLimiter{})

	_, err := src.Fetch(context.Background(), ethUSDT)
	require.Error(t, err)

	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, cause)
}
