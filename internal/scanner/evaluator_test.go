package scanner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbscan/internal/domain"
)

var ethUSDT = domain.Pair{Symbol: "ETH/USDT", BaseDecimals: 18, QuoteDecimals: 6}

func TestEvaluatePicksBestLegs(t *testing.T) {
	quotes := []domain.Quote{
		{Venue: "venue_a", Pair: "ETH/USDT", Bid: 99, Ask: 100, FeeFraction: 0.003},
		{Venue: "venue_b", Pair: "ETH/USDT", Bid: 102, Ask: 101, FeeFraction: 0.003},
	}

	opp, err := Evaluate(ethUSDT, quotes, false)
	require.NoError(t, err)

	assert.Equal(t, "venue_a", opp.Buy.Venue)
	assert.Equal(t, "venue_b", opp.Sell.Venue)
	assert.InDelta(t, 2.0, opp.GrossProfit, 1e-9)
	assert.InDelta(t, 0.3, opp.BuyFee, 1e-9)
	assert.InDelta(t, 0.306, opp.SellFee, 1e-9)
	assert.InDelta(t, 1.394, opp.NetProfit, 1e-9)
	assert.InDelta(t, 1.394, opp.NetProfitPct, 1e-9)
	assert.True(t, opp.Profitable())
	assert.NotEmpty(t, opp.ID)
	assert.False(t, opp.DetectedAt.IsZero())
}

func TestEvaluateNoQuotes(t *testing.T) {
	_, err := Evaluate(ethUSDT, nil, false)
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestEvaluateSingleVenueDegenerate(t *testing.T) {
	quotes := []domain.Quote{
		{Venue: "only", Pair: "ETH/USDT", Bid: 99, Ask: 100, FeeFraction: 0.001},
	}

	opp, err := Evaluate(ethUSDT, quotes, false)
	require.NoError(t, err)

	// Buying and selling on the same venue is a valid but losing outcome.
	assert.Equal(t, "only", opp.Buy.Venue)
	assert.Equal(t, "only", opp.Sell.Venue)
	assert.InDelta(t, -1.0, opp.GrossProfit, 1e-9)
	assert.False(t, opp.Profitable())
}

func TestEvaluateDropsZeroAskQuotes(t *testing.T) {
	quotes := []domain.Quote{
		{Venue: "drained_pool", Pair: "ETH/USDT", Bid: 0, Ask: 0},
		{Venue: "binance", Pair: "ETH/USDT", Bid: 99, Ask: 100, FeeFraction: 0.003},
	}

	opp, err := Evaluate(ethUSDT, quotes, false)
	require.NoError(t, err)

	// The zero-ask quote must never become the buy leg: that would divide
	// the percentage by zero and flag a bogus opportunity.
	assert.Equal(t, "binance", opp.Buy.Venue)
	assert.Equal(t, "binance", opp.Sell.Venue)
	assert.False(t, opp.Profitable())
	assert.False(t, math.IsInf(opp.NetProfitPct, 0))
}

func TestEvaluateAllQuotesUntradable(t *testing.T) {
	quotes := []domain.Quote{
		{Venue: "drained_pool", Pair: "ETH/USDT", Bid: 0, Ask: 0},
	}

	_, err := Evaluate(ethUSDT, quotes, false)
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestEvaluateTiesKeepFirstQuote(t *testing.T) {
	quotes := []domain.Quote{
		{Venue: "first", Pair: "ETH/USDT", Bid: 100, Ask: 101, FeeFraction: 0.001},
		{Venue: "second", Pair: "ETH/USDT", Bid: 100, Ask: 101, FeeFraction: 0.001},
	}

	opp, err := Evaluate(ethUSDT, quotes, false)
	require.NoError(t, err)

	assert.Equal(t, "first", opp.Buy.Venue)
	assert.Equal(t, "first", opp.Sell.Venue)
}

func TestEvaluateZeroFees(t *testing.T) {
	quotes := []domain.Quote{
		{Venue: "a", Pair: "ETH/USDT", Bid: 99, Ask: 100},
		{Venue: "b", Pair: "ETH/USDT", Bid: 103, Ask: 104},
	}

	opp, err := Evaluate(ethUSDT, quotes, false)
	require.NoError(t, err)

	assert.InDelta(t, 3.0, opp.GrossProfit, 1e-9)
	assert.InDelta(t, 3.0, opp.NetProfit, 1e-9)
	assert.InDelta(t, 3.0, opp.NetProfitPct, 1e-9)
}

func TestEvaluateTriggeredFlag(t *testing.T) {
	quotes := []domain.Quote{
		{Venue: "a", Pair: "ETH/USDT", Bid: 99, Ask: 100},
	}

	opp, err := Evaluate(ethUSDT, quotes, true)
	require.NoError(t, err)
	assert.True(t, opp.Triggered)

	opp, err = Evaluate(ethUSDT, quotes, false)
	require.NoError(t, err)
	assert.False(t, opp.Triggered)
}
