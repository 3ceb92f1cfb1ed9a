package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairBaseQuote(t *testing.T) {
	p := Pair{Symbol: "ETH/USDT"}
	assert.Equal(t, "ETH", p.Base())
	assert.Equal(t, "USDT", p.Quote())

	malformed := Pair{Symbol: "ETHUSDT"}
	assert.Equal(t, "ETHUSDT", malformed.Base())
	assert.Equal(t, "", malformed.Quote())
}

func TestFetchErrorUnwrap(t *testing.T) {
	cause := errors.New("dial timeout")
	err := &FetchError{Venue: "binance", Pair: "ETH/USDT", Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "binance")
	assert.Contains(t, err.Error(), "ETH/USDT")
}

func TestSwapEventDirection(t *testing.T) {
	assert.Equal(t, "sell_base", SwapEvent{BaseIn: 1, QuoteOut: 2500}.Direction())
	assert.Equal(t, "buy_base", SwapEvent{QuoteIn: 2500, BaseOut: 1}.Direction())
	assert.Equal(t, "unknown", SwapEvent{}.Direction())
}

func TestOpportunityProfitable(t *testing.T) {
	assert.True(t, Opportunity{NetProfitPct: 0.01}.Profitable())
	assert.False(t, Opportunity{NetProfitPct: 0}.Profitable())
	assert.False(t, Opportunity{NetProfitPct: -1.2}.Profitable())
}
