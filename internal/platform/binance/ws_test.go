package binance

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbscan/internal/domain"
)

func newTestFeed(events chan<- domain.SwapEvent) *TradeFeed {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewTradeFeed("wss://stream.example.org", "binance", map[string]string{"ETH/USDT": "ETHUSDT"}, events, logger)
}

func TestToEventTakerBuy(t *testing.T) {
	f := newTestFeed(nil)

	ev, err := f.toEvent("ETH/USDT", tradeMessage{
		Event:       "trade",
		Symbol:      "ETHUSDT",
		Price:       "2500.5",
		Quantity:    "2",
		TradeTimeMs: 1700000000000,
	})
	require.NoError(t, err)

	// Taker bought base: quote flowed in, base flowed out.
	assert.Equal(t, "binance", ev.Venue)
	assert.Equal(t, "ETH/USDT", ev.Pair)
	assert.InDelta(t, 5001.0, ev.QuoteIn, 1e-9)
	assert.InDelta(t, 2.0, ev.BaseOut, 1e-9)
	assert.Zero(t, ev.BaseIn)
	assert.Zero(t, ev.QuoteOut)
	assert.Equal(t, "buy_base", ev.Direction())
	assert.Equal(t, time.UnixMilli(1700000000000), ev.At)
}

func TestToEventTakerSell(t *testing.T) {
	f := newTestFeed(nil)

	ev, err := f.toEvent("ETH/USDT", tradeMessage{
		Event:        "trade",
		Symbol:       "ETHUSDT",
		Price:        "2500",
		Quantity:     "1.5",
		TradeTimeMs:  1700000000000,
		IsBuyerMaker: true,
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.5, ev.BaseIn, 1e-9)
	assert.InDelta(t, 3750.0, ev.QuoteOut, 1e-9)
	assert.Equal(t, "sell_base", ev.Direction())
}

func TestToEventMalformedPrice(t *testing.T) {
	f := newTestFeed(nil)

	_, err := f.toEvent("ETH/USDT", tradeMessage{Price: "oops", Quantity: "1"})
	assert.Error(t, err)
}

func TestDecodeFrameTrade(t *testing.T) {
	f := newTestFeed(nil)

	ev, ok := f.decodeFrame([]byte(`{"stream":"ethusdt@trade","data":{"e":"trade","s":"ETHUSDT","p":"2500","q":"1","T":1700000000000,"m":false}}`))
	require.True(t, ok)
	assert.Equal(t, "ETH/USDT", ev.Pair)
	assert.InDelta(t, 1.0, ev.BaseOut, 1e-9)
}

func TestDecodeFrameAckDoesNotReplayPriorTrade(t *testing.T) {
	f := newTestFeed(nil)

	_, ok := f.decodeFrame([]byte(`{"stream":"ethusdt@trade","data":{"e":"trade","s":"ETHUSDT","p":"2500","q":"1","T":1700000000000,"m":false}}`))
	require.True(t, ok)

	// A subscription ack carries no data field; it must not yield an event
	// even right after a trade frame.
	_, ok = f.decodeFrame([]byte(`{"result":null,"id":1}`))
	assert.False(t, ok)
}

func TestDecodeFrameUnknownSymbol(t *testing.T) {
	f := newTestFeed(nil)

	_, ok := f.decodeFrame([]byte(`{"stream":"dogeusdt@trade","data":{"e":"trade","s":"DOGEUSDT","p":"0.1","q":"5","T":1700000000000,"m":false}}`))
	assert.False(t, ok)
}

func TestDecodeFrameMalformedJSON(t *testing.T) {
	f := newTestFeed(nil)

	_, ok := f.decodeFrame([]byte(`{"stream":`))
	assert.False(t, ok)
}

func TestTradeFeedSymbolLookupIsCaseInsensitive(t *testing.T) {
	f := newTestFeed(nil)

	pair, ok := f.symbols["ethusdt"]
	require.True(t, ok)
	assert.Equal(t, "ETH/USDT", pair)
}
