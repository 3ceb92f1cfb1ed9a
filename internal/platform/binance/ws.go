package binance

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"arbscan/internal/domain"
)

// TradeFeed subscribes to the public trade stream for a set of venue symbols
// and pushes a domain.SwapEvent per trade print onto the events channel. It
// reconnects with exponential backoff on disconnect.
type TradeFeed struct {
	wsHost  string
	venue   string
	symbols map[string]string // venue symbol (lowercase) -> pair symbol
	events  chan<- domain.SwapEvent
	logger  *slog.Logger
}

// NewTradeFeed creates a trade feed for the given pair->symbol table. wsHost
// is the stream root, e.g. "wss://stream.binance.com:9443".
func NewTradeFeed(wsHost, venue string, symbols map[string]string, events chan<- domain.SwapEvent, logger *slog.Logger) *TradeFeed {
	bySymbol := make(map[string]string, len(symbols))
	for pair, sym := range symbols {
		bySymbol[strings.ToLower(sym)] = pair
	}
	return &TradeFeed{
		wsHost:  wsHost,
		venue:   venue,
		symbols: bySymbol,
		events:  events,
		logger:  logger.With(slog.String("component", "binance_trade_feed")),
	}
}

// tradeMessage is the wire shape of a <symbol>@trade stream message.
type tradeMessage struct {
	Event        string `json:"e"`
	Symbol       string `json:"s"`
	Price        string `json:"p"`
	Quantity     string `json:"q"`
	TradeTimeMs  int64  `json:"T"`
	IsBuyerMaker bool   `json:"m"`
}

// Run connects to the combined trade stream for all configured symbols and
// runs until ctx is cancelled, reconnecting with backoff on disconnect.
func (f *TradeFeed) Run(ctx context.Context) error {
	if len(f.symbols) == 0 {
		f.logger.Info("no symbols to stream, exiting")
		return nil
	}

	streams := make([]string, 0, len(f.symbols))
	for sym := range f.symbols {
		streams = append(streams, sym+"@trade")
	}
	wsURL := f.wsHost + "/stream?streams=" + strings.Join(streams, "/")

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		f.logger.Info("connecting to trade stream", slog.String("url", wsURL))
		err := f.runConnection(ctx, wsURL)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Warn("trade stream disconnected, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("backoff", backoff),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

// runConnection reads one connection until it drops or ctx is cancelled.
func (f *TradeFeed) runConnection(ctx context.Context, wsURL string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock ReadMessage when the context is cancelled.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		ev, ok := f.decodeFrame(raw)
		if !ok {
			continue
		}

		select {
		case f.events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// decodeFrame unpacks one stream frame into a SwapEvent. The combined stream
// wraps each payload in {"stream": ..., "data": ...}; frames without a data
// field (subscription acks and other control payloads) are dropped.
func (f *TradeFeed) decodeFrame(raw []byte) (domain.SwapEvent, bool) {
	var envelope struct {
		Stream string          `json:"stream"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		f.logger.Warn("malformed stream message", slog.String("error", err.Error()))
		return domain.SwapEvent{}, false
	}
	if len(envelope.Data) == 0 {
		return domain.SwapEvent{}, false
	}

	var msg tradeMessage
	if err := json.Unmarshal(envelope.Data, &msg); err != nil || msg.Event != "trade" {
		return domain.SwapEvent{}, false
	}

	pair, ok := f.symbols[strings.ToLower(msg.Symbol)]
	if !ok {
		return domain.SwapEvent{}, false
	}

	ev, err := f.toEvent(pair, msg)
	if err != nil {
		f.logger.Warn("malformed trade print",
			slog.String("symbol", msg.Symbol),
			slog.String("error", err.Error()),
		)
		return domain.SwapEvent{}, false
	}
	return ev, true
}

// toEvent maps a trade print into a SwapEvent from the taker's perspective.
// IsBuyerMaker means the taker sold base into the book.
func (f *TradeFeed) toEvent(pair string, msg tradeMessage) (domain.SwapEvent, error) {
	price, err := strconv.ParseFloat(msg.Price, 64)
	if err != nil {
		return domain.SwapEvent{}, err
	}
	qty, err := strconv.ParseFloat(msg.Quantity, 64)
	if err != nil {
		return domain.SwapEvent{}, err
	}

	ev := domain.SwapEvent{
		Venue: f.venue,
		Pair:  pair,
		At:    time.UnixMilli(msg.TradeTimeMs),
	}
	if msg.IsBuyerMaker {
		ev.BaseIn = qty
		ev.QuoteOut = price * qty
	} else {
		ev.QuoteIn = price * qty
		ev.BaseOut = qty
	}
	return ev, nil
}
