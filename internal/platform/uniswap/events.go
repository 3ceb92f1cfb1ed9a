package uniswap

import (
	"context"
	"log/slog"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"arbscan/internal/domain"
)

// PoolBinding ties a monitored pool contract to its pair and token layout.
type PoolBinding struct {
	Pair         domain.Pair
	Address      common.Address
	BaseIsToken0 bool
}

// SwapFeed subscribes to Swap logs for a set of pool contracts over a
// WebSocket RPC endpoint and pushes a domain.SwapEvent per swap onto the
// events channel. It resubscribes with backoff on subscription failure.
type SwapFeed struct {
	wsRpcURL string
	venue    string
	pools    map[common.Address]PoolBinding
	events   chan<- domain.SwapEvent
	logger   *slog.Logger
}

// NewSwapFeed creates a feed over the given pool bindings. wsRpcURL must be a
// ws:// or wss:// endpoint; log subscriptions are not available over HTTP.
func NewSwapFeed(wsRpcURL, venue string, bindings []PoolBinding, events chan<- domain.SwapEvent, logger *slog.Logger) *SwapFeed {
	pools := make(map[common.Address]PoolBinding, len(bindings))
	for _, b := range bindings {
		pools[b.Address] = b
	}
	return &SwapFeed{
		wsRpcURL: wsRpcURL,
		venue:    venue,
		pools:    pools,
		events:   events,
		logger:   logger.With(slog.String("component", "swap_feed"), slog.String("venue", venue)),
	}
}

// Run subscribes to Swap logs for all configured pools and runs until ctx is
// cancelled, resubscribing with backoff after errors.
func (f *SwapFeed) Run(ctx context.Context) error {
	if len(f.pools) == 0 {
		f.logger.Info("no pools to watch, exiting")
		return nil
	}

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := f.runSubscription(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Warn("swap subscription dropped, resubscribing",
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

// runSubscription holds one log subscription until it errors or ctx is
// cancelled.
func (f *SwapFeed) runSubscription(ctx context.Context) error {
	eth, err := ethclient.DialContext(ctx, f.wsRpcURL)
	if err != nil {
		return err
	}
	defer eth.Close()

	addresses := make([]common.Address, 0, len(f.pools))
	for addr := range f.pools {
		addresses = append(addresses, addr)
	}
	query := ethereum.FilterQuery{
		Addresses: addresses,
		Topics:    [][]common.Hash{{pairABI.Events["Swap"].ID}},
	}

	logs := make(chan types.Log, 64)
	sub, err := eth.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	f.logger.Info("subscribed to swap logs", slog.Int("pools", len(addresses)))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return err
		case lg := <-logs:
			ev, ok := f.decodeSwap(lg)
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
}

// decodeSwap turns a raw Swap log into a domain.SwapEvent with amounts scaled
// by the pair's configured token decimals.
func (f *SwapFeed) decodeSwap(lg types.Log) (domain.SwapEvent, bool) {
	binding, ok := f.pools[lg.Address]
	if !ok {
		return domain.SwapEvent{}, false
	}

	vals, err := pairABI.Unpack("Swap", lg.Data)
	if err != nil || len(vals) < 4 {
		f.logger.Warn("malformed swap log",
			slog.String("pool", lg.Address.Hex()),
			slog.String("tx", lg.TxHash.Hex()),
		)
		return domain.SwapEvent{}, false
	}

	amount0In, _ := vals[0].(*big.Int)
	amount1In, _ := vals[1].(*big.Int)
	amount0Out, _ := vals[2].(*big.Int)
	amount1Out, _ := vals[3].(*big.Int)
	if amount0In == nil || amount1In == nil || amount0Out == nil || amount1Out == nil {
		return domain.SwapEvent{}, false
	}

	baseScale := math.Pow10(binding.Pair.BaseDecimals)
	quoteScale := math.Pow10(binding.Pair.QuoteDecimals)

	ev := domain.SwapEvent{
		Venue: f.venue,
		Pair:  binding.Pair.Symbol,
		At:    time.Now(),
	}
	if len(lg.Topics) > 1 {
		ev.Counterparty = common.BytesToAddress(lg.Topics[1].Bytes()).Hex()
	}

	if binding.BaseIsToken0 {
		ev.BaseIn = toFloat(amount0In) / baseScale
		ev.QuoteIn = toFloat(amount1In) / quoteScale
		ev.BaseOut = toFloat(amount0Out) / baseScale
		ev.QuoteOut = toFloat(amount1Out) / quoteScale
	} else {
		ev.QuoteIn = toFloat(amount0In) / quoteScale
		ev.BaseIn = toFloat(amount1In) / baseScale
		ev.QuoteOut = toFloat(amount0Out) / quoteScale
		ev.BaseOut = toFloat(amount1Out) / baseScale
	}
	return ev, true
}

func toFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
