package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"arbscan/internal/cache/redis"
	"arbscan/internal/config"
	"arbscan/internal/domain"
	"arbscan/internal/notify"
	"arbscan/internal/platform/binance"
	"arbscan/internal/platform/kraken"
	"arbscan/internal/platform/uniswap"
	"arbscan/internal/ratelimit"
	"arbscan/internal/scanner"
	"arbscan/internal/source"
	"arbscan/internal/store/postgres"
)

// runner is a long-lived goroutine started by an application mode.
type runner interface {
	Run(ctx context.Context) error
}

// Dependencies bundles everything the application modes need to operate. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Pairs      []domain.Pair
	VenueNames []string

	Scanner  *scanner.Scanner
	Trigger  *scanner.Trigger
	Feeds    []runner
	Notifier *notify.Notifier

	Quotes domain.QuoteCache       // nil when Redis is not configured
	Store  domain.OpportunityStore // nil when Postgres is not configured
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	pairs := make([]domain.Pair, 0, len(cfg.Pairs))
	pairBySymbol := make(map[string]domain.Pair, len(cfg.Pairs))
	for _, p := range cfg.Pairs {
		pair := domain.Pair{
			Symbol:        p.Symbol,
			BaseDecimals:  p.BaseDecimals,
			QuoteDecimals: p.QuoteDecimals,
		}
		pairs = append(pairs, pair)
		pairBySymbol[p.Symbol] = pair
	}
	deps.Pairs = pairs

	limiter := ratelimit.NewLimiter(time.Duration(cfg.Scanner.RateLimitMs) * time.Millisecond)

	events := make(chan domain.SwapEvent, 64)

	// Venue names are iterated in sorted order so source construction and
	// startup logging are deterministic.
	names := make([]string, 0, len(cfg.Venues))
	for name := range cfg.Venues {
		names = append(names, name)
	}
	sort.Strings(names)
	deps.VenueNames = names

	var sources []domain.PriceSource
	for _, name := range names {
		vc := cfg.Venues[name]
		switch vc.Kind {
		case config.VenueKindOrderBook:
			src, feed, err := wireOrderBookVenue(name, vc, cfg, limiter, events, logger)
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			sources = append(sources, src)
			if feed != nil {
				deps.Feeds = append(deps.Feeds, feed)
			}

		case config.VenueKindPool:
			src, feed, closer, err := wirePoolVenue(ctx, name, vc, cfg, pairBySymbol, limiter, events, logger)
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			closers = append(closers, closer)
			sources = append(sources, src)
			if feed != nil {
				deps.Feeds = append(deps.Feeds, feed)
			}
		}
	}

	// --- Redis quote cache (optional) ---
	if cfg.RedisEnabled() {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		ttl := time.Duration(cfg.Redis.QuoteTTLSeconds) * time.Second
		deps.Quotes = redis.NewQuoteCache(redisClient, ttl)
	}

	// --- Postgres opportunity history (optional) ---
	if cfg.PostgresEnabled() {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.Store = postgres.NewOpportunityStore(pgClient.Pool())
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Scanner pipeline ---
	agg := scanner.NewAggregator(sources, logger)
	deps.Scanner = scanner.New(scanner.Config{
		ScanInterval:         cfg.Scanner.ScanInterval.Duration,
		MinProfitPct:         cfg.Scanner.MinProfitPct,
		MarketUpdateInterval: cfg.Scanner.MarketUpdateInterval.Duration,
	}, agg, pairs, deps.Notifier, deps.Quotes, deps.Store, logger)
	deps.Trigger = scanner.NewTrigger(events, deps.Scanner, pairs, logger)

	return deps, cleanup, nil
}

// wireOrderBookVenue builds the price source (and optional trade feed) for one
// centralized exchange. The venue name selects the REST driver.
func wireOrderBookVenue(
	name string,
	vc config.VenueConfig,
	cfg *config.Config,
	limiter domain.RateLimiter,
	events chan<- domain.SwapEvent,
	logger *slog.Logger,
) (domain.PriceSource, runner, error) {
	var client source.BookTickerClient
	switch name {
	case "binance":
		client = binance.NewClient(vc.RestHost)
	case "kraken":
		client = kraken.NewClient(vc.RestHost)
	default:
		return nil, nil, fmt.Errorf("wire: venue %q: no order-book driver (supported: binance, kraken)", name)
	}

	src := source.NewOrderBook(name, client, vc.Symbols, vc.TakerFee, cfg.Scanner.DefaultFee, limiter)

	var feed runner
	if vc.Events {
		if name != "binance" {
			logger.Warn("venue has no trade event feed, events disabled",
				slog.String("venue", name),
			)
		} else if vc.WsHost == "" {
			logger.Warn("events enabled but ws_host is empty, events disabled",
				slog.String("venue", name),
			)
		} else {
			feed = binance.NewTradeFeed(vc.WsHost, name, vc.Symbols, events, logger)
		}
	}
	return src, feed, nil
}

// wirePoolVenue builds the price source (and optional swap feed) for one
// on-chain liquidity venue. The returned closer releases the RPC connection.
func wirePoolVenue(
	ctx context.Context,
	name string,
	vc config.VenueConfig,
	cfg *config.Config,
	pairBySymbol map[string]domain.Pair,
	limiter domain.RateLimiter,
	events chan<- domain.SwapEvent,
	logger *slog.Logger,
) (domain.PriceSource, runner, func(), error) {
	client, err := uniswap.Dial(ctx, vc.RpcURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("wire: venue %q: %w", name, err)
	}

	srcBindings := make(map[string]source.PoolBinding, len(vc.Pools))
	feedBindings := make([]uniswap.PoolBinding, 0, len(vc.Pools))
	poolAddrs := make(map[string]string, len(vc.Pools))
	for pairSym, pc := range vc.Pools {
		addr := common.HexToAddress(pc.Address)
		srcBindings[pairSym] = source.PoolBinding{
			Address:      addr,
			BaseIsToken0: pc.BaseIsToken0,
		}
		feedBindings = append(feedBindings, uniswap.PoolBinding{
			Pair:         pairBySymbol[pairSym],
			Address:      addr,
			BaseIsToken0: pc.BaseIsToken0,
		})
		poolAddrs[pairSym] = pc.Address
	}

	var fees domain.FeeRegistry
	if vc.FeeAPI != "" {
		fees = uniswap.NewFeeRegistry(vc.FeeAPI, poolAddrs)
	}

	src := source.NewPool(name, client, srcBindings, cfg.Scanner.HalfSpread, cfg.Scanner.DefaultFee, fees, limiter, logger)

	var feed runner
	if vc.Events {
		if vc.WsHost == "" {
			logger.Warn("events enabled but ws_host is empty, events disabled",
				slog.String("venue", name),
			)
		} else {
			feed = uniswap.NewSwapFeed(vc.WsHost, name, feedBindings, events, logger)
		}
	}
	return src, feed, client.Close, nil
}
