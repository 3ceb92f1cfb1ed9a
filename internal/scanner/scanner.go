package scanner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"arbscan/internal/domain"
)

// Notifier is the outbound alert sink. Sends are asynchronous and never block
// the evaluation path.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string)
}

// Config holds the scanner's tunables.
type Config struct {
	// ScanInterval is the polling cadence of the timer-driven loop.
	ScanInterval time.Duration
	// MinProfitPct suppresses opportunity alerts at or below this net
	// percentage. Zero alerts on any positive net profit.
	MinProfitPct float64
	// MarketUpdateInterval caps how often a non-profitable update is sent per
	// pair. Zero disables market updates.
	MarketUpdateInterval time.Duration
}

// Scanner runs the aggregate→evaluate→notify pipeline for every configured
// pair, either on the polling timer (Run) or on demand from the reactive
// trigger (EvaluatePair).
type Scanner struct {
	cfg      Config
	agg      *Aggregator
	pairs    []domain.Pair
	notifier Notifier
	quotes   domain.QuoteCache       // optional
	store    domain.OpportunityStore // optional
	logger   *slog.Logger

	mu         sync.Mutex
	lastUpdate map[string]time.Time // pair symbol -> last market update
}

// New creates a Scanner. quotes and store may be nil.
func New(cfg Config, agg *Aggregator, pairs []domain.Pair, notifier Notifier, quotes domain.QuoteCache, store domain.OpportunityStore, logger *slog.Logger) *Scanner {
	return &Scanner{
		cfg:        cfg,
		agg:        agg,
		pairs:      pairs,
		notifier:   notifier,
		quotes:     quotes,
		store:      store,
		logger:     logger.With(slog.String("component", "scanner")),
		lastUpdate: make(map[string]time.Time),
	}
}

// Run evaluates every pair once immediately, then on each tick of the scan
// interval, until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) error {
	s.logger.Info("scan loop started",
		slog.Duration("interval", s.cfg.ScanInterval),
		slog.Int("pairs", len(s.pairs)),
	)
	defer s.logger.Info("scan loop stopped")

	s.scanOnce(ctx)

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.scanOnce(ctx)
		}
	}
}

// scanOnce evaluates all pairs concurrently. Pairs are independent; their
// relative completion order is immaterial.
func (s *Scanner) scanOnce(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	for _, pair := range s.pairs {
		g.Go(func() error {
			s.EvaluatePair(ctx, pair, false)
			return nil
		})
	}
	_ = g.Wait()
}

// EvaluatePair runs one full aggregate→evaluate→notify cycle for pair.
// Nothing it does is fatal: fetch failures shrink the quote set, an empty set
// becomes a no-data notification, and cache/store writes are best-effort.
func (s *Scanner) EvaluatePair(ctx context.Context, pair domain.Pair, triggered bool) {
	quotes := s.agg.Collect(ctx, pair)
	s.cacheQuotes(ctx, quotes)

	opp, err := Evaluate(pair, quotes, triggered)
	if err != nil {
		if errors.Is(err, domain.ErrNoData) {
			s.logger.Warn("no quotes for pair", slog.String("pair", pair.Symbol))
			title, body := FormatNoData(pair)
			s.notifier.Notify(ctx, "no_data", title, body)
			return
		}
		s.logger.Error("evaluation failed",
			slog.String("pair", pair.Symbol),
			slog.String("error", err.Error()),
		)
		return
	}

	if opp.Profitable() && opp.NetProfitPct > s.cfg.MinProfitPct {
		s.logger.Info("arbitrage opportunity detected",
			slog.String("pair", opp.Pair),
			slog.String("buy_venue", opp.Buy.Venue),
			slog.Float64("buy_ask", opp.Buy.Ask),
			slog.String("sell_venue", opp.Sell.Venue),
			slog.Float64("sell_bid", opp.Sell.Bid),
			slog.Float64("net_profit", opp.NetProfit),
			slog.Float64("net_profit_pct", opp.NetProfitPct),
			slog.Bool("triggered", opp.Triggered),
		)
		title, body := FormatOpportunity(opp)
		s.notifier.Notify(ctx, "opportunity", title, body)
		s.record(ctx, opp)
		return
	}

	s.logger.Debug("no profitable opportunity",
		slog.String("pair", opp.Pair),
		slog.Float64("net_profit_pct", opp.NetProfitPct),
	)
	if s.shouldSendUpdate(pair.Symbol) {
		title, body := FormatMarketUpdate(opp)
		s.notifier.Notify(ctx, "market_update", title, body)
	}
}

// cacheQuotes publishes the cycle's quotes to the optional cache.
func (s *Scanner) cacheQuotes(ctx context.Context, quotes []domain.Quote) {
	if s.quotes == nil {
		return
	}
	for _, q := range quotes {
		if err := s.quotes.SetQuote(ctx, q); err != nil {
			s.logger.Warn("quote cache write failed",
				slog.String("venue", q.Venue),
				slog.String("pair", q.Pair),
				slog.String("error", err.Error()),
			)
		}
	}
}

// record persists a profitable detection to the optional history store.
func (s *Scanner) record(ctx context.Context, opp domain.Opportunity) {
	if s.store == nil {
		return
	}
	if err := s.store.Insert(ctx, opp); err != nil {
		s.logger.Warn("opportunity insert failed",
			slog.String("id", opp.ID),
			slog.String("error", err.Error()),
		)
	}
}

// shouldSendUpdate rate-limits market updates to one per pair per interval.
func (s *Scanner) shouldSendUpdate(pair string) bool {
	if s.cfg.MarketUpdateInterval <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if last, ok := s.lastUpdate[pair]; ok && now.Sub(last) < s.cfg.MarketUpdateInterval {
		return false
	}
	s.lastUpdate[pair] = now
	return true
}
