// Package scanner contains the price-aggregation and arbitrage-evaluation
// engine: the concurrent fan-out over venue sources, the best buy/sell
// selection with fee-adjusted profit, the timer-driven scan loop, and the
// event-driven re-evaluation trigger.
package scanner

import (
	"context"
	"log/slog"
	"sync"

	"arbscan/internal/domain"
)

// Aggregator fans out quote fetches across every source covering a pair and
// collects the survivors. Failed fetches are logged and dropped; an empty
// result is "no data", not an error.
type Aggregator struct {
	sources []domain.PriceSource
	logger  *slog.Logger
}

// NewAggregator creates an Aggregator over the given sources.
func NewAggregator(sources []domain.PriceSource, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		sources: sources,
		logger:  logger.With(slog.String("component", "aggregator")),
	}
}

// Collect fetches pair's quote from every covering source concurrently. All
// fetches are started before any is awaited; results are combined only after
// all have settled.
func (a *Aggregator) Collect(ctx context.Context, pair domain.Pair) []domain.Quote {
	covering := make([]domain.PriceSource, 0, len(a.sources))
	for _, src := range a.sources {
		if src.Covers(pair) {
			covering = append(covering, src)
		}
	}
	if len(covering) == 0 {
		return nil
	}

	results := make(chan domain.Quote, len(covering))
	var wg sync.WaitGroup
	for _, src := range covering {
		wg.Add(1)
		go func(src domain.PriceSource) {
			defer wg.Done()
			q, err := src.Fetch(ctx, pair)
			if err != nil {
				a.logger.Warn("fetch failed, dropping venue from cycle",
					slog.String("venue", src.Venue()),
					slog.String("pair", pair.Symbol),
					slog.String("error", err.Error()),
				)
				return
			}
			results <- q
		}(src)
	}
	wg.Wait()
	close(results)

	quotes := make([]domain.Quote, 0, len(covering))
	for q := range results {
		quotes = append(quotes, q)
	}
	return quotes
}
