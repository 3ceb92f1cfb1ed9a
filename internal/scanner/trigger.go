package scanner

import (
	"context"
	"log/slog"

	"arbscan/internal/domain"
)

// Trigger consumes venue change events (pool swaps, trade prints) and runs an
// immediate re-evaluation of the affected pair, outside the polling cadence.
// Every event runs one full cycle; rapid repeats are not coalesced.
type Trigger struct {
	events  <-chan domain.SwapEvent
	scanner *Scanner
	pairs   map[string]domain.Pair
	logger  *slog.Logger
}

// NewTrigger creates a Trigger over the given event channel. Producers are
// subscribed once at startup and stay active for the process lifetime.
func NewTrigger(events <-chan domain.SwapEvent, sc *Scanner, pairs []domain.Pair, logger *slog.Logger) *Trigger {
	bySymbol := make(map[string]domain.Pair, len(pairs))
	for _, p := range pairs {
		bySymbol[p.Symbol] = p
	}
	return &Trigger{
		events:  events,
		scanner: sc,
		pairs:   bySymbol,
		logger:  logger.With(slog.String("component", "trigger")),
	}
}

// Run consumes events until ctx is cancelled or the channel closes.
func (t *Trigger) Run(ctx context.Context) error {
	t.logger.Info("reactive trigger started")
	defer t.logger.Info("reactive trigger stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-t.events:
			if !ok {
				return nil
			}
			t.handle(ctx, ev)
		}
	}
}

// handle logs the event's magnitude and direction (context only, never price
// data) and dispatches the evaluation cycle.
func (t *Trigger) handle(ctx context.Context, ev domain.SwapEvent) {
	pair, ok := t.pairs[ev.Pair]
	if !ok {
		t.logger.Warn("event for unknown pair, ignoring",
			slog.String("venue", ev.Venue),
			slog.String("pair", ev.Pair),
		)
		return
	}

	t.logger.Info("venue event, re-evaluating",
		slog.String("venue", ev.Venue),
		slog.String("pair", ev.Pair),
		slog.String("direction", ev.Direction()),
		slog.String("counterparty", ev.Counterparty),
		slog.Float64("base_in", ev.BaseIn),
		slog.Float64("quote_in", ev.QuoteIn),
		slog.Float64("base_out", ev.BaseOut),
		slog.Float64("quote_out", ev.QuoteOut),
	)

	t.scanner.EvaluatePair(ctx, pair, true)
}
