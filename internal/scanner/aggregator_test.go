package scanner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"arbscan/internal/domain"
)

// stubSource is a scripted domain.PriceSource for aggregator tests.
type stubSource struct {
	venue  string
	covers bool
	quote  domain.Quote
	err    error
}

func (s *stubSource) Venue() string                 { return s.venue }
func (s *stubSource) Covers(_ domain.Pair) bool     { return s.covers }
func (s *stubSource) Fetch(_ context.Context, _ domain.Pair) (domain.Quote, error) {
	if s.err != nil {
		return domain.Quote{}, s.err
	}
	return s.quote, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCollectDropsFailedSources(t *testing.T) {
	agg := NewAggregator([]domain.PriceSource{
		&stubSource{venue: "a", covers: true, quote: domain.Quote{Venue: "a", Bid: 99, Ask: 100}},
		&stubSource{venue: "b", covers: true, err: errors.New("boom")},
		&stubSource{venue: "c", covers: true, quote: domain.Quote{Venue: "c", Bid: 101, Ask: 102}},
	}, testLogger())

	quotes := agg.Collect(context.Background(), ethUSDT)

	assert.Len(t, quotes, 2)
	venues := map[string]bool{}
	for _, q := range quotes {
		venues[q.Venue] = true
	}
	assert.True(t, venues["a"])
	assert.True(t, venues["c"])
}

func TestCollectSkipsNonCoveringSources(t *testing.T) {
	agg := NewAggregator([]domain.PriceSource{
		&stubSource{venue: "a", covers: true, quote: domain.Quote{Venue: "a"}},
		&stubSource{venue: "b", covers: false, quote: domain.Quote{Venue: "b"}},
	}, testLogger())

	quotes := agg.Collect(context.Background(), ethUSDT)

	assert.Len(t, quotes, 1)
	assert.Equal(t, "a", quotes[0].Venue)
}

func TestCollectNoCoveringSources(t *testing.T) {
	agg := NewAggregator([]domain.PriceSource{
		&stubSource{venue: "a", covers: false},
	}, testLogger())

	assert.Empty(t, agg.Collect(context.Background(), ethUSDT))
}

func TestCollectAllSourcesFail(t *testing.T) {
	agg := NewAggregator([]domain.PriceSource{
		&stubSource{venue: "a", covers: true, err: errors.New("down")},
		&stubSource{venue: "b", covers: true, err: errors.New("down")},
	}, testLogger())

	assert.Empty(t, agg.Collect(context.Background(), ethUSDT))
}
