package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"arbscan/internal/domain"
)

// QuoteCache implements domain.QuoteCache using Redis hashes.
// Each venue quote is stored as a hash at key "quote:{venue}:{pair}" with
// fields "bid", "ask", "fee" and "ts" (Unix nanosecond timestamp). A TTL
// bounds how long a stale quote stays readable after its venue goes quiet.
type QuoteCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewQuoteCache creates a QuoteCache backed by the given Client. A ttl of
// zero disables expiry.
func NewQuoteCache(c *Client, ttl time.Duration) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying(), ttl: ttl}
}

func quoteKey(venue, pair string) string {
	return "quote:" + venue + ":" + pair
}

// SetQuote stores the latest quote for a venue and pair.
func (qc *QuoteCache) SetQuote(ctx context.Context, q domain.Quote) error {
	key := quoteKey(q.Venue, q.Pair)
	fields := map[string]interface{}{
		"bid": strconv.FormatFloat(q.Bid, 'f', -1, 64),
		"ask": strconv.FormatFloat(q.Ask, 'f', -1, 64),
		"fee": strconv.FormatFloat(q.FeeFraction, 'f', -1, 64),
		"ts":  strconv.FormatInt(q.ObservedAt.UnixNano(), 10),
	}

	pipe := qc.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	if qc.ttl > 0 {
		pipe.Expire(ctx, key, qc.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set quote %s %s: %w", q.Venue, q.Pair, err)
	}
	return nil
}

// GetQuote retrieves the latest quote for a venue and pair. It returns
// domain.ErrNotFound when the key does not exist or has expired.
func (qc *QuoteCache) GetQuote(ctx context.Context, venue, pair string) (domain.Quote, error) {
	key := quoteKey(venue, pair)
	vals, err := qc.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: get quote %s %s: %w", venue, pair, err)
	}
	if len(vals) == 0 {
		return domain.Quote{}, domain.ErrNotFound
	}

	q := domain.Quote{Venue: venue, Pair: pair}

	if q.Bid, err = parseField(vals, "bid"); err != nil {
		return domain.Quote{}, fmt.Errorf("redis: quote %s %s: %w", venue, pair, err)
	}
	if q.Ask, err = parseField(vals, "ask"); err != nil {
		return domain.Quote{}, fmt.Errorf("redis: quote %s %s: %w", venue, pair, err)
	}
	if q.FeeFraction, err = parseField(vals, "fee"); err != nil {
		return domain.Quote{}, fmt.Errorf("redis: quote %s %s: %w", venue, pair, err)
	}

	tsStr, ok := vals["ts"]
	if !ok {
		return domain.Quote{}, domain.ErrNotFound
	}
	tsNano, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("redis: quote %s %s: parse ts: %w", venue, pair, err)
	}
	q.ObservedAt = time.Unix(0, tsNano)

	return q, nil
}

func parseField(vals map[string]string, field string) (float64, error) {
	s, ok := vals[field]
	if !ok {
		return 0, domain.ErrNotFound
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}
	return v, nil
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)
