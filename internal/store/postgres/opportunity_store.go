package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"arbscan/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
// Each profitable detection becomes one row in the opportunities table;
// the buy and sell legs are flattened into venue/price/fee columns.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates an OpportunityStore backed by the given
// connection pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const oppSelectCols = `id, pair, buy_venue, buy_ask, buy_fee_frac,
	sell_venue, sell_bid, sell_fee_frac,
	gross_profit, buy_fee, sell_fee, net_profit, net_profit_pct,
	triggered, detected_at`

// Insert stores a detected opportunity.
func (s *OpportunityStore) Insert(ctx context.Context, opp domain.Opportunity) error {
	const query = `
		INSERT INTO opportunities (
			id, pair, buy_venue, buy_ask, buy_fee_frac,
			sell_venue, sell_bid, sell_fee_frac,
			gross_profit, buy_fee, sell_fee, net_profit, net_profit_pct,
			triggered, detected_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11, $12, $13,
			$14, $15
		)`

	_, err := s.pool.Exec(ctx, query,
		opp.ID, opp.Pair, opp.Buy.Venue, opp.Buy.Ask, opp.Buy.FeeFraction,
		opp.Sell.Venue, opp.Sell.Bid, opp.Sell.FeeFraction,
		opp.GrossProfit, opp.BuyFee, opp.SellFee, opp.NetProfit, opp.NetProfitPct,
		opp.Triggered, opp.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// ListRecent returns the most recent opportunities ordered by detection time.
// A non-positive limit returns all rows.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	query := `SELECT ` + oppSelectCols + ` FROM opportunities ORDER BY detected_at DESC`
	args := []any{}

	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities: %w", err)
	}
	defer rows.Close()

	var opps []domain.Opportunity
	for rows.Next() {
		var opp domain.Opportunity

		if err := rows.Scan(
			&opp.ID, &opp.Pair, &opp.Buy.Venue, &opp.Buy.Ask, &opp.Buy.FeeFraction,
			&opp.Sell.Venue, &opp.Sell.Bid, &opp.Sell.FeeFraction,
			&opp.GrossProfit, &opp.BuyFee, &opp.SellFee, &opp.NetProfit, &opp.NetProfitPct,
			&opp.Triggered, &opp.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		opp.Buy.Pair = opp.Pair
		opp.Sell.Pair = opp.Pair
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities rows: %w", err)
	}
	return opps, nil
}

// Compile-time interface check.
var _ domain.OpportunityStore = (*OpportunityStore)(nil)
