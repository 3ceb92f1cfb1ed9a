package uniswap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"arbscan/internal/domain"
)

// FeeRegistry resolves per-pool swap fees from an HTTP fee registry keyed by
// pool address. Lookup failures are non-fatal: the caller falls back to the
// configured default fee.
type FeeRegistry struct {
	endpoint   string
	pools      map[string]string // pair symbol -> pool address
	httpClient *http.Client
}

// NewFeeRegistry creates a registry client for the given endpoint and
// pair->pool table.
func NewFeeRegistry(endpoint string, pools map[string]string) *FeeRegistry {
	return &FeeRegistry{
		endpoint: endpoint,
		pools:    pools,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// feeResponse is the registry's wire shape.
type feeResponse struct {
	Pool   string  `json:"pool"`
	FeeBps float64 `json:"fee_bps"`
}

// Fee returns the verified fee fraction for the pool backing pair.
func (r *FeeRegistry) Fee(ctx context.Context, pair domain.Pair) (float64, error) {
	pool, ok := r.pools[pair.Symbol]
	if !ok {
		return 0, fmt.Errorf("uniswap: fee registry: %s: %w", pair.Symbol, domain.ErrNotFound)
	}

	endpoint := r.endpoint + "?pool=" + url.QueryEscape(pool)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("uniswap: fee registry: create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("uniswap: fee registry %s: %w", pool, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("uniswap: fee registry %s: unexpected status %d: %s", pool, resp.StatusCode, string(body))
	}

	var fee feeResponse
	if err := json.NewDecoder(resp.Body).Decode(&fee); err != nil {
		return 0, fmt.Errorf("uniswap: fee registry %s: decode: %w", pool, err)
	}
	if fee.FeeBps < 0 || fee.FeeBps >= 10000 {
		return 0, fmt.Errorf("uniswap: fee registry %s: implausible fee %f bps", pool, fee.FeeBps)
	}

	return fee.FeeBps / 10000, nil
}

// Compile-time interface check.
var _ domain.FeeRegistry = (*FeeRegistry)(nil)
