// Package kraken provides the REST client for the Kraken spot exchange.
package kraken

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is the REST client for the Kraken public API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Kraken REST client.
//
// baseURL is the API root, e.g. "https://api.kraken.com".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// tickerResponse is the wire shape of /0/public/Ticker. Kraken keys the
// result by its own canonical pair name, which may differ from the requested
// one, so the single entry is taken regardless of key.
type tickerResponse struct {
	Error  []string `json:"error"`
	Result map[string]struct {
		Ask []string `json:"a"` // [price, whole lot volume, lot volume]
		Bid []string `json:"b"`
	} `json:"result"`
}

// BestBidAsk returns the current best bid and ask for the given venue symbol
// (e.g. "XETHZUSD").
func (c *Client) BestBidAsk(ctx context.Context, symbol string) (bid, ask float64, err error) {
	endpoint := c.baseURL + "/0/public/Ticker?pair=" + url.QueryEscape(symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("kraken: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("kraken: ticker %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, 0, fmt.Errorf("kraken: ticker %s: unexpected status %d: %s", symbol, resp.StatusCode, string(body))
	}

	var ticker tickerResponse
	if err := json.NewDecoder(resp.Body).Decode(&ticker); err != nil {
		return 0, 0, fmt.Errorf("kraken: decode ticker %s: %w", symbol, err)
	}
	if len(ticker.Error) > 0 {
		return 0, 0, fmt.Errorf("kraken: ticker %s: api error: %s", symbol, strings.Join(ticker.Error, "; "))
	}

	for _, entry := range ticker.Result {
		if len(entry.Bid) == 0 || len(entry.Ask) == 0 {
			return 0, 0, fmt.Errorf("kraken: ticker %s: empty bid/ask", symbol)
		}
		bid, err = strconv.ParseFloat(entry.Bid[0], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("kraken: parse bid %q: %w", entry.Bid[0], err)
		}
		ask, err = strconv.ParseFloat(entry.Ask[0], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("kraken: parse ask %q: %w", entry.Ask[0], err)
		}
		return bid, ask, nil
	}

	return 0, 0, fmt.Errorf("kraken: ticker %s: empty result", symbol)
}
