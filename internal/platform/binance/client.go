// Package binance provides the REST and WebSocket clients for the Binance
// spot exchange. Only the endpoints the scanner needs are implemented: the
// best bid/ask book ticker and the public trade stream.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is the REST client for the Binance spot API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Binance REST client.
//
// baseURL is the API root, e.g. "https://api.binance.com".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// bookTickerResponse is the wire shape of /api/v3/ticker/bookTicker.
type bookTickerResponse struct {
	Symbol   string `json:"symbol"`
	BidPrice string `json:"bidPrice"`
	BidQty   string `json:"bidQty"`
	AskPrice string `json:"askPrice"`
	AskQty   string `json:"askQty"`
}

// BestBidAsk returns the current best bid and ask for the given venue symbol
// (e.g. "ETHUSDT").
func (c *Client) BestBidAsk(ctx context.Context, symbol string) (bid, ask float64, err error) {
	endpoint := c.baseURL + "/api/v3/ticker/bookTicker?symbol=" + url.QueryEscape(symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("binance: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("binance: book ticker %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, 0, fmt.Errorf("binance: book ticker %s: unexpected status %d: %s", symbol, resp.StatusCode, string(body))
	}

	var ticker bookTickerResponse
	if err := json.NewDecoder(resp.Body).Decode(&ticker); err != nil {
		return 0, 0, fmt.Errorf("binance: decode book ticker %s: %w", symbol, err)
	}

	bid, err = strconv.ParseFloat(ticker.BidPrice, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("binance: parse bid %q: %w", ticker.BidPrice, err)
	}
	ask, err = strconv.ParseFloat(ticker.AskPrice, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("binance: parse ask %q: %w", ticker.AskPrice, err)
	}

	return bid, ask, nil
}
