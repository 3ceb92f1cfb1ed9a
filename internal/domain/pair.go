package domain

import "strings"

// Pair identifies a tradable base/quote asset combination. The set of
// monitored pairs is fixed at startup.
type Pair struct {
	Symbol        string // e.g. "ETH/USDT"
	BaseDecimals  int    // on-chain decimal scale of the base token
	QuoteDecimals int    // on-chain decimal scale of the quote token
}

// Base returns the base asset symbol ("ETH" for "ETH/USDT").
func (p Pair) Base() string {
	if i := strings.IndexByte(p.Symbol, '/'); i >= 0 {
		return p.Symbol[:i]
	}
	return p.Symbol
}

// Quote returns the quote asset symbol ("USDT" for "ETH/USDT").
func (p Pair) Quote() string {
	if i := strings.IndexByte(p.Symbol, '/'); i >= 0 {
		return p.Symbol[i+1:]
	}
	return ""
}
