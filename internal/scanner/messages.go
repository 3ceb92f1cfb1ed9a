package scanner

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"arbscan/internal/domain"
)

// Message formatters for the notification sink. The layouts follow the
// operator-facing alert conventions: a loud opportunity alert, a quiet
// periodic market update, and lifecycle notices.

const timeLayout = "2006-01-02 15:04:05"

// FormatOpportunity renders a profitable detection.
func FormatOpportunity(opp domain.Opportunity) (title, body string) {
	title = "🚨 ARBITRAGE OPPORTUNITY 🚨"
	trigger := "scheduled scan"
	if opp.Triggered {
		trigger = "venue event"
	}
	body = fmt.Sprintf(
		"Time: %s\nPair: %s\nBuy: %s at $%.6f\nSell: %s at $%.6f\nProfit: $%.4f (%.5f%%)\nTrigger: %s",
		opp.DetectedAt.Format(timeLayout),
		opp.Pair,
		opp.Buy.Venue, opp.Buy.Ask,
		opp.Sell.Venue, opp.Sell.Bid,
		opp.NetProfit, opp.NetProfitPct,
		trigger,
	)
	return title, body
}

// FormatMarketUpdate renders a non-profitable evaluation as an informational
// spread summary.
func FormatMarketUpdate(opp domain.Opportunity) (title, body string) {
	title = "📊 Market Update"
	body = fmt.Sprintf(
		"Time: %s\nNo profitable opportunities for %s\nBest spread: Buy %s ($%.6f) → Sell %s ($%.6f)\nSpread: %.5f%%",
		opp.DetectedAt.Format(timeLayout),
		opp.Pair,
		opp.Buy.Venue, opp.Buy.Ask,
		opp.Sell.Venue, opp.Sell.Bid,
		opp.NetProfitPct,
	)
	return title, body
}

// FormatNoData renders the all-sources-failed condition for one pair.
func FormatNoData(pair domain.Pair) (title, body string) {
	title = "⚠️ No Data"
	body = fmt.Sprintf("No quotes fetched for %s from any venue, retrying next cycle", pair.Symbol)
	return title, body
}

// FormatStartup renders the process start notice.
func FormatStartup(pairs []domain.Pair, venues []string) (title, body string) {
	symbols := make([]string, len(pairs))
	for i, p := range pairs {
		symbols[i] = p.Symbol
	}
	sorted := append([]string(nil), venues...)
	sort.Strings(sorted)

	title = "🤖 Arbitrage Scanner Started"
	body = fmt.Sprintf("Monitoring %s across %s",
		strings.Join(symbols, ", "),
		strings.Join(sorted, ", "),
	)
	return title, body
}

// FormatShutdown renders the process stop notice.
func FormatShutdown(at time.Time) (title, body string) {
	return "👋 Scanner Shut Down", fmt.Sprintf("Stopped at %s", at.Format(timeLayout))
}

// FormatError renders an error that reached the top level.
func FormatError(err error) (title, body string) {
	return "❌ Scanner Error", err.Error()
}
