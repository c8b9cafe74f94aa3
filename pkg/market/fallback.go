package market

import (
	"strings"
	"time"

	"github.com/raykavin/coinwatch/pkg/core"
)

// fallbackRow is a static best-effort price used when the provider is
// down. Volume and market cap are deliberately absent: a stale guess
// for those would be worse than "N/A".
type fallbackRow struct {
	usd    float64
	local  float64
	change float64
}

// fallbackPrices covers the handful of majors a price card should
// still render during an outage.
var fallbackPrices = map[string]fallbackRow{
	"BTC": {usd: 45000, local: 1350000, change: 2.5},
	"ETH": {usd: 3000, local: 90000, change: 1.8},
	"SOL": {usd: 100, local: 3000, change: 3.2},
	"BNB": {usd: 300, local: 9000, change: 1.5},
	"SUI": {usd: 1.5, local: 45, change: 4.1},
}

// symbolByID maps the canonical ids of the majors back to their
// display symbols, so a snapshot requested by id still renders "BTC"
// and still finds its fallback row.
var symbolByID = map[string]string{
	"bitcoin":     "BTC",
	"ethereum":    "ETH",
	"solana":      "SOL",
	"binancecoin": "BNB",
	"sui":         "SUI",
	"tether":      "USDT",
	"ripple":      "XRP",
	"cardano":     "ADA",
	"polkadot":    "DOT",
	"chainlink":   "LINK",
}

// displaySymbol derives the user-facing symbol from an id or ticker.
func displaySymbol(idOrTicker string) string {
	if symbol, ok := symbolByID[strings.ToLower(idOrTicker)]; ok {
		return symbol
	}
	return strings.ToUpper(idOrTicker)
}

// fallbackSnapshot returns the static snapshot for an id or ticker,
// tagged with OriginFallback so no caller can mistake it for live data.
func fallbackSnapshot(idOrTicker, localCode string) (core.PriceSnapshot, bool) {
	symbol := displaySymbol(idOrTicker)
	row, ok := fallbackPrices[symbol]
	if !ok {
		return core.PriceSnapshot{}, false
	}

	return core.PriceSnapshot{
		Symbol:       symbol,
		PriceUSD:     core.Amt(row.usd),
		PriceLocal:   core.Amt(row.local),
		LocalCode:    localCode,
		Change24hPct: core.Amt(row.change),
		Origin:       core.OriginFallback,
		FetchedAt:    time.Now(),
	}, true
}

// fallbackGlobal is the static market overview.
func fallbackGlobal() core.GlobalMarket {
	return core.GlobalMarket{
		TotalMarketCapUSD: 2.5e12,
		TotalVolume24hUSD: 8e10,
		MarketCapChange:   2.5,
		ActiveAssets:      8500,
		DominancePct:      map[string]float64{"btc": 45.2, "eth": 18.7},
		Origin:            core.OriginFallback,
		FetchedAt:         time.Now(),
	}
}

// fallbackFearGreed is the static neutral index reading.
func fallbackFearGreed() core.FearGreed {
	return core.FearGreed{
		Value:          55,
		Classification: "Neutral",
		At:             time.Now(),
		Origin:         core.OriginFallback,
	}
}
