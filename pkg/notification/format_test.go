package notification

import (
	"strings"
	"testing"
	"time"

	"github.com/raykavin/coinwatch/pkg/core"
	"github.com/stretchr/testify/require"
)

func TestFormatPrice_Live(t *testing.T) {
	msg := formatPrice(core.PriceSnapshot{
		Symbol:       "BTC",
		PriceUSD:     core.Amt(64000.5),
		PriceLocal:   core.Amt(2050000),
		LocalCode:    "twd",
		Change24hPct: core.Amt(-2.5),
		Volume24hUSD: core.Amt(31e9),
		MarketCapUSD: core.Amt(1.26e12),
		Origin:       core.OriginLive,
	})

	require.Contains(t, msg, "*BTC*")
	require.Contains(t, msg, "$64000.50")
	require.Contains(t, msg, "TWD 2050000.00")
	require.Contains(t, msg, "-2.50%")
	require.Contains(t, msg, "$31.00B")
	require.Contains(t, msg, "$1.26T")
	require.NotContains(t, msg, "cached reference values")
}

func TestFormatPrice_FallbackMarkedAndAbsentFieldsNA(t *testing.T) {
	msg := formatPrice(core.PriceSnapshot{
		Symbol:       "BTC",
		PriceUSD:     core.Amt(45000),
		Change24hPct: core.Amt(2.5),
		Origin:       core.OriginFallback,
	})

	require.Contains(t, msg, "cached reference values")
	// Absent volume and market cap render as N/A, never $0.00.
	require.Contains(t, msg, "Volume: N/A")
	require.Contains(t, msg, "Market cap: N/A")
	require.NotContains(t, msg, "$0.00")
}

func TestHumanUSD(t *testing.T) {
	require.Equal(t, "$1.26T", humanUSD(1.26e12))
	require.Equal(t, "$31.00B", humanUSD(31e9))
	require.Equal(t, "$5.50M", humanUSD(5.5e6))
	require.Equal(t, "$123.45", humanUSD(123.45))
}

func TestFormatArticles(t *testing.T) {
	require.Equal(t, "No recent articles found.", formatArticles(nil))

	published := time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)
	msg := formatArticles([]core.Article{
		{Title: "BTC breaks out", URL: "https://example.com/a", SourceName: "example", PublishedAt: published},
		{Title: "bitcoin market update", SourceName: core.PlaceholderSource},
	})

	require.Contains(t, msg, "[BTC breaks out](https://example.com/a)")
	require.Contains(t, msg, "Jul 01 09:30")
	require.Contains(t, msg, "no live news available")
	require.NotContains(t, msg, core.PlaceholderSource)
}

func TestFormatOverview(t *testing.T) {
	msg := formatOverview(core.GlobalMarket{
		TotalMarketCapUSD: 2.5e12,
		TotalVolume24hUSD: 8e10,
		MarketCapChange:   2.5,
		ActiveAssets:      8500,
		DominancePct:      map[string]float64{"btc": 45.2, "eth": 18.7},
		Origin:            core.OriginFallback,
	})

	require.Contains(t, msg, "$2.50T")
	require.Contains(t, msg, "BTC 45.2%")
	require.Contains(t, msg, "ETH 18.7%")
	require.Contains(t, msg, "cached reference values")
}

func TestFormatFearGreed(t *testing.T) {
	msg := formatFearGreed(core.FearGreed{Value: 72, Classification: "Greed", Origin: core.OriginLive})
	require.Contains(t, msg, "72")
	require.Contains(t, msg, "Greed")
	require.NotContains(t, msg, "cached reference values")
}

func TestPriceTable(t *testing.T) {
	table := priceTable([]core.PriceSnapshot{
		{Symbol: "BTC", PriceUSD: core.Amt(64000), Change24hPct: core.Amt(-2.5), MarketCapUSD: core.Amt(1.26e12)},
		{Symbol: "ETH", PriceUSD: core.Amt(3100)},
	})

	require.Contains(t, table, "BTC")
	require.Contains(t, table, "$64000.00")
	require.Contains(t, table, "-2.50%")
	require.Contains(t, table, "$1.26T")

	// Absent fields stay N/A.
	lines := strings.Split(table, "\n")
	var ethLine string
	for _, line := range lines {
		if strings.Contains(line, "ETH") {
			ethLine = line
		}
	}
	require.Contains(t, ethLine, "N/A")
}
