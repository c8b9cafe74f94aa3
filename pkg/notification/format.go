package notification

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/coinwatch/pkg/analysis"
	"github.com/raykavin/coinwatch/pkg/core"
)

// fallbackMarker flags values served from the static tables instead of
// a live provider response.
const fallbackMarker = "\n_(cached reference values, live data unavailable)_"

// amount renders an Amount, or "N/A" when the provider omitted it.
func amount(a core.Amount, format string) string {
	if !a.Valid {
		return "N/A"
	}
	return fmt.Sprintf(format, a.Value)
}

// humanUSD renders a dollar figure with a T/B/M suffix.
func humanUSD(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}

// humanAmount is humanUSD for optional values.
func humanAmount(a core.Amount) string {
	if !a.Valid {
		return "N/A"
	}
	return humanUSD(a.Value)
}

// changeArrow prefixes a percentage change with a direction marker.
func changeArrow(a core.Amount) string {
	if !a.Valid {
		return "N/A"
	}
	arrow := "🔺"
	if a.Value < 0 {
		arrow = "🔻"
	}
	return fmt.Sprintf("%s %.2f%%", arrow, a.Value)
}

func formatPrice(s core.PriceSnapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*%s*\n", s.Symbol)
	fmt.Fprintf(&b, "Price: %s", amount(s.PriceUSD, "$%.2f"))
	if s.PriceLocal.Valid {
		fmt.Fprintf(&b, " (%s %.2f)", strings.ToUpper(s.LocalCode), s.PriceLocal.Value)
	}
	fmt.Fprintf(&b, "\n24h: %s\n", changeArrow(s.Change24hPct))
	fmt.Fprintf(&b, "Volume: %s\n", humanAmount(s.Volume24hUSD))
	fmt.Fprintf(&b, "Market cap: %s", humanAmount(s.MarketCapUSD))

	if s.Origin == core.OriginFallback {
		b.WriteString(fallbackMarker)
	}

	return b.String()
}

func formatInfoCard(s core.PriceSnapshot, meta core.AssetMetadata, hasPrice, hasMeta bool) string {
	var b strings.Builder

	if hasMeta {
		fmt.Fprintf(&b, "*%s (%s)*\n", meta.Name, meta.Symbol)
		if meta.MarketCapRank > 0 {
			fmt.Fprintf(&b, "Rank: #%d\n", meta.MarketCapRank)
		}
	} else {
		fmt.Fprintf(&b, "*%s*\n", s.Symbol)
	}

	if hasPrice {
		fmt.Fprintf(&b, "Price: %s\n", amount(s.PriceUSD, "$%.2f"))
		fmt.Fprintf(&b, "24h: %s\n", changeArrow(s.Change24hPct))
	}

	if hasMeta {
		fmt.Fprintf(&b, "Market cap: %s\n", humanAmount(meta.MarketCapUSD))
		fmt.Fprintf(&b, "Volume: %s\n", humanAmount(meta.Volume24hUSD))
		if meta.GenesisDate != "" {
			fmt.Fprintf(&b, "Genesis: %s\n", meta.GenesisDate)
		}
		if meta.Description != "" {
			fmt.Fprintf(&b, "\n%s\n", meta.Description)
		}
	}

	if hasPrice && s.Origin == core.OriginFallback {
		b.WriteString(fallbackMarker)
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatArticles(articles []core.Article) string {
	if len(articles) == 0 {
		return "No recent articles found."
	}

	var b strings.Builder
	b.WriteString("*Latest news*\n")

	for _, a := range articles {
		if a.IsPlaceholder() {
			fmt.Fprintf(&b, "\n• %s\n_no live news available_\n", a.Title)
			continue
		}
		fmt.Fprintf(&b, "\n• [%s](%s)\n_%s, %s_\n",
			a.Title, a.URL, a.SourceName, a.PublishedAt.Format("Jan 02 15:04"))
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatOverview(g core.GlobalMarket) string {
	var b strings.Builder

	b.WriteString("*Global market*\n")
	fmt.Fprintf(&b, "Market cap: %s (%+.2f%% 24h)\n", humanUSD(g.TotalMarketCapUSD), g.MarketCapChange)
	fmt.Fprintf(&b, "Volume 24h: %s\n", humanUSD(g.TotalVolume24hUSD))
	if g.ActiveAssets > 0 {
		fmt.Fprintf(&b, "Active assets: %d\n", g.ActiveAssets)
	}

	if len(g.DominancePct) > 0 {
		b.WriteString("Dominance:")
		for _, sym := range []string{"btc", "eth"} {
			if pct, ok := g.DominancePct[sym]; ok {
				fmt.Fprintf(&b, " %s %.1f%%", strings.ToUpper(sym), pct)
			}
		}
		b.WriteString("\n")
	}

	if g.Origin == core.OriginFallback {
		b.WriteString(fallbackMarker)
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatTrending(coins []core.TrendingCoin) string {
	if len(coins) == 0 {
		return "No trending coins right now."
	}

	var b strings.Builder
	b.WriteString("*Trending*\n")
	for i, c := range coins {
		fmt.Fprintf(&b, "%d. %s (%s)", i+1, c.Name, strings.ToUpper(c.Symbol))
		if c.MarketCapRank > 0 {
			fmt.Fprintf(&b, " — rank #%d", c.MarketCapRank)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatFearGreed(f core.FearGreed) string {
	msg := fmt.Sprintf("*Fear & Greed Index*\n%d — %s", f.Value, f.Classification)
	if f.Origin == core.OriginFallback {
		msg += fallbackMarker
	}
	return msg
}

func formatAnalysis(s *analysis.Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*%s analysis* (%d points)\n", s.Symbol, s.Points)
	fmt.Fprintf(&b, "Last: $%.2f | SMA: $%.2f\n", s.LastPrice, s.SMA)
	fmt.Fprintf(&b, "RSI: %.1f | Stoch %%K/%%D: %.1f/%.1f\n", s.RSI, s.StochK, s.StochD)
	fmt.Fprintf(&b, "Volatility: %.2f%%\n", s.Volatility*100)
	fmt.Fprintf(&b, "Signal: *%s*", strings.ToUpper(s.Signal))

	return b.String()
}

// priceTable renders snapshots as an aligned text table for a
// monospace code block.
func priceTable(snapshots []core.PriceSnapshot) string {
	var b strings.Builder

	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"Coin", "Price", "24h", "Mcap"})
	table.SetBorder(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})

	for _, s := range snapshots {
		change := "N/A"
		if s.Change24hPct.Valid {
			change = fmt.Sprintf("%+.2f%%", s.Change24hPct.Value)
		}
		table.Append([]string{
			s.Symbol,
			amount(s.PriceUSD, "$%.2f"),
			change,
			humanAmount(s.MarketCapUSD),
		})
	}

	table.Render()
	return b.String()
}
