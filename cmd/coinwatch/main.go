package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/coinwatch"
	"github.com/raykavin/coinwatch/pkg/analysis"
	"github.com/raykavin/coinwatch/pkg/core"
	"github.com/raykavin/coinwatch/pkg/provider/coingecko"
	"github.com/raykavin/coinwatch/pkg/resolver"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// Command line flags
var (
	// price command flags
	localCurrency string

	// news command flags
	newsLimit int

	// analyze command flags
	analyzeDays int

	// sync command flags
	seedFile string
)

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:     "coinwatch",
		Short:   "Crypto price, news and chart bot utilities",
		Version: "1.0.0",
	}

	// Add commands
	rootCmd.AddCommand(
		buildServeCmd(),
		buildPriceCmd(),
		buildNewsCmd(),
		buildResolveCmd(),
		buildAnalyzeCmd(),
		buildSyncCmd(),
	)

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Telegram bot and the scheduled jobs",
		RunE:  runServe,
	}
}

func buildPriceCmd() *cobra.Command {
	priceCmd := &cobra.Command{
		Use:   "price <ticker> [ticker...]",
		Short: "Print a price table for one or more coins",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPrice,
	}

	priceCmd.Flags().StringVarP(&localCurrency, "currency", "c", "", "Secondary quote currency (e.g. twd)")

	return priceCmd
}

func buildNewsCmd() *cobra.Command {
	newsCmd := &cobra.Command{
		Use:   "news [keyword]",
		Short: "Print the latest crypto news",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runNews,
	}

	newsCmd.Flags().IntVarP(&newsLimit, "limit", "n", 5, "Maximum number of articles")

	return newsCmd
}

func buildResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <ticker>",
		Short: "Resolve a ticker to its canonical provider id",
		Args:  cobra.ExactArgs(1),
		RunE:  runResolve,
	}
}

func buildAnalyzeCmd() *cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze <ticker>",
		Short: "Print an indicator summary and a returns histogram",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}

	analyzeCmd.Flags().IntVarP(&analyzeDays, "days", "d", 30, "Number of days of history")

	return analyzeCmd
}

func buildSyncCmd() *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh the ticker seed table from the provider listing",
		RunE:  runSync,
	}

	syncCmd.Flags().StringVarP(&seedFile, "output", "o", "seed.json", "Output file path")

	return syncCmd
}

func newBot() (*coinwatch.Coinwatch, error) {
	return coinwatch.NewBot(loadSettings())
}

func runServe(cmd *cobra.Command, args []string) error {
	bot, err := newBot()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return bot.Run(ctx)
}

func runPrice(cmd *cobra.Command, args []string) error {
	settings := loadSettings()
	if localCurrency != "" {
		settings.LocalCurrency = localCurrency
	}

	bot, err := coinwatch.NewBot(settings)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	ids := make([]string, 0, len(args))
	for _, ticker := range args {
		if id, ok := bot.Resolver().Resolve(ctx, ticker); ok {
			ids = append(ids, string(id))
			continue
		}
		ids = append(ids, strings.ToLower(ticker))
	}

	snapshots, err := bot.Market().PriceSnapshots(ctx, ids)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Coin", "USD", strings.ToUpper(settings.LocalCurrency), "24h %", "Volume", "Market Cap", "Origin"})
	for _, s := range snapshots {
		table.Append([]string{
			s.Symbol,
			formatAmount(s.PriceUSD, "%.2f"),
			formatAmount(s.PriceLocal, "%.2f"),
			formatAmount(s.Change24hPct, "%+.2f"),
			formatAmount(s.Volume24hUSD, "%.0f"),
			formatAmount(s.MarketCapUSD, "%.0f"),
			string(s.Origin),
		})
	}
	table.Render()

	return nil
}

func formatAmount(a core.Amount, format string) string {
	if !a.Valid {
		return "N/A"
	}
	return fmt.Sprintf(format, a.Value)
}

func runNews(cmd *cobra.Command, args []string) error {
	bot, err := newBot()
	if err != nil {
		return err
	}

	var (
		articles []core.Article
		keyword  string
	)
	if len(args) > 0 {
		keyword = args[0]
		articles, err = bot.News().SearchByKeyword(cmd.Context(), keyword, newsLimit)
	} else {
		articles, err = bot.News().Articles(cmd.Context(), "", newsLimit)
	}
	if err != nil {
		return err
	}

	for _, article := range articles {
		fmt.Printf("%s\n", article.Title)
		if article.IsPlaceholder() {
			fmt.Println("  (no live news available)")
			continue
		}
		fmt.Printf("  %s | %s\n  %s\n", article.SourceName,
			article.PublishedAt.Format("2006-01-02 15:04"), article.URL)
	}

	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	bot, err := newBot()
	if err != nil {
		return err
	}

	id, ok := bot.Resolver().Resolve(cmd.Context(), args[0])
	if !ok {
		return fmt.Errorf("%q: %w", args[0], core.ErrResolutionFailed)
	}

	fmt.Println(id)
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	bot, err := newBot()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	ticker := strings.ToLower(args[0])
	id, ok := bot.Resolver().Resolve(ctx, ticker)
	if !ok {
		return fmt.Errorf("%q: %w", args[0], core.ErrResolutionFailed)
	}

	series, err := bot.Market().HistoricalSeries(ctx, string(id), analyzeDays)
	if err != nil {
		return err
	}

	points := series.Collect()
	summary, err := analysis.Summarize(strings.ToUpper(ticker), core.NewSeries(points))
	if err != nil {
		return err
	}

	fmt.Printf("%s (%d points)\n", summary.Symbol, summary.Points)
	fmt.Printf("LAST:       %.2f\n", summary.LastPrice)
	fmt.Printf("SMA:        %.2f\n", summary.SMA)
	fmt.Printf("RSI:        %.1f\n", summary.RSI)
	fmt.Printf("STOCH K/D:  %.1f / %.1f\n", summary.StochK, summary.StochD)
	fmt.Printf("VOLATILITY: %.2f%%\n", summary.Volatility*100)
	fmt.Printf("SIGNAL:     %s\n", strings.ToUpper(summary.Signal))

	fmt.Println("\n------ DAILY RETURNS -------")
	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Price
	}
	returns := analysis.Returns(closes)
	for i, r := range returns {
		returns[i] = r * 100
	}
	return analysis.PrintHistogram(os.Stdout, returns)
}

func runSync(cmd *cobra.Command, args []string) error {
	settings := loadSettings()
	gecko := coingecko.New(settings.CoinGecko, coinwatch.DefaultLog)

	coins, err := gecko.CoinsList(cmd.Context())
	if err != nil {
		return err
	}

	// Keep the first id seen per symbol, matching the provider's own
	// listing order, but never overwrite a curated seed entry.
	table := resolver.Seed()
	progressBar := progressbar.Default(int64(len(coins)))
	for _, coin := range coins {
		symbol := strings.ToLower(coin.Symbol)
		if _, ok := table[symbol]; !ok && symbol != "" {
			table[symbol] = core.CanonicalID(coin.ID)
		}
		if err := progressBar.Add(1); err != nil {
			break
		}
	}

	if err := resolver.WriteSeed(seedFile, table); err != nil {
		return err
	}

	fmt.Printf("wrote %d mappings to %s\n", len(table), seedFile)
	return nil
}
