// Package notification delivers coinwatch data to users over Telegram.
package notification

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/StudioSol/set"
	"github.com/raykavin/coinwatch/pkg/analysis"
	"github.com/raykavin/coinwatch/pkg/chart"
	"github.com/raykavin/coinwatch/pkg/core"
	"github.com/raykavin/coinwatch/pkg/logger"
	"github.com/raykavin/coinwatch/pkg/market"
	"github.com/raykavin/coinwatch/pkg/news"
	tb "gopkg.in/tucnak/telebot.v2"
)

// handlerTimeout bounds the upstream work of a single command.
const handlerTimeout = 30 * time.Second

const defaultChartDays = 7

const digestNewsMax = 3

// Command argument patterns
var (
	tickerRegexp = regexp.MustCompile(`^(?P<ticker>[a-zA-Z0-9]{1,20})$`)
	freeTextCoin = regexp.MustCompile(`^[a-zA-Z0-9]{1,10}$`)
)

// Telegram implements the core.NotifierWithStart interface.
type Telegram struct {
	settings    *core.Settings
	resolver    core.Resolver
	market      *market.Service
	news        *news.Service
	subs        core.SubscriptionStorage
	active      *set.LinkedHashSetINT64
	defaultMenu *tb.ReplyMarkup
	client      *tb.Bot
	log         logger.Logger
}

// Option is a function that configures a telegram instance.
type Option func(t *Telegram)

// NewTelegram creates and initializes a new Telegram service.
func NewTelegram(
	resolver core.Resolver,
	marketSvc *market.Service,
	newsSvc *news.Service,
	subs core.SubscriptionStorage,
	settings *core.Settings,
	log logger.Logger,
	options ...Option,
) (*Telegram, error) {
	menu := &tb.ReplyMarkup{ResizeReplyKeyboard: true}
	poller := &tb.LongPoller{Timeout: 10 * time.Second}

	userMiddleware := createAuthMiddleware(poller, settings, log)

	client, err := tb.NewBot(tb.Settings{
		ParseMode: tb.ModeMarkdown,
		Token:     settings.Telegram.Token,
		Poller:    userMiddleware,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	setupKeyboard(menu)
	if err := setupCommands(client); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}

	bot := &Telegram{
		settings:    settings,
		resolver:    resolver,
		market:      marketSvc,
		news:        newsSvc,
		subs:        subs,
		active:      set.NewLinkedHashSetINT64(),
		defaultMenu: menu,
		client:      client,
		log:         log,
	}

	for _, option := range options {
		option(bot)
	}

	registerHandlers(client, bot)

	return bot, nil
}

// createAuthMiddleware creates a middleware to validate authorized users.
func createAuthMiddleware(poller *tb.LongPoller, settings *core.Settings, log logger.Logger) *tb.MiddlewarePoller {
	return tb.NewMiddlewarePoller(poller, func(u *tb.Update) bool {
		if u.Message == nil || u.Message.Sender == nil {
			log.Error("message or sender is nil ", u)
			return false
		}

		if len(settings.Telegram.Users) == 0 ||
			slices.Contains(settings.Telegram.Users, u.Message.Sender.ID) {
			return true
		}

		log.Error("unauthorized user ", u.Message.Sender.ID)
		return false
	})
}

// setupKeyboard configures the reply keyboard layout.
func setupKeyboard(menu *tb.ReplyMarkup) {
	var (
		priceBtn    = menu.Text("/price")
		newsBtn     = menu.Text("/news")
		overviewBtn = menu.Text("/overview")
		trendingBtn = menu.Text("/trending")
		statusBtn   = menu.Text("/status")
		helpBtn     = menu.Text("/help")
	)

	menu.Reply(
		menu.Row(priceBtn, newsBtn, overviewBtn),
		menu.Row(trendingBtn, statusBtn, helpBtn),
	)
}

// setupCommands configures available bot commands.
func setupCommands(client *tb.Bot) error {
	return client.SetCommands([]tb.Command{
		{Text: "/help", Description: "Display help instructions"},
		{Text: "/price", Description: "Price card for a coin"},
		{Text: "/info", Description: "Detailed coin information"},
		{Text: "/news", Description: "Latest crypto news"},
		{Text: "/chart", Description: "7-day price chart"},
		{Text: "/analyze", Description: "Indicator summary for a coin"},
		{Text: "/overview", Description: "Global market overview"},
		{Text: "/trending", Description: "Trending coins"},
		{Text: "/feargreed", Description: "Fear & greed index"},
		{Text: "/subscribe", Description: "Subscribe to the daily digest"},
		{Text: "/unsubscribe", Description: "Cancel the daily digest"},
		{Text: "/status", Description: "Show subscription status"},
	})
}

// registerHandlers registers all command handlers.
func registerHandlers(client *tb.Bot, bot *Telegram) {
	client.Handle("/help", bot.HelpHandle)
	client.Handle("/price", bot.PriceHandle)
	client.Handle("/info", bot.InfoHandle)
	client.Handle("/news", bot.NewsHandle)
	client.Handle("/chart", bot.ChartHandle)
	client.Handle("/analyze", bot.AnalyzeHandle)
	client.Handle("/overview", bot.OverviewHandle)
	client.Handle("/trending", bot.TrendingHandle)
	client.Handle("/feargreed", bot.FearGreedHandle)
	client.Handle("/subscribe", bot.SubscribeHandle)
	client.Handle("/unsubscribe", bot.UnsubscribeHandle)
	client.Handle("/status", bot.StatusHandle)
	client.Handle(tb.OnText, bot.TextHandle)
}

// Start begins the Telegram bot and notifies all authorized users.
func (t *Telegram) Start() {
	go t.client.Start()
	t.sendMessageWithOptions("Bot initialized.", t.defaultMenu)
}

// Notify sends a message to all authorized users.
func (t *Telegram) Notify(text string) {
	for _, user := range t.settings.Telegram.Users {
		_, err := t.client.Send(&tb.User{ID: user}, text)
		if err != nil {
			t.log.WithError(err).Error("failed to send notification")
		}
	}
}

// OnError notifies authorized users that something went wrong. Raw
// error details go to the log only, never to the chat.
func (t *Telegram) OnError(err error) {
	t.log.WithError(err).Error("telegram dispatch error")
	t.Notify("Could not retrieve information, please try again later.")
}

// BroadcastTo sends a message to the given users.
func (t *Telegram) BroadcastTo(users []int64, text string) {
	for _, user := range users {
		_, err := t.client.Send(&tb.User{ID: user}, text)
		if err != nil {
			t.log.WithError(err).WithField("user", user).Error("failed to broadcast message")
		}
	}
}

func (t *Telegram) sendMessageWithOptions(text string, options ...interface{}) {
	for _, user := range t.settings.Telegram.Users {
		_, err := t.client.Send(&tb.User{ID: user}, text, options...)
		if err != nil {
			t.log.WithError(err).Error("failed to send notification with options")
		}
	}
}

func (t *Telegram) sendMessage(to *tb.User, text string, options ...interface{}) {
	_, err := t.client.Send(to, text, options...)
	if err != nil {
		t.log.WithError(err).Error("failed to send message")
	}
}

// track records the sender as an active user for broadcast targeting.
func (t *Telegram) track(m *tb.Message) {
	if m != nil && m.Sender != nil {
		t.active.Add(m.Sender.ID)
	}
}

// ActiveUsers returns the users seen in inbound events.
func (t *Telegram) ActiveUsers() []int64 {
	users := make([]int64, 0, t.active.Length())
	for id := range t.active.Iter() {
		users = append(users, id)
	}
	return users
}

// tickerArg validates the command payload as a ticker.
func tickerArg(m *tb.Message) (string, bool) {
	payload := strings.TrimSpace(m.Payload)
	if !tickerRegexp.MatchString(payload) {
		return "", false
	}
	return strings.ToLower(payload), true
}

// resolveOrRaw resolves a ticker, falling back to the raw lowercased
// ticker when every strategy failed. The raw ticker may still be a
// valid id upstream; if not, the provider call degrades on its own.
func (t *Telegram) resolveOrRaw(ctx context.Context, ticker string) string {
	if id, ok := t.resolver.Resolve(ctx, ticker); ok {
		return string(id)
	}
	return strings.ToLower(ticker)
}

// PriceHandle replies with a price card.
func (t *Telegram) PriceHandle(m *tb.Message) {
	t.track(m)

	ticker, ok := tickerArg(m)
	if !ok {
		t.sendMessage(m.Sender, "Invalid command.\nExample of usage:\n`/price btc`")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	snapshot, err := t.market.PriceSnapshot(ctx, t.resolveOrRaw(ctx, ticker))
	if err != nil {
		t.log.WithError(err).Error("failed to fetch price snapshot")
		t.sendMessage(m.Sender, fmt.Sprintf("Could not retrieve %s information, please try again later.", strings.ToUpper(ticker)))
		return
	}

	t.sendMessage(m.Sender, formatPrice(snapshot))
}

// InfoHandle replies with a detailed info card. Price and metadata are
// independent, so both fetches run concurrently and join.
func (t *Telegram) InfoHandle(m *tb.Message) {
	t.track(m)

	ticker, ok := tickerArg(m)
	if !ok {
		t.sendMessage(m.Sender, "Invalid command.\nExample of usage:\n`/info eth`")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	id := t.resolveOrRaw(ctx, ticker)

	type metaResult struct {
		meta core.AssetMetadata
		err  error
	}
	metaCh := make(chan metaResult, 1)
	go func() {
		meta, err := t.market.AssetMetadata(ctx, id)
		metaCh <- metaResult{meta: meta, err: err}
	}()

	snapshot, priceErr := t.market.PriceSnapshot(ctx, id)
	res := <-metaCh

	if priceErr != nil && res.err != nil {
		t.log.WithError(priceErr).WithError(res.err).Error("failed to fetch info card")
		t.sendMessage(m.Sender, fmt.Sprintf("Could not retrieve %s information, please try again later.", strings.ToUpper(ticker)))
		return
	}

	t.sendMessage(m.Sender, formatInfoCard(snapshot, res.meta, priceErr == nil, res.err == nil))
}

// NewsHandle replies with recent articles for a keyword, or the
// default crypto digest query without one.
func (t *Telegram) NewsHandle(m *tb.Message) {
	t.track(m)

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	keyword := strings.TrimSpace(m.Payload)

	var (
		articles []core.Article
		err      error
	)
	if keyword == "" {
		articles, err = t.news.Articles(ctx, "", digestNewsMax)
	} else {
		articles, err = t.news.SearchByKeyword(ctx, keyword, digestNewsMax)
	}
	if err != nil {
		t.OnError(err)
		return
	}

	t.sendMessage(m.Sender, formatArticles(articles))
}

// ChartHandle replies with a rendered price chart.
func (t *Telegram) ChartHandle(m *tb.Message) {
	t.track(m)

	ticker, ok := tickerArg(m)
	if !ok {
		t.sendMessage(m.Sender, "Invalid command.\nExample of usage:\n`/chart sol`")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	series, err := t.market.HistoricalSeries(ctx, t.resolveOrRaw(ctx, ticker), defaultChartDays)
	if err != nil {
		t.log.WithError(err).Error("failed to fetch historical series")
		t.sendMessage(m.Sender, fmt.Sprintf("Could not build a chart for %s, please try again later.", strings.ToUpper(ticker)))
		return
	}

	chartURL, err := chart.PriceChartURL(t.settings.QuickChart.BaseURL, ticker, series.Collect())
	if err != nil {
		t.sendMessage(m.Sender, fmt.Sprintf("Not enough data to chart %s.", strings.ToUpper(ticker)))
		return
	}

	if _, err := t.client.Send(m.Sender, &tb.Photo{File: tb.FromURL(chartURL)}); err != nil {
		t.log.WithError(err).Error("failed to send chart")
	}
}

// AnalyzeHandle replies with an indicator summary.
func (t *Telegram) AnalyzeHandle(m *tb.Message) {
	t.track(m)

	ticker, ok := tickerArg(m)
	if !ok {
		t.sendMessage(m.Sender, "Invalid command.\nExample of usage:\n`/analyze btc`")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	series, err := t.market.HistoricalSeries(ctx, t.resolveOrRaw(ctx, ticker), 30)
	if err != nil {
		t.log.WithError(err).Error("failed to fetch historical series")
		t.sendMessage(m.Sender, fmt.Sprintf("Could not analyze %s, please try again later.", strings.ToUpper(ticker)))
		return
	}

	summary, err := analysis.Summarize(strings.ToUpper(ticker), series)
	if err != nil {
		t.sendMessage(m.Sender, fmt.Sprintf("Not enough data to analyze %s.", strings.ToUpper(ticker)))
		return
	}

	t.sendMessage(m.Sender, formatAnalysis(summary))
}

// OverviewHandle replies with the global market overview.
func (t *Telegram) OverviewHandle(m *tb.Message) {
	t.track(m)

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	overview, err := t.market.Overview(ctx)
	if err != nil {
		t.OnError(err)
		return
	}

	t.sendMessage(m.Sender, formatOverview(overview))
}

// TrendingHandle replies with the trending coin list.
func (t *Telegram) TrendingHandle(m *tb.Message) {
	t.track(m)

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	coins, err := t.market.Trending(ctx)
	if err != nil {
		t.log.WithError(err).Error("failed to fetch trending coins")
		t.sendMessage(m.Sender, "Trending data is unavailable right now.")
		return
	}

	t.sendMessage(m.Sender, formatTrending(coins))
}

// FearGreedHandle replies with the fear & greed index.
func (t *Telegram) FearGreedHandle(m *tb.Message) {
	t.track(m)

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	index, err := t.market.FearGreed(ctx)
	if err != nil {
		t.OnError(err)
		return
	}

	t.sendMessage(m.Sender, formatFearGreed(index))
}

// SubscribeHandle subscribes the sender to the daily digest.
func (t *Telegram) SubscribeHandle(m *tb.Message) {
	t.track(m)

	ticker, ok := tickerArg(m)
	if !ok {
		t.sendMessage(m.Sender, "Invalid command.\nExample of usage:\n`/subscribe btc`")
		return
	}

	if err := t.subs.Set(m.Sender.ID, ticker); err != nil {
		t.OnError(fmt.Errorf("failed to store subscription: %w", err))
		return
	}

	t.sendMessage(m.Sender, fmt.Sprintf(
		"Subscribed to the *%s* daily digest.\nUse /unsubscribe to cancel.",
		strings.ToUpper(ticker)))
}

// UnsubscribeHandle cancels the sender's digest subscription.
func (t *Telegram) UnsubscribeHandle(m *tb.Message) {
	t.track(m)

	sub, found, err := t.subs.Get(m.Sender.ID)
	if err != nil {
		t.OnError(fmt.Errorf("failed to load subscription: %w", err))
		return
	}
	if !found {
		t.sendMessage(m.Sender, "You have no active subscription.\nUse `/subscribe btc` to create one.")
		return
	}

	if err := t.subs.Delete(m.Sender.ID); err != nil {
		t.OnError(fmt.Errorf("failed to delete subscription: %w", err))
		return
	}

	t.sendMessage(m.Sender, fmt.Sprintf("Unsubscribed from the *%s* daily digest.", strings.ToUpper(sub.Ticker)))
}

// StatusHandle shows the sender's subscription status.
func (t *Telegram) StatusHandle(m *tb.Message) {
	t.track(m)

	sub, found, err := t.subs.Get(m.Sender.ID)
	if err != nil {
		t.OnError(fmt.Errorf("failed to load subscription: %w", err))
		return
	}

	if found {
		t.sendMessage(m.Sender, fmt.Sprintf(
			"Subscribed to the *%s* daily digest, delivered at %s.",
			strings.ToUpper(sub.Ticker), t.settings.Schedule.DigestTime))
		return
	}

	t.sendMessage(m.Sender, "No active subscription.\nUse `/subscribe btc` to create one.")
}

// HelpHandle displays available commands.
func (t *Telegram) HelpHandle(m *tb.Message) {
	t.track(m)

	commands, err := t.client.GetCommands()
	if err != nil {
		t.OnError(fmt.Errorf("failed to get commands: %w", err))
		return
	}

	lines := make([]string, 0, len(commands))
	for _, command := range commands {
		lines = append(lines, fmt.Sprintf("%s - %s", command.Text, command.Description))
	}

	t.sendMessage(m.Sender, strings.Join(lines, "\n"))
}

// TextHandle treats a bare coin symbol as a price+news query and nudges
// toward /help otherwise.
func (t *Telegram) TextHandle(m *tb.Message) {
	t.track(m)

	text := strings.ToLower(strings.TrimSpace(m.Text))
	if !freeTextCoin.MatchString(text) {
		t.sendMessage(m.Sender, "Send a coin symbol (e.g. `btc`) or use /help for the full command list.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	id := t.resolveOrRaw(ctx, text)

	snapshot, err := t.market.PriceSnapshot(ctx, id)
	if err != nil {
		t.log.WithError(err).Error("failed to fetch price snapshot")
		t.sendMessage(m.Sender, fmt.Sprintf("Could not retrieve %s information, please try again later.", strings.ToUpper(text)))
		return
	}

	articles, err := t.news.SearchByKeyword(ctx, text, 2)
	if err != nil {
		articles = nil
	}

	message := formatPrice(snapshot)
	if len(articles) > 0 {
		message += "\n\n" + formatArticles(articles)
	}

	t.sendMessage(m.Sender, message)
}

// DailyDigest pushes the subscribed coin's price and news to every
// subscriber, and a market summary table to the authorized users.
func (t *Telegram) DailyDigest(ctx context.Context) {
	subs, err := t.subs.All()
	if err != nil {
		t.log.WithError(err).Error("failed to load subscriptions for digest")
		return
	}

	for _, sub := range subs {
		id := t.resolveOrRaw(ctx, sub.Ticker)

		snapshot, err := t.market.PriceSnapshot(ctx, id)
		if err != nil {
			t.log.WithError(err).WithField("ticker", sub.Ticker).Warn("digest price fetch failed")
			continue
		}

		articles, err := t.news.Articles(ctx, sub.Ticker, digestNewsMax)
		if err != nil {
			articles = nil
		}

		message := "*Daily digest*\n\n" + formatPrice(snapshot)
		if len(articles) > 0 {
			message += "\n\n" + formatArticles(articles)
		}

		t.BroadcastTo([]int64{sub.UserID}, message)
	}

	t.sendSummaryTable(ctx)
}

// sendSummaryTable notifies authorized users with a price table of the
// majors.
func (t *Telegram) sendSummaryTable(ctx context.Context) {
	snapshots, err := t.market.PriceSnapshots(ctx,
		[]string{"bitcoin", "ethereum", "solana", "binancecoin"})
	if err != nil || len(snapshots) == 0 {
		return
	}

	t.Notify("*Market summary*\n```\n" + priceTable(snapshots) + "```")
}
