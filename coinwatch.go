package coinwatch

import (
	"context"
	"fmt"

	"github.com/raykavin/coinwatch/pkg/cache"
	"github.com/raykavin/coinwatch/pkg/core"
	"github.com/raykavin/coinwatch/pkg/logger"
	"github.com/raykavin/coinwatch/pkg/market"
	"github.com/raykavin/coinwatch/pkg/news"
	"github.com/raykavin/coinwatch/pkg/notification"
	"github.com/raykavin/coinwatch/pkg/provider/coingecko"
	"github.com/raykavin/coinwatch/pkg/provider/newsapi"
	"github.com/raykavin/coinwatch/pkg/provider/newsdata"
	"github.com/raykavin/coinwatch/pkg/resolver"
	"github.com/raykavin/coinwatch/pkg/scheduler"
	"github.com/raykavin/coinwatch/pkg/storage"
)

const (
	defaultDatabase  = "coinwatch.db"
	defaultCacheFile = "coinwatch-cache.db"
)

// Coinwatch wires the resolver, market and news services together and
// drives the Telegram bot and the job scheduler.
type Coinwatch struct {
	settings *core.Settings
	cache    *cache.Store
	subs     core.SubscriptionStorage
	resolver core.Resolver
	market   *market.Service
	news     *news.Service
	notifier core.Notifier
	telegram *notification.Telegram
	jobs     *scheduler.Scheduler
	logger   logger.Logger
}

type Option func(*Coinwatch)

// NewBot creates a new Coinwatch instance with the provided settings
// and dependencies.
func NewBot(settings *core.Settings, options ...Option) (*Coinwatch, error) {
	settings.Defaults()

	bot := &Coinwatch{
		settings: settings,
		logger:   DefaultLog,
	}

	// Apply custom options
	for _, option := range options {
		option(bot)
	}

	if err := initializeStorage(bot); err != nil {
		return nil, err
	}

	initializeServices(bot)

	if err := initializeNotifications(bot); err != nil {
		return nil, err
	}

	if err := initializeSchedule(bot); err != nil {
		return nil, err
	}

	return bot, nil
}

// initializeStorage sets up the resolution cache and the subscription store
func initializeStorage(bot *Coinwatch) error {
	var err error
	if bot.cache == nil {
		bot.cache, err = cache.FromFile(defaultCacheFile, bot.settings.CacheTTL)
		if err != nil {
			return fmt.Errorf("failed to open resolution cache: %w", err)
		}
	}
	if bot.subs == nil {
		bot.subs, err = storage.FromFile(defaultDatabase)
		if err != nil {
			return fmt.Errorf("failed to open subscription storage: %w", err)
		}
	}
	return nil
}

// initializeServices builds the resolver, market and news services on
// the configured providers.
func initializeServices(bot *Coinwatch) {
	gecko := coingecko.New(bot.settings.CoinGecko, bot.logger)

	if bot.resolver == nil {
		bot.resolver = resolver.New(gecko, bot.cache, bot.logger)
	}
	if bot.market == nil {
		bot.market = market.New(gecko, bot.settings.LocalCurrency, bot.logger)
	}
	if bot.news == nil {
		bot.news = news.New(bot.logger,
			newsapi.New(bot.settings.NewsAPI, bot.logger),
			newsdata.New(bot.settings.NewsData, bot.logger),
		)
	}
}

// initializeNotifications sets up notification systems like Telegram
func initializeNotifications(bot *Coinwatch) error {
	if !bot.settings.Telegram.Enabled {
		return nil
	}

	telegram, err := notification.NewTelegram(
		bot.resolver, bot.market, bot.news, bot.subs, bot.settings, bot.logger)
	if err != nil {
		return err
	}

	bot.telegram = telegram
	if bot.notifier == nil {
		bot.notifier = telegram
	}
	return nil
}

// initializeSchedule registers the recurring jobs.
func initializeSchedule(bot *Coinwatch) error {
	bot.jobs = scheduler.New(bot.logger)

	if bot.telegram != nil {
		err := bot.jobs.AddDaily("daily-digest", bot.settings.Schedule.DigestTime, bot.telegram.DailyDigest)
		if err != nil {
			return err
		}
	}

	if keepAlive := bot.settings.Schedule.KeepAlive; keepAlive != "" {
		err := bot.jobs.AddEvery("keep-alive", keepAlive, bot.keepAlive)
		if err != nil {
			return err
		}
	}

	return nil
}

// keepAlive performs a minimal upstream request so free-tier hosts do
// not idle the process out.
func (c *Coinwatch) keepAlive(ctx context.Context) {
	if _, err := c.market.FearGreed(ctx); err != nil {
		c.logger.WithError(err).Warn("keep-alive ping failed")
	}
}

// Resolver returns the configured symbol resolver.
func (c *Coinwatch) Resolver() core.Resolver { return c.resolver }

// Market returns the configured market data service.
func (c *Coinwatch) Market() *market.Service { return c.market }

// News returns the configured news service.
func (c *Coinwatch) News() *news.Service { return c.news }

// Subscriptions returns the subscription store.
func (c *Coinwatch) Subscriptions() core.SubscriptionStorage { return c.subs }

// Run starts the Telegram bot and the scheduler, then blocks until the
// context is cancelled.
func (c *Coinwatch) Run(ctx context.Context) error {
	c.jobs.Start(ctx)
	defer c.jobs.Stop()

	if c.telegram != nil {
		c.telegram.Start()
	}

	c.logger.Info("coinwatch started")
	<-ctx.Done()

	if err := c.cache.Close(); err != nil {
		c.logger.WithError(err).Error("failed to close resolution cache")
	}
	if err := c.subs.Close(); err != nil {
		c.logger.WithError(err).Error("failed to close subscription storage")
	}

	return nil
}
