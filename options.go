package coinwatch

import (
	"github.com/raykavin/coinwatch/pkg/cache"
	"github.com/raykavin/coinwatch/pkg/core"
	"github.com/raykavin/coinwatch/pkg/logger"
	"github.com/raykavin/coinwatch/pkg/market"
	"github.com/raykavin/coinwatch/pkg/news"
)

// WithCache sets the resolution cache, by default it uses a local file
// called coinwatch-cache.db
func WithCache(store *cache.Store) Option {
	return func(bot *Coinwatch) {
		bot.cache = store
	}
}

// WithStorage sets the subscription storage, by default it uses a local
// file called coinwatch.db
func WithStorage(storage core.SubscriptionStorage) Option {
	return func(bot *Coinwatch) {
		bot.subs = storage
	}
}

// WithResolver overrides the default three-tier resolver.
func WithResolver(resolver core.Resolver) Option {
	return func(bot *Coinwatch) {
		bot.resolver = resolver
	}
}

// WithMarket overrides the default market data service.
func WithMarket(market *market.Service) Option {
	return func(bot *Coinwatch) {
		bot.market = market
	}
}

// WithNews overrides the default news service.
func WithNews(news *news.Service) Option {
	return func(bot *Coinwatch) {
		bot.news = news
	}
}

// WithNotifier registers a notifier to the bot, currently only telegram
// is supported
func WithNotifier(notifier core.Notifier) Option {
	return func(bot *Coinwatch) {
		bot.notifier = notifier
	}
}

// WithLogger overrides the default logger instance.
func WithLogger(log logger.Logger) Option {
	return func(bot *Coinwatch) {
		bot.logger = log
	}
}

// WithLogLevel sets the log level. eg: logger.DebugLevel, logger.InfoLevel,
// logger.WarnLevel, logger.ErrorLevel, logger.FatalLevel
func WithLogLevel(level logger.Level) Option {
	return func(bot *Coinwatch) {
		bot.logger.SetLevel(level)
	}
}
