// Package resolver maps free-form tickers to canonical provider ids.
//
// Resolution runs an ordered list of strategies, cheapest first, and
// stops at the first success. A strategy that hits a transport error
// counts as "no match from this strategy"; only exhaustion of the whole
// list is reported as unresolved, and even that is an absent result
// rather than an error.
package resolver

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/raykavin/coinwatch/pkg/cache"
	"github.com/raykavin/coinwatch/pkg/core"
	"github.com/raykavin/coinwatch/pkg/logger"
	"github.com/raykavin/coinwatch/pkg/provider/coingecko"
	"github.com/samber/lo"
)

// Per-strategy timeouts. The listing endpoint is the expensive one.
const (
	probeTimeout   = 5 * time.Second
	listingTimeout = 10 * time.Second
	searchTimeout  = 5 * time.Second
)

// tickerRegexp bounds what a ticker may look like: 1-20 alphanumeric
// characters, case-insensitive.
var tickerRegexp = regexp.MustCompile(`^[a-z0-9]{1,20}$`)

// strategy is one resolution attempt with a uniform signature. Keeping
// them in an ordered list makes the cheapest-first order explicit and
// each strategy independently testable.
type strategy struct {
	name       string
	writeCache bool
	fn         func(ctx context.Context, ticker string) (core.CanonicalID, bool)
}

// Service implements core.Resolver.
type Service struct {
	gecko      *coingecko.Client
	cache      *cache.Store
	seed       map[string]core.CanonicalID
	log        logger.Logger
	strategies []strategy
}

// Option configures a Service.
type Option func(*Service)

// WithSeed replaces the built-in mapping table, e.g. with one produced
// by `coinwatch sync`.
func WithSeed(table map[string]core.CanonicalID) Option {
	return func(s *Service) {
		s.seed = table
	}
}

// New creates a resolver backed by the given provider client and cache.
func New(gecko *coingecko.Client, store *cache.Store, log logger.Logger, options ...Option) *Service {
	s := &Service{
		gecko: gecko,
		cache: store,
		seed:  Seed(),
		log:   log,
	}

	for _, option := range options {
		option(s)
	}

	s.strategies = []strategy{
		{name: "seed-table", writeCache: false, fn: s.fromSeed},
		{name: "direct-probe", writeCache: true, fn: s.directProbe},
		{name: "listing-search", writeCache: true, fn: s.listingSearch},
		{name: "text-search", writeCache: true, fn: s.textSearch},
	}

	return s
}

// Resolve implements core.Resolver. The ticker is normalized to
// lowercase; the cache answers first, then the strategies run strictly
// in order. Failures are never cached, so a timed-out upstream does
// not poison later lookups.
func (s *Service) Resolve(ctx context.Context, ticker string) (core.CanonicalID, bool) {
	ticker = strings.ToLower(strings.TrimSpace(ticker))
	if !tickerRegexp.MatchString(ticker) {
		return "", false
	}

	if id, ok := s.cache.Get(ticker); ok {
		s.log.WithField("ticker", ticker).Debugf("resolved from cache: %s", id)
		return id, true
	}

	for _, strat := range s.strategies {
		id, ok := strat.fn(ctx, ticker)
		if !ok {
			continue
		}

		if strat.writeCache {
			if err := s.cache.Put(ticker, id); err != nil {
				s.log.WithError(err).Warn("failed to cache resolution")
			}
		}

		s.log.WithFields(map[string]any{
			"ticker":   ticker,
			"strategy": strat.name,
		}).Infof("resolved %s -> %s", ticker, id)
		return id, true
	}

	s.log.WithField("ticker", ticker).Info("could not resolve ticker")
	return "", false
}

// fromSeed consults the static mapping table. No network, no cache
// write needed.
func (s *Service) fromSeed(_ context.Context, ticker string) (core.CanonicalID, bool) {
	id, ok := s.seed[ticker]
	return id, ok
}

// directProbe tries the ticker itself as a canonical id with a minimal
// price query. Some assets (e.g. "sui") use their symbol as id.
func (s *Service) directProbe(ctx context.Context, ticker string) (core.CanonicalID, bool) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	prices, err := s.gecko.SimplePrice(ctx, []string{ticker}, []string{"usd"})
	if err != nil {
		return "", false
	}

	if record, ok := prices[ticker]; ok && len(record) > 0 {
		return core.CanonicalID(ticker), true
	}
	return "", false
}

// listingSearch scans the full coin listing for an exact symbol match,
// falling back to a substring match in either direction.
func (s *Service) listingSearch(ctx context.Context, ticker string) (core.CanonicalID, bool) {
	ctx, cancel := context.WithTimeout(ctx, listingTimeout)
	defer cancel()

	coins, err := s.gecko.CoinsList(ctx)
	if err != nil {
		return "", false
	}

	exact, found := lo.Find(coins, func(coin coingecko.ListedCoin) bool {
		return strings.ToLower(coin.Symbol) == ticker
	})
	if found {
		return core.CanonicalID(exact.ID), true
	}

	partial, found := lo.Find(coins, func(coin coingecko.ListedCoin) bool {
		symbol := strings.ToLower(coin.Symbol)
		return strings.Contains(symbol, ticker) || strings.Contains(ticker, symbol)
	})
	if found {
		return core.CanonicalID(partial.ID), true
	}

	return "", false
}

// textSearch queries the provider's free-text search endpoint,
// preferring an exact symbol match among the hits.
func (s *Service) textSearch(ctx context.Context, ticker string) (core.CanonicalID, bool) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	coins, err := s.gecko.Search(ctx, ticker)
	if err != nil || len(coins) == 0 {
		return "", false
	}

	exact, found := lo.Find(coins, func(coin coingecko.SearchCoin) bool {
		return strings.ToLower(coin.Symbol) == ticker
	})
	if found {
		return core.CanonicalID(exact.ID), true
	}

	return core.CanonicalID(coins[0].ID), true
}
