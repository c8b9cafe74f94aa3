// Package market aggregates price, volume, and descriptive data for a
// resolved asset from the primary provider, degrading to clearly
// tagged static values where a fallback entry exists.
package market

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/raykavin/coinwatch/pkg/core"
	"github.com/raykavin/coinwatch/pkg/logger"
	"github.com/raykavin/coinwatch/pkg/provider/coingecko"
	"github.com/samber/lo"
)

var htmlTagRegexp = regexp.MustCompile(`<[^>]*>`)

// Service implements core.MarketData.
type Service struct {
	gecko *coingecko.Client
	local string
	log   logger.Logger
}

// New creates a market service. local is the secondary quote currency
// code (e.g. "twd").
func New(gecko *coingecko.Client, local string, log logger.Logger) *Service {
	if local == "" {
		local = "twd"
	}
	return &Service{gecko: gecko, local: local, log: log}
}

// PriceSnapshot fetches a normalized price view of one asset in one
// batched query. When the provider fails or does not know the id, the
// static fallback table answers instead; only when both miss does the
// call fail with ErrUpstreamUnavailable.
//
// Prices pass through as provider-native floats with no rounding;
// presentation rounding belongs to the messaging layer.
func (s *Service) PriceSnapshot(ctx context.Context, idOrTicker string) (core.PriceSnapshot, error) {
	id := strings.ToLower(idOrTicker)

	prices, err := s.gecko.SimplePrice(ctx, []string{id}, []string{"usd", s.local})
	if err == nil {
		if record, ok := prices[id]; ok && len(record) > 0 {
			return s.liveSnapshot(id, record), nil
		}
		err = fmt.Errorf("no price record for %q: %w", id, core.ErrUpstreamUnavailable)
	}

	if snapshot, ok := fallbackSnapshot(id, s.local); ok {
		s.log.WithError(err).Warnf("serving fallback price for %s", id)
		return snapshot, nil
	}

	return core.PriceSnapshot{}, fmt.Errorf("price snapshot %s: %w", id, err)
}

// PriceSnapshots fetches several assets in a single batched query.
// Assets missing from the response degrade individually through the
// fallback table and are skipped when no fallback row exists.
func (s *Service) PriceSnapshots(ctx context.Context, ids []string) ([]core.PriceSnapshot, error) {
	ids = lo.Map(ids, func(id string, _ int) string { return strings.ToLower(id) })

	prices, err := s.gecko.SimplePrice(ctx, ids, []string{"usd", s.local})
	if err != nil {
		snapshots := make([]core.PriceSnapshot, 0, len(ids))
		for _, id := range ids {
			if snapshot, ok := fallbackSnapshot(id, s.local); ok {
				snapshots = append(snapshots, snapshot)
			}
		}
		if len(snapshots) == 0 {
			return nil, fmt.Errorf("price snapshots: %w", err)
		}
		s.log.WithError(err).Warn("serving fallback prices for batch")
		return snapshots, nil
	}

	snapshots := make([]core.PriceSnapshot, 0, len(ids))
	for _, id := range ids {
		record, ok := prices[id]
		if !ok || len(record) == 0 {
			if snapshot, fallbackOK := fallbackSnapshot(id, s.local); fallbackOK {
				snapshots = append(snapshots, snapshot)
			}
			continue
		}
		snapshots = append(snapshots, s.liveSnapshot(id, record))
	}

	return snapshots, nil
}

func (s *Service) liveSnapshot(id string, record map[string]float64) core.PriceSnapshot {
	return core.PriceSnapshot{
		Symbol:       displaySymbol(id),
		PriceUSD:     core.Amt(record["usd"]),
		PriceLocal:   core.Amt(record[s.local]),
		LocalCode:    s.local,
		Change24hPct: core.Amt(record["usd_24h_change"]),
		Volume24hUSD: core.Amt(record["usd_24h_vol"]),
		MarketCapUSD: core.Amt(record["usd_market_cap"]),
		Origin:       core.OriginLive,
		FetchedAt:    time.Now(),
	}
}

// AssetMetadata fetches the descriptive fields of one asset. There is
// no fallback table for metadata: a provider failure surfaces as
// ErrUpstreamUnavailable and the caller decides how to degrade.
func (s *Service) AssetMetadata(ctx context.Context, idOrTicker string) (core.AssetMetadata, error) {
	id := strings.ToLower(idOrTicker)

	detail, err := s.gecko.CoinDetail(ctx, id)
	if err != nil {
		return core.AssetMetadata{}, fmt.Errorf("asset metadata %s: %w", id, err)
	}

	return core.AssetMetadata{
		Name:          detail.Name,
		Symbol:        strings.ToUpper(detail.Symbol),
		MarketCapRank: detail.MarketData.MarketCapRank,
		MarketCapUSD:  core.Amt(detail.MarketData.MarketCap["usd"]),
		Volume24hUSD:  core.Amt(detail.MarketData.TotalVolume["usd"]),
		GenesisDate:   detail.GenesisDate,
		Description:   extractDescription(detail.Description["en"]),
		FetchedAt:     time.Now(),
	}, nil
}

// HistoricalSeries fetches the price curve of the last days days as a
// one-shot iterator ordered oldest to newest. A provider response with
// zero points, or days <= 0, yields an empty series rather than an
// error, so chart and indicator consumers can special-case
// "insufficient data" deterministically.
func (s *Service) HistoricalSeries(ctx context.Context, idOrTicker string, days int) (*core.Series, error) {
	if days <= 0 {
		return core.NewSeries(nil), nil
	}

	id := strings.ToLower(idOrTicker)

	prices, err := s.gecko.MarketChart(ctx, id, "usd", days)
	if err != nil {
		return nil, fmt.Errorf("historical series %s: %w", id, err)
	}

	points := lo.Map(prices, func(pair [2]float64, _ int) core.PricePoint {
		return core.PricePoint{
			Time:  time.UnixMilli(int64(pair[0])),
			Price: pair[1],
		}
	})

	return core.NewSeries(points), nil
}

// Overview fetches the market-wide totals, degrading to the static
// overview on failure.
func (s *Service) Overview(ctx context.Context) (core.GlobalMarket, error) {
	data, err := s.gecko.Global(ctx)
	if err != nil {
		s.log.WithError(err).Warn("serving fallback market overview")
		return fallbackGlobal(), nil
	}

	return core.GlobalMarket{
		TotalMarketCapUSD: data.TotalMarketCap["usd"],
		TotalVolume24hUSD: data.TotalVolume["usd"],
		MarketCapChange:   data.MarketCapChangePct24h,
		ActiveAssets:      data.ActiveCryptocurrencies,
		DominancePct:      data.MarketCapPercentage,
		Origin:            core.OriginLive,
		FetchedAt:         time.Now(),
	}, nil
}

// Trending fetches the provider's trending coins. No fallback: an
// empty trending list is not worth faking.
func (s *Service) Trending(ctx context.Context) ([]core.TrendingCoin, error) {
	coins, err := s.gecko.Trending(ctx)
	if err != nil {
		return nil, fmt.Errorf("trending: %w", err)
	}

	return lo.Map(coins, func(coin coingecko.TrendingCoin, _ int) core.TrendingCoin {
		return core.TrendingCoin{
			ID:            core.CanonicalID(coin.ID),
			Name:          coin.Name,
			Symbol:        strings.ToUpper(coin.Symbol),
			MarketCapRank: coin.MarketCapRank,
		}
	}), nil
}

// FearGreed fetches the fear & greed index, degrading to a static
// neutral reading on failure.
func (s *Service) FearGreed(ctx context.Context) (core.FearGreed, error) {
	entry, err := s.gecko.FearGreed(ctx)
	if err != nil {
		s.log.WithError(err).Warn("serving fallback fear & greed index")
		return fallbackFearGreed(), nil
	}

	value, err := strconv.Atoi(entry.Value)
	if err != nil {
		return fallbackFearGreed(), nil
	}

	at := time.Now()
	if ts, err := strconv.ParseInt(entry.Timestamp, 10, 64); err == nil {
		at = time.Unix(ts, 0)
	}

	return core.FearGreed{
		Value:          value,
		Classification: entry.Classification,
		At:             at,
		Origin:         core.OriginLive,
	}, nil
}

// extractDescription strips HTML tags and keeps the first two
// sentences of the provider's long-form text.
func extractDescription(description string) string {
	clean := htmlTagRegexp.ReplaceAllString(description, "")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return ""
	}

	sentences := lo.Filter(
		strings.FieldsFunc(clean, func(r rune) bool {
			return r == '.' || r == '!' || r == '?'
		}),
		func(s string, _ int) bool { return strings.TrimSpace(s) != "" },
	)

	switch {
	case len(sentences) >= 2:
		return strings.TrimSpace(sentences[0]) + ". " + strings.TrimSpace(sentences[1]) + "."
	case len(sentences) == 1:
		return strings.TrimSpace(sentences[0]) + "."
	default:
		return ""
	}
}
