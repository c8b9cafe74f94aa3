package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/raykavin/coinwatch/pkg/core"
	"github.com/raykavin/coinwatch/pkg/logger"
	"github.com/raykavin/coinwatch/pkg/provider/coingecko"
	"github.com/stretchr/testify/require"
)

// newService points a market service at a canned HTTP handler.
func newService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gecko := coingecko.New(core.ProviderSettings{BaseURL: srv.URL}, logger.Nop())
	return New(gecko, "twd", logger.Nop())
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func failHandler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}
}

func TestPriceSnapshot_Live(t *testing.T) {
	svc := newService(t, jsonHandler(`{"bitcoin":{
		"usd":64000.5,"twd":2050000,
		"usd_24h_change":-2.5,"usd_24h_vol":31e9,"usd_market_cap":1.26e12}}`))

	snapshot, err := svc.PriceSnapshot(context.Background(), "bitcoin")
	require.NoError(t, err)
	require.Equal(t, core.OriginLive, snapshot.Origin)
	require.Equal(t, "BTC", snapshot.Symbol)
	require.Equal(t, 64000.5, snapshot.PriceUSD.Value)
	require.True(t, snapshot.PriceLocal.Valid)
	require.Equal(t, "twd", snapshot.LocalCode)
	require.Equal(t, -2.5, snapshot.Change24hPct.Value)
}

func TestPriceSnapshot_FallbackOnUpstreamFailure(t *testing.T) {
	svc := newService(t, failHandler(http.StatusInternalServerError))

	snapshot, err := svc.PriceSnapshot(context.Background(), "bitcoin")
	require.NoError(t, err)
	require.Equal(t, core.OriginFallback, snapshot.Origin)
	require.Equal(t, "BTC", snapshot.Symbol)
	require.True(t, snapshot.PriceUSD.Valid)
	// The static table carries no volume or market cap.
	require.False(t, snapshot.Volume24hUSD.Valid)
	require.False(t, snapshot.MarketCapUSD.Valid)
}

func TestPriceSnapshot_UnknownAssetFailsWithUpstreamError(t *testing.T) {
	svc := newService(t, failHandler(http.StatusInternalServerError))

	_, err := svc.PriceSnapshot(context.Background(), "no-such-coin")
	require.ErrorIs(t, err, core.ErrUpstreamUnavailable)
}

func TestPriceSnapshot_MissingRecordDegradesToFallback(t *testing.T) {
	// A 200 response that simply omits the id is still a miss.
	svc := newService(t, jsonHandler(`{}`))

	snapshot, err := svc.PriceSnapshot(context.Background(), "ethereum")
	require.NoError(t, err)
	require.Equal(t, core.OriginFallback, snapshot.Origin)
}

func TestPriceSnapshot_QuotaClassification(t *testing.T) {
	svc := newService(t, failHandler(http.StatusTooManyRequests))

	_, err := svc.PriceSnapshot(context.Background(), "no-such-coin")
	require.ErrorIs(t, err, core.ErrQuotaExceeded)
	require.ErrorIs(t, err, core.ErrUpstreamUnavailable)
}

func TestPriceSnapshots_MixedLiveAndFallback(t *testing.T) {
	svc := newService(t, jsonHandler(`{"bitcoin":{"usd":64000,"twd":2050000}}`))

	snapshots, err := svc.PriceSnapshots(context.Background(), []string{"bitcoin", "ethereum", "unknown-coin"})
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	require.Equal(t, core.OriginLive, snapshots[0].Origin)
	require.Equal(t, core.OriginFallback, snapshots[1].Origin)
	require.Equal(t, "ETH", snapshots[1].Symbol)
}

func TestHistoricalSeries_NonPositiveDaysIsEmpty(t *testing.T) {
	var requests int
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
	})

	for _, days := range []int{0, -3} {
		series, err := svc.HistoricalSeries(context.Background(), "bitcoin", days)
		require.NoError(t, err)
		require.Zero(t, series.Len())
	}
	require.Zero(t, requests)
}

func TestHistoricalSeries_OneShotIteration(t *testing.T) {
	svc := newService(t, jsonHandler(`{"prices":[[1700000000000,100],[1700086400000,110],[1700172800000,105]]}`))

	series, err := svc.HistoricalSeries(context.Background(), "bitcoin", 3)
	require.NoError(t, err)
	require.Equal(t, 3, series.Len())

	first, ok := series.Next()
	require.True(t, ok)
	require.Equal(t, 100.0, first.Price)

	rest := series.Collect()
	require.Len(t, rest, 2)

	// Drained: the series does not restart.
	_, ok = series.Next()
	require.False(t, ok)
	require.Empty(t, series.Collect())
}

func TestHistoricalSeries_UpstreamFailureIsError(t *testing.T) {
	svc := newService(t, failHandler(http.StatusInternalServerError))

	_, err := svc.HistoricalSeries(context.Background(), "bitcoin", 7)
	require.ErrorIs(t, err, core.ErrUpstreamUnavailable)
}

func TestAssetMetadata_DescriptionCleanup(t *testing.T) {
	svc := newService(t, jsonHandler(`{
		"id":"bitcoin","symbol":"btc","name":"Bitcoin","genesis_date":"2009-01-03",
		"description":{"en":"Bitcoin is a <a href=\"x\">peer-to-peer</a> currency. It settles without intermediaries! A third sentence that must be dropped."},
		"market_data":{"market_cap_rank":1,"market_cap":{"usd":1.26e12},"total_volume":{"usd":31e9}}}`))

	meta, err := svc.AssetMetadata(context.Background(), "bitcoin")
	require.NoError(t, err)
	require.Equal(t, "BTC", meta.Symbol)
	require.Equal(t, 1, meta.MarketCapRank)
	require.NotContains(t, meta.Description, "<a")
	require.NotContains(t, meta.Description, "third sentence")
	require.True(t, strings.HasSuffix(meta.Description, "."))
}

func TestOverview_FallbackTagged(t *testing.T) {
	svc := newService(t, failHandler(http.StatusServiceUnavailable))

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.Equal(t, core.OriginFallback, overview.Origin)
	require.Positive(t, overview.TotalMarketCapUSD)
}

func TestFearGreed_LiveParsing(t *testing.T) {
	svc := newService(t, jsonHandler(`{"data":[{"value":"72","value_classification":"Greed","timestamp":"1700000000"}]}`))

	index, err := svc.FearGreed(context.Background())
	require.NoError(t, err)
	require.Equal(t, core.OriginLive, index.Origin)
	require.Equal(t, 72, index.Value)
	require.Equal(t, "Greed", index.Classification)
}

func TestTrending_NoFallback(t *testing.T) {
	svc := newService(t, failHandler(http.StatusBadGateway))

	_, err := svc.Trending(context.Background())
	require.ErrorIs(t, err, core.ErrUpstreamUnavailable)
}

func TestExtractDescription(t *testing.T) {
	require.Equal(t, "", extractDescription(""))
	require.Equal(t, "One sentence only.", extractDescription("One sentence only."))
	require.Equal(t, "First. Second.", extractDescription("First. Second. Third. Fourth."))
	require.Equal(t, "Plain text.", extractDescription("<b>Plain</b> text."))
}
