package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raykavin/coinwatch/pkg/cache"
	"github.com/raykavin/coinwatch/pkg/core"
	"github.com/raykavin/coinwatch/pkg/logger"
	"github.com/raykavin/coinwatch/pkg/provider/coingecko"
	"github.com/stretchr/testify/require"
)

// fakeGecko counts requests per endpoint so tests can assert exactly
// which strategies went to the network.
type fakeGecko struct {
	price   atomic.Int32
	listing atomic.Int32
	search  atomic.Int32

	priceBody   string
	listingBody string
	searchBody  string
	status      int
}

func (f *fakeGecko) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body string
		switch {
		case strings.HasPrefix(r.URL.Path, "/simple/price"):
			f.price.Add(1)
			body = f.priceBody
		case strings.HasPrefix(r.URL.Path, "/coins/list"):
			f.listing.Add(1)
			body = f.listingBody
		case strings.HasPrefix(r.URL.Path, "/search"):
			f.search.Add(1)
			body = f.searchBody
		default:
			http.NotFound(w, r)
			return
		}

		if f.status != 0 && f.status != http.StatusOK {
			w.WriteHeader(f.status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	})
}

func newResolver(t *testing.T, fake *fakeGecko, options ...Option) *Service {
	t.Helper()

	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	store, err := cache.FromMemory(time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	gecko := coingecko.New(core.ProviderSettings{BaseURL: srv.URL}, logger.Nop())
	return New(gecko, store, logger.Nop(), options...)
}

func TestResolve_SeedNeverHitsNetwork(t *testing.T) {
	fake := &fakeGecko{}
	svc := newResolver(t, fake)

	id, ok := svc.Resolve(context.Background(), "BTC")
	require.True(t, ok)
	require.Equal(t, core.CanonicalID("bitcoin"), id)

	require.Zero(t, fake.price.Load())
	require.Zero(t, fake.listing.Load())
	require.Zero(t, fake.search.Load())
}

func TestResolve_DirectProbeThenCache(t *testing.T) {
	fake := &fakeGecko{priceBody: `{"fakecoin":{"usd":1.23}}`}
	svc := newResolver(t, fake)

	id, ok := svc.Resolve(context.Background(), "fakecoin")
	require.True(t, ok)
	require.Equal(t, core.CanonicalID("fakecoin"), id)
	require.Equal(t, int32(1), fake.price.Load())

	// Second lookup answers from cache; no further requests.
	id, ok = svc.Resolve(context.Background(), "FAKECOIN")
	require.True(t, ok)
	require.Equal(t, core.CanonicalID("fakecoin"), id)
	require.Equal(t, int32(1), fake.price.Load())
	require.Zero(t, fake.listing.Load())
}

func TestResolve_ListingSearchExactSymbol(t *testing.T) {
	fake := &fakeGecko{
		priceBody:   `{}`,
		listingBody: `[{"id":"render-token","symbol":"rndr","name":"Render"}]`,
	}
	svc := newResolver(t, fake)

	id, ok := svc.Resolve(context.Background(), "rndr")
	require.True(t, ok)
	require.Equal(t, core.CanonicalID("render-token"), id)
	require.Equal(t, int32(1), fake.listing.Load())
	require.Zero(t, fake.search.Load())
}

func TestResolve_TextSearchPrefersExactSymbol(t *testing.T) {
	fake := &fakeGecko{
		priceBody:   `{}`,
		listingBody: `[]`,
		searchBody: `{"coins":[
			{"id":"pepe-wrong","symbol":"pepew","name":"Pepe Wrong"},
			{"id":"pepe","symbol":"pepe","name":"Pepe"}]}`,
	}
	svc := newResolver(t, fake)

	id, ok := svc.Resolve(context.Background(), "pepe")
	require.True(t, ok)
	require.Equal(t, core.CanonicalID("pepe"), id)
}

func TestResolve_FailureIsAbsentAndNotCached(t *testing.T) {
	fake := &fakeGecko{status: http.StatusInternalServerError}
	svc := newResolver(t, fake)

	_, ok := svc.Resolve(context.Background(), "nocoin")
	require.False(t, ok)

	// Upstream recovers: the earlier failure must not be cached.
	fake.status = http.StatusOK
	fake.priceBody = `{"nocoin":{"usd":0.5}}`

	id, ok := svc.Resolve(context.Background(), "nocoin")
	require.True(t, ok)
	require.Equal(t, core.CanonicalID("nocoin"), id)
}

func TestResolve_RejectsMalformedTickers(t *testing.T) {
	fake := &fakeGecko{}
	svc := newResolver(t, fake)

	for _, ticker := range []string{"", "  ", "btc usdt", "way-too-long-ticker-name-here", "b+c"} {
		_, ok := svc.Resolve(context.Background(), ticker)
		require.False(t, ok, "ticker %q", ticker)
	}
	require.Zero(t, fake.price.Load())
}

func TestResolve_WithSeedOverride(t *testing.T) {
	fake := &fakeGecko{}
	svc := newResolver(t, fake, WithSeed(map[string]core.CanonicalID{
		"zzz": "zzz-protocol",
	}))

	id, ok := svc.Resolve(context.Background(), "zzz")
	require.True(t, ok)
	require.Equal(t, core.CanonicalID("zzz-protocol"), id)

	// The built-in table was replaced, so btc now needs the network.
	fake.priceBody = `{}`
	fake.listingBody = `[{"id":"bitcoin","symbol":"btc","name":"Bitcoin"}]`
	id, ok = svc.Resolve(context.Background(), "btc")
	require.True(t, ok)
	require.Equal(t, core.CanonicalID("bitcoin"), id)
	require.Equal(t, int32(1), fake.listing.Load())
}
