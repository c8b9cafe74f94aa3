package newsdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raykavin/coinwatch/pkg/core"
	"github.com/raykavin/coinwatch/pkg/logger"
	"github.com/stretchr/testify/require"
)

func TestSearch_MissingKeyFailsFast(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	t.Cleanup(srv.Close)

	client := New(core.ProviderSettings{BaseURL: srv.URL}, logger.Nop())

	_, err := client.Search(context.Background(), "bitcoin", 3)
	require.ErrorIs(t, err, core.ErrUpstreamUnavailable)
	require.Zero(t, requests)
}

func TestSearch_Normalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/news", r.URL.Path)
		require.Equal(t, "key", r.URL.Query().Get("apikey"))
		require.Equal(t, "business,technology", r.URL.Query().Get("category"))

		w.Write([]byte(`{"status":"success","results":[
			{"title":"ETH upgrade","description":"d","link":"https://example.com/e",
			 "pubDate":"2025-07-01 09:30:00","source_id":"cointelegraph"},
			{"title":"No source","link":"https://example.com/n","pubDate":"bad date"}]}`))
	}))
	t.Cleanup(srv.Close)

	client := New(core.ProviderSettings{BaseURL: srv.URL, APIKey: "key"}, logger.Nop())

	articles, err := client.Search(context.Background(), "ethereum", 5)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	require.Equal(t, "cointelegraph", articles[0].SourceName)
	require.Equal(t, 2025, articles[0].PublishedAt.Year())

	// Missing source falls back to the provider name; an unparseable
	// date falls back to now rather than the zero time.
	require.Equal(t, "newsdata", articles[1].SourceName)
	require.False(t, articles[1].PublishedAt.IsZero())
}

func TestSearch_QuotaStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	client := New(core.ProviderSettings{BaseURL: srv.URL, APIKey: "key"}, logger.Nop())

	_, err := client.Search(context.Background(), "bitcoin", 3)
	require.ErrorIs(t, err, core.ErrQuotaExceeded)
}
