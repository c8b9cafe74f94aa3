package newsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raykavin/coinwatch/pkg/core"
	"github.com/raykavin/coinwatch/pkg/logger"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(core.ProviderSettings{BaseURL: srv.URL, APIKey: "key"}, logger.Nop())
}

func TestSearch_Normalizes(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/everything", r.URL.Path)
		require.Equal(t, "bitcoin", r.URL.Query().Get("q"))
		require.Equal(t, "en", r.URL.Query().Get("language"))
		require.Equal(t, "publishedAt", r.URL.Query().Get("sortBy"))
		require.Equal(t, "3", r.URL.Query().Get("pageSize"))
		require.Equal(t, "key", r.URL.Query().Get("apiKey"))
		require.NotEmpty(t, r.URL.Query().Get("from"))

		w.Write([]byte(`{"status":"ok","articles":[{
			"source":{"name":"CoinDesk"},
			"title":"BTC moves",
			"description":"desc",
			"url":"https://example.com/a",
			"publishedAt":"2025-07-01T09:30:00Z"}]}`))
	})

	articles, err := client.Search(context.Background(), "bitcoin", 3)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	require.Equal(t, "BTC moves", articles[0].Title)
	require.Equal(t, "CoinDesk", articles[0].SourceName)
	require.Equal(t, 2025, articles[0].PublishedAt.Year())
}

func TestSearch_QuotaStatus(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "bitcoin", 3)
	require.ErrorIs(t, err, core.ErrQuotaExceeded)
}

func TestSearch_ErrorStatusBody(t *testing.T) {
	// NewsAPI reports some failures inside a 200 body.
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","articles":[]}`))
	})

	_, err := client.Search(context.Background(), "bitcoin", 3)
	require.ErrorIs(t, err, core.ErrUpstreamUnavailable)
	require.NotErrorIs(t, err, core.ErrQuotaExceeded)
}
