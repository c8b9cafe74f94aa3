package news

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/raykavin/coinwatch/pkg/core"
	"github.com/raykavin/coinwatch/pkg/logger"
	"github.com/stretchr/testify/require"
)

// stubProvider is a canned core.NewsProvider that records its calls.
type stubProvider struct {
	name     string
	articles []core.Article
	err      error
	calls    int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Search(_ context.Context, _ string, _ int) ([]core.Article, error) {
	p.calls++
	return p.articles, p.err
}

func liveArticle(title string) core.Article {
	return core.Article{
		Title:       title,
		URL:         "https://example.com/a",
		PublishedAt: time.Now(),
		SourceName:  "example",
	}
}

func TestArticles_PrimaryWins(t *testing.T) {
	primary := &stubProvider{name: "primary", articles: []core.Article{liveArticle("btc rallies")}}
	secondary := &stubProvider{name: "secondary", articles: []core.Article{liveArticle("never seen")}}

	svc := New(logger.Nop(), primary, secondary)

	articles, err := svc.Articles(context.Background(), "bitcoin", 3)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	require.Equal(t, "btc rallies", articles[0].Title)
	require.Zero(t, secondary.calls)
}

func TestArticles_QuotaEscalatesToSecondary(t *testing.T) {
	primary := &stubProvider{name: "primary", err: core.ErrFromStatus(429)}
	secondary := &stubProvider{name: "secondary", articles: []core.Article{liveArticle("from secondary")}}

	svc := New(logger.Nop(), primary, secondary)

	articles, err := svc.Articles(context.Background(), "bitcoin", 3)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	require.Equal(t, "from secondary", articles[0].Title)
	require.Equal(t, 1, secondary.calls)
}

func TestArticles_NonQuotaFailureSkipsSecondary(t *testing.T) {
	primary := &stubProvider{name: "primary", err: fmt.Errorf("read timeout: %w", core.ErrUpstreamUnavailable)}
	secondary := &stubProvider{name: "secondary", articles: []core.Article{liveArticle("should not appear")}}

	svc := New(logger.Nop(), primary, secondary)

	articles, err := svc.Articles(context.Background(), "bitcoin", 3)
	require.NoError(t, err)
	require.Zero(t, secondary.calls)
	for _, article := range articles {
		require.True(t, article.IsPlaceholder())
	}
}

func TestArticles_AllProvidersDownYieldsPlaceholders(t *testing.T) {
	primary := &stubProvider{name: "primary", err: core.ErrFromStatus(429)}
	secondary := &stubProvider{name: "secondary", err: core.ErrFromStatus(401)}

	svc := New(logger.Nop(), primary, secondary)

	articles, err := svc.Articles(context.Background(), "regulation news", 3)
	require.NoError(t, err)
	require.Len(t, articles, 3)
	for _, article := range articles {
		require.Equal(t, core.PlaceholderSource, article.SourceName)
	}
	// Keyword-matched template ordered first.
	require.Contains(t, articles[0].Title, "regulation")
	require.Equal(t, 1, secondary.calls)
}

func TestArticles_EmptyQueryUsesDefault(t *testing.T) {
	svc := New(logger.Nop())

	articles, err := svc.Articles(context.Background(), "   ", 0)
	require.NoError(t, err)
	require.Len(t, articles, 3)
	require.Contains(t, articles[0].Title, DefaultQuery)
}

func TestArticles_EmptyPrimaryResultFallsThrough(t *testing.T) {
	// A provider that succeeds with zero articles is treated like a
	// miss, not a success.
	primary := &stubProvider{name: "primary"}

	svc := New(logger.Nop(), primary)

	articles, err := svc.Articles(context.Background(), "bitcoin", 2)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	require.True(t, articles[0].IsPlaceholder())
}

func TestSearchByKeyword_TruncatesTitles(t *testing.T) {
	long := strings.Repeat("a", 120)
	primary := &stubProvider{name: "primary", articles: []core.Article{
		liveArticle(long),
		liveArticle("short"),
		{URL: "https://example.com/b", SourceName: "example"},
	}}

	svc := New(logger.Nop(), primary)

	articles, err := svc.SearchByKeyword(context.Background(), "bitcoin", 3)
	require.NoError(t, err)
	require.Len(t, articles, 3)
	require.Equal(t, strings.Repeat("a", 80)+"...", articles[0].Title)
	require.Equal(t, "short", articles[1].Title)
	require.Equal(t, "(untitled)", articles[2].Title)
}

func TestTruncateTitle_RuneSafe(t *testing.T) {
	title := strings.Repeat("比", 90)
	got := truncateTitle(title, 80)
	require.Equal(t, strings.Repeat("比", 80)+"...", got)
}
