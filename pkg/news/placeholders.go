package news

import (
	"fmt"
	"strings"
	"time"

	"github.com/raykavin/coinwatch/pkg/core"
	"github.com/samber/lo"
)

type placeholderTopic struct {
	title    string
	keywords []string
}

// placeholderTopics are the static article templates served when every
// live source failed. Topic keywords let a query like "regulation"
// pick the more relevant subset first.
var placeholderTopics = []placeholderTopic{
	{title: "%s market update", keywords: []string{"market", "price"}},
	{title: "%s technical analysis report", keywords: []string{"analysis", "technical", "chart"}},
	{title: "%s regulation policy roundup", keywords: []string{"regulation", "policy", "sec"}},
	{title: "%s investor sentiment overview", keywords: []string{"sentiment", "investor"}},
	{title: "%s ecosystem development digest", keywords: []string{"development", "ecosystem", "blockchain"}},
}

// placeholders produces up to limit static articles for a query. Every
// article carries core.PlaceholderSource so provenance stays explicit.
func placeholders(query string, limit int) []core.Article {
	topic := strings.TrimSpace(query)
	if topic == "" {
		topic = "cryptocurrency"
	}

	lowered := strings.ToLower(topic)
	now := time.Now()

	matches := func(t placeholderTopic) bool {
		return lo.SomeBy(t.keywords, func(k string) bool {
			return strings.Contains(lowered, k)
		})
	}

	// Keyword-matching templates first, then the rest in fixed order.
	matched := lo.Filter(placeholderTopics, func(t placeholderTopic, _ int) bool { return matches(t) })
	rest := lo.Filter(placeholderTopics, func(t placeholderTopic, _ int) bool { return !matches(t) })

	ordered := append(matched, rest...)
	if limit < 0 {
		limit = 0
	}
	if limit > len(ordered) {
		limit = len(ordered)
	}

	articles := make([]core.Article, 0, limit)
	for _, t := range ordered[:limit] {
		articles = append(articles, core.Article{
			Title:       fmt.Sprintf(t.title, topic),
			URL:         "https://coinwatch.example/news",
			PublishedAt: now,
			SourceName:  core.PlaceholderSource,
		})
	}
	return articles
}
