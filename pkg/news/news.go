// Package news aggregates articles across providers in a fixed
// priority order, degrading to tagged static placeholders so a request
// for news never fails under normal operation.
//
// Fallback policy: secondary providers are consulted only when the
// primary failure is classified as quota/auth (401/403/426/429).
// Timeouts and malformed responses skip straight to placeholders; a
// flapping primary should not double outbound traffic.
package news

import (
	"context"
	"errors"
	"strings"

	"github.com/raykavin/coinwatch/pkg/core"
	"github.com/raykavin/coinwatch/pkg/logger"
)

// maxTitleLen bounds titles on the keyword-search path. Other paths
// pass titles through untouched; callers that need a uniform bound
// must re-truncate.
const maxTitleLen = 80

// DefaultQuery is the digest query when no coin is targeted.
const DefaultQuery = "cryptocurrency OR bitcoin OR ethereum"

// Service implements core.NewsFetcher over an ordered provider list:
// the first provider is primary, the rest are secondaries.
type Service struct {
	providers []core.NewsProvider
	log       logger.Logger
}

func New(log logger.Logger, providers ...core.NewsProvider) *Service {
	return &Service{providers: providers, log: log}
}

// Articles fetches up to limit recent articles matching query. The
// returned error is always nil under normal operation; exhausting all
// providers yields placeholders, not a failure.
func (s *Service) Articles(ctx context.Context, query string, limit int) ([]core.Article, error) {
	if strings.TrimSpace(query) == "" {
		query = DefaultQuery
	}
	if limit <= 0 {
		limit = 3
	}

	if len(s.providers) == 0 {
		return placeholders(query, limit), nil
	}

	primary := s.providers[0]
	articles, err := primary.Search(ctx, query, limit)
	if err == nil && len(articles) > 0 {
		return articles, nil
	}

	if err != nil {
		s.log.WithError(err).WithField("provider", primary.Name()).Warn("primary news provider failed")
	}

	// Quota/auth failures escalate to the secondaries; each secondary
	// fails independently without aborting the next.
	if errors.Is(err, core.ErrQuotaExceeded) {
		for _, secondary := range s.providers[1:] {
			articles, err := secondary.Search(ctx, query, limit)
			if err != nil {
				s.log.WithError(err).WithField("provider", secondary.Name()).Warn("secondary news provider failed")
				continue
			}
			if len(articles) > 0 {
				s.log.WithField("provider", secondary.Name()).Info("news served by secondary provider")
				return articles, nil
			}
		}
	}

	s.log.WithField("query", query).Info("serving placeholder news")
	return placeholders(query, limit), nil
}

// SearchByKeyword behaves like Articles but truncates titles to a
// bounded display length.
func (s *Service) SearchByKeyword(ctx context.Context, keyword string, limit int) ([]core.Article, error) {
	articles, err := s.Articles(ctx, keyword, limit)
	if err != nil {
		return nil, err
	}

	for i := range articles {
		articles[i].Title = truncateTitle(articles[i].Title, maxTitleLen)
	}
	return articles, nil
}

func truncateTitle(title string, maxLen int) string {
	if title == "" {
		return "(untitled)"
	}

	runes := []rune(title)
	if len(runes) <= maxLen {
		return title
	}
	return string(runes[:maxLen]) + "..."
}
