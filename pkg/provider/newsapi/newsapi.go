// Package newsapi implements the primary news provider adapter on top
// of the NewsAPI "everything" endpoint.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/raykavin/coinwatch/pkg/core"
	"github.com/raykavin/coinwatch/pkg/logger"
	"github.com/samber/lo"
)

const DefaultBaseURL = "https://newsapi.org/v2"

// recencyWindow bounds the search to articles published within the
// last day, matching the digest semantics.
const recencyWindow = 24 * time.Hour

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     logger.Logger
}

func New(cfg core.ProviderSettings, log logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Name implements core.NewsProvider.
func (c *Client) Name() string { return "newsapi" }

type article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

type everythingResponse struct {
	Status   string    `json:"status"`
	Articles []article `json:"articles"`
}

// Search implements core.NewsProvider. Results are English-language,
// sorted newest first, restricted to the last 24 hours.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]core.Article, error) {
	from := time.Now().Add(-recencyWindow).Format("2006-01-02")

	params := url.Values{
		"q":        {query},
		"language": {"en"},
		"sortBy":   {"publishedAt"},
		"from":     {from},
		"pageSize": {strconv.Itoa(limit)},
		"apiKey":   {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, core.ErrUpstreamUnavailable)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, core.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if statusErr := core.ErrFromStatus(resp.StatusCode); statusErr != nil {
		return nil, fmt.Errorf("newsapi: %w", statusErr)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, core.ErrUpstreamUnavailable)
	}

	var payload everythingResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("malformed response: %v: %w", err, core.ErrUpstreamUnavailable)
	}

	if payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi status %q: %w", payload.Status, core.ErrUpstreamUnavailable)
	}

	return lo.Map(payload.Articles, func(a article, _ int) core.Article {
		return core.Article{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			SourceName:  a.Source.Name,
		}
	}), nil
}
