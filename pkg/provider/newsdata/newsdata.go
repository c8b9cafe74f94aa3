// Package newsdata implements the secondary news provider adapter on
// top of the NewsData.io latest-news endpoint.
package newsdata

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

const DefaultBaseURL = "https://newsdata.io/api/1"

// pubDateLayout is NewsData's timestamp format.
const pubDateLayout = "2006-01-02 15:04:05"

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
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Name implements core.NewsProvider.
func (c *Client) Name() string { return "newsdata" }

type result struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	PubDate     string `json:"pubDate"`
	SourceID    string `json:"source_id"`
}

type newsResponse struct {
	Status  string   `json:"status"`
	Results []result `json:"results"`
}

// Search implements core.NewsProvider.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]core.Article, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("newsdata api key not configured: %w", core.ErrUpstreamUnavailable)
	}

	params := url.Values{
		"apikey":   {c.apiKey},
		"q":        {query},
		"language": {"en"},
		"category": {"business,technology"},
		"size":     {strconv.Itoa(limit)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/news?"+params.Encode(), nil)
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
		return nil, fmt.Errorf("newsdata: %w", statusErr)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, core.ErrUpstreamUnavailable)
	}

	var payload newsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("malformed response: %v: %w", err, core.ErrUpstreamUnavailable)
	}

	if payload.Status != "success" {
		return nil, fmt.Errorf("newsdata status %q: %w", payload.Status, core.ErrUpstreamUnavailable)
	}

	return lo.Map(payload.Results, func(r result, _ int) core.Article {
		publishedAt, err := time.Parse(pubDateLayout, r.PubDate)
		if err != nil {
			publishedAt = time.Now()
		}

		sourceName := r.SourceID
		if sourceName == "" {
			sourceName = c.Name()
		}

		return core.Article{
			Title:       r.Title,
			Description: r.Description,
			URL:         r.Link,
			PublishedAt: publishedAt,
			SourceName:  sourceName,
		}
	}), nil
}
