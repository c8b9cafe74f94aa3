// Package coingecko implements the primary market-data provider client.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"github.com/raykavin/coinwatch/pkg/core"
	"github.com/raykavin/coinwatch/pkg/logger"
)

// DefaultBaseURL is the public CoinGecko v3 endpoint.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// maxAttempts bounds the retry of gateway-level failures. Quota and
// client errors are never retried here: they are classified and pushed
// up so the caller's fallback chain can react.
const maxAttempts = 3

// Client talks to the CoinGecko REST API. The optional API key is sent
// as a query parameter, matching the demo-tier authentication scheme.
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

// ListedCoin is one row of the full coin listing.
type ListedCoin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// SearchCoin is one hit of the free-text search endpoint.
type SearchCoin struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank int    `json:"market_cap_rank"`
}

// CoinDetail is the per-asset detail payload, reduced to the fields
// coinwatch consumes.
type CoinDetail struct {
	ID          string            `json:"id"`
	Symbol      string            `json:"symbol"`
	Name        string            `json:"name"`
	GenesisDate string            `json:"genesis_date"`
	Description map[string]string `json:"description"`
	MarketData  struct {
		MarketCapRank int                `json:"market_cap_rank"`
		MarketCap     map[string]float64 `json:"market_cap"`
		TotalVolume   map[string]float64 `json:"total_volume"`
	} `json:"market_data"`
}

// GlobalData is the market-wide overview payload.
type GlobalData struct {
	TotalMarketCap         map[string]float64 `json:"total_market_cap"`
	TotalVolume            map[string]float64 `json:"total_volume"`
	MarketCapChangePct24h  float64            `json:"market_cap_change_percentage_24h_usd"`
	ActiveCryptocurrencies int                `json:"active_cryptocurrencies"`
	MarketCapPercentage    map[string]float64 `json:"market_cap_percentage"`
}

// TrendingCoin is one entry of the trending list.
type TrendingCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
}

// FearGreedEntry is one reading of the fear & greed index. The
// upstream serves numerics as strings.
type FearGreedEntry struct {
	Value          string `json:"value"`
	Classification string `json:"value_classification"`
	Timestamp      string `json:"timestamp"`
}

// SimplePrice fetches prices for ids in the given vs currencies in one
// batched query, including 24h change, 24h volume, and market cap.
// The response maps id -> currency/metric -> value; an id unknown to
// the provider is simply missing from the map.
func (c *Client) SimplePrice(ctx context.Context, ids, vsCurrencies []string) (map[string]map[string]float64, error) {
	query := url.Values{
		"ids":                 {strings.Join(ids, ",")},
		"vs_currencies":       {strings.Join(vsCurrencies, ",")},
		"include_24hr_change": {"true"},
		"include_24hr_vol":    {"true"},
		"include_market_cap":  {"true"},
	}

	out := make(map[string]map[string]float64)
	if err := c.get(ctx, "/simple/price", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CoinsList fetches the complete id/symbol/name listing. Expensive:
// the listing carries 10k+ entries, so callers should reach for it
// only after cheaper strategies failed.
func (c *Client) CoinsList(ctx context.Context) ([]ListedCoin, error) {
	var out []ListedCoin
	if err := c.get(ctx, "/coins/list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Search queries the free-text search endpoint.
func (c *Client) Search(ctx context.Context, query string) ([]SearchCoin, error) {
	var out struct {
		Coins []SearchCoin `json:"coins"`
	}
	if err := c.get(ctx, "/search", url.Values{"query": {query}}, &out); err != nil {
		return nil, err
	}
	return out.Coins, nil
}

// CoinDetail fetches the descriptive detail of one asset.
func (c *Client) CoinDetail(ctx context.Context, id string) (*CoinDetail, error) {
	query := url.Values{
		"localization":   {"false"},
		"tickers":        {"false"},
		"market_data":    {"true"},
		"community_data": {"false"},
		"developer_data": {"false"},
		"sparkline":      {"false"},
	}

	var out CoinDetail
	if err := c.get(ctx, "/coins/"+url.PathEscape(id), query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarketChart fetches the historical price curve of an asset as
// [timestamp-millis, price] pairs ordered oldest to newest.
func (c *Client) MarketChart(ctx context.Context, id, vsCurrency string, days int) ([][2]float64, error) {
	query := url.Values{
		"vs_currency": {vsCurrency},
		"days":        {strconv.Itoa(days)},
	}

	var out struct {
		Prices [][2]float64 `json:"prices"`
	}
	if err := c.get(ctx, "/coins/"+url.PathEscape(id)+"/market_chart", query, &out); err != nil {
		return nil, err
	}
	return out.Prices, nil
}

// Global fetches the market-wide overview.
func (c *Client) Global(ctx context.Context) (*GlobalData, error) {
	var out struct {
		Data GlobalData `json:"data"`
	}
	if err := c.get(ctx, "/global", nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Trending fetches the currently trending coins.
func (c *Client) Trending(ctx context.Context) ([]TrendingCoin, error) {
	var out struct {
		Coins []struct {
			Item TrendingCoin `json:"item"`
		} `json:"coins"`
	}
	if err := c.get(ctx, "/search/trending", nil, &out); err != nil {
		return nil, err
	}

	coins := make([]TrendingCoin, 0, len(out.Coins))
	for _, coin := range out.Coins {
		coins = append(coins, coin.Item)
	}
	return coins, nil
}

// FearGreed fetches the latest fear & greed index reading.
func (c *Client) FearGreed(ctx context.Context) (*FearGreedEntry, error) {
	var out struct {
		Data []FearGreedEntry `json:"data"`
	}
	if err := c.get(ctx, "/fear_greed_index", nil, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, core.ErrNoData
	}
	return &out.Data[0], nil
}

// get performs one GET against the provider, classifying failures into
// the core error taxonomy. Gateway errors (502/503/504) are retried
// with backoff up to maxAttempts; everything else fails fast.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	if c.apiKey != "" {
		query.Set("x_cg_demo_api_key", c.apiKey)
	}

	endpoint := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	retry := &backoff.Backoff{
		Min: 100 * time.Millisecond,
		Max: 1 * time.Second,
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retry.Duration()):
			case <-ctx.Done():
				return fmt.Errorf("%v: %w", ctx.Err(), core.ErrUpstreamUnavailable)
			}
		}

		body, status, err := c.do(ctx, endpoint)
		if err != nil {
			return fmt.Errorf("%v: %w", err, core.ErrUpstreamUnavailable)
		}

		if statusErr := core.ErrFromStatus(status); statusErr != nil {
			lastErr = statusErr
			if isRetriable(status) {
				c.log.WithField("status", status).Warnf("coingecko %s failed, retrying", path)
				continue
			}
			return statusErr
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("malformed response: %v: %w", err, core.ErrUpstreamUnavailable)
		}
		return nil
	}

	return lastErr
}

func (c *Client) do(ctx context.Context, endpoint string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}

	return body, resp.StatusCode, nil
}

func isRetriable(status int) bool {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
