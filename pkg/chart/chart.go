// Package chart builds QuickChart URLs for price-history line charts.
// Rendering itself is delegated to the external QuickChart service;
// nothing here draws pixels.
package chart

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/raykavin/coinwatch/pkg/core"
)

// DefaultBaseURL is the public QuickChart endpoint.
const DefaultBaseURL = "https://quickchart.io"

const (
	chartWidth  = 600
	chartHeight = 340
)

type dataset struct {
	Label       string    `json:"label"`
	Data        []float64 `json:"data"`
	Fill        bool      `json:"fill"`
	BorderColor string    `json:"borderColor"`
	PointRadius int       `json:"pointRadius"`
}

type chartConfig struct {
	Type string `json:"type"`
	Data struct {
		Labels   []string  `json:"labels"`
		Datasets []dataset `json:"datasets"`
	} `json:"data"`
}

// PriceChartURL builds the rendering URL for a line chart of points.
// An empty series reports ErrNoData so callers can send a "no chart
// available" message instead of a broken image.
func PriceChartURL(baseURL, symbol string, points []core.PricePoint) (string, error) {
	if len(points) == 0 {
		return "", fmt.Errorf("chart %s: %w", symbol, core.ErrNoData)
	}

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	labels := make([]string, len(points))
	values := make([]float64, len(points))
	for i, p := range points {
		labels[i] = p.Time.Format("01/02")
		values[i] = p.Price
	}

	cfg := chartConfig{Type: "line"}
	cfg.Data.Labels = labels
	cfg.Data.Datasets = []dataset{{
		Label:       strings.ToUpper(symbol) + " (USD)",
		Data:        values,
		Fill:        false,
		BorderColor: "rgb(75, 192, 192)",
	}}

	encoded, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chart config: %w", err)
	}

	return fmt.Sprintf("%s/chart?c=%s&w=%d&h=%d&backgroundColor=white",
		baseURL, url.QueryEscape(string(encoded)), chartWidth, chartHeight), nil
}
