package core

import "time"

// Origin tags whether a value came from a live provider response or
// from the static fallback tables. Callers and tests assert provenance
// through this tag instead of guessing from field values.
type Origin string

const (
	OriginLive     Origin = "live"
	OriginFallback Origin = "fallback"
)

// Amount is a provider-supplied numeric that may be absent. A missing
// or exactly-zero provider field is carried as Valid == false rather
// than a silent 0, so presentation layers can render "N/A" instead of
// a misleading "$0.00".
type Amount struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Amt builds an Amount, treating exactly zero as absent.
func Amt(v float64) Amount {
	return Amount{Value: v, Valid: v != 0}
}

// Or returns the value, or def when the amount is absent.
func (a Amount) Or(def float64) float64 {
	if !a.Valid {
		return def
	}
	return a.Value
}

// PriceSnapshot is a transient, per-request price view of one asset.
// It is never cached; every request recomputes it.
type PriceSnapshot struct {
	Symbol       string    `json:"symbol"`
	PriceUSD     Amount    `json:"price_usd"`
	PriceLocal   Amount    `json:"price_local"`
	LocalCode    string    `json:"local_code"`
	Change24hPct Amount    `json:"change_24h_pct"`
	Volume24hUSD Amount    `json:"volume_24h_usd"`
	MarketCapUSD Amount    `json:"market_cap_usd"`
	Origin       Origin    `json:"origin"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// AssetMetadata carries the descriptive fields of an asset. The
// description is HTML-stripped and truncated to the first two
// sentences of the provider's long-form text.
type AssetMetadata struct {
	Name          string    `json:"name"`
	Symbol        string    `json:"symbol"`
	MarketCapRank int       `json:"market_cap_rank"`
	MarketCapUSD  Amount    `json:"market_cap_usd"`
	Volume24hUSD  Amount    `json:"volume_24h_usd"`
	GenesisDate   string    `json:"genesis_date"`
	Description   string    `json:"description"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// PricePoint is one sample of a historical price series.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// Series is a finite, one-shot iterator over price points ordered
// oldest to newest. Once drained it cannot be restarted.
type Series struct {
	points []PricePoint
	pos    int
}

// NewSeries wraps points (assumed oldest-to-newest) in a Series.
func NewSeries(points []PricePoint) *Series {
	return &Series{points: points}
}

// Next yields the next point. ok is false once the series is drained.
func (s *Series) Next() (p PricePoint, ok bool) {
	if s == nil || s.pos >= len(s.points) {
		return PricePoint{}, false
	}
	p = s.points[s.pos]
	s.pos++
	return p, true
}

// Len reports the number of points not yet consumed.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.points) - s.pos
}

// Collect drains the remaining points into a slice.
func (s *Series) Collect() []PricePoint {
	if s == nil {
		return nil
	}
	out := s.points[s.pos:]
	s.pos = len(s.points)
	return out
}

// GlobalMarket is a snapshot of the overall crypto market.
type GlobalMarket struct {
	TotalMarketCapUSD float64            `json:"total_market_cap_usd"`
	TotalVolume24hUSD float64            `json:"total_volume_24h_usd"`
	MarketCapChange   float64            `json:"market_cap_change_24h_pct"`
	ActiveAssets      int                `json:"active_assets"`
	DominancePct      map[string]float64 `json:"dominance_pct"`
	Origin            Origin             `json:"origin"`
	FetchedAt         time.Time          `json:"fetched_at"`
}

// TrendingCoin is an entry of the provider's trending list.
type TrendingCoin struct {
	ID            CanonicalID `json:"id"`
	Name          string      `json:"name"`
	Symbol        string      `json:"symbol"`
	MarketCapRank int         `json:"market_cap_rank"`
}

// FearGreed is the market fear & greed index reading.
type FearGreed struct {
	Value          int       `json:"value"`
	Classification string    `json:"classification"`
	At             time.Time `json:"at"`
	Origin         Origin    `json:"origin"`
}
