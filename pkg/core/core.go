// Package core holds the domain types and component interfaces shared
// across coinwatch.
package core

import (
	"context"
	"time"
)

// CanonicalID is the market-data provider's stable identifier for an
// asset (e.g. "bitcoin" for the ticker "btc").
type CanonicalID string

// Resolver maps a free-form ticker to a canonical provider id.
// A ticker that cannot be resolved yields ok == false, never an error:
// callers may still try the raw ticker downstream and accept a miss.
type Resolver interface {
	Resolve(ctx context.Context, ticker string) (id CanonicalID, ok bool)
}

// MarketData aggregates price and descriptive data for a resolved id,
// or a raw ticker when resolution failed.
type MarketData interface {
	PriceSnapshot(ctx context.Context, idOrTicker string) (PriceSnapshot, error)
	AssetMetadata(ctx context.Context, idOrTicker string) (AssetMetadata, error)
	HistoricalSeries(ctx context.Context, idOrTicker string, days int) (*Series, error)
}

// NewsFetcher aggregates articles across providers. Under normal
// operation it degrades to tagged placeholder articles instead of
// returning an error.
type NewsFetcher interface {
	Articles(ctx context.Context, query string, limit int) ([]Article, error)
	SearchByKeyword(ctx context.Context, keyword string, limit int) ([]Article, error)
}

// NewsProvider is a single upstream news source, normalized to the
// Article shape.
type NewsProvider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Article, error)
}

// Notifier delivers user-facing messages.
type Notifier interface {
	Notify(text string)
	OnError(err error)
}

// NotifierWithStart is a notifier that runs its own receive loop and
// can push to arbitrary users.
type NotifierWithStart interface {
	Notifier
	Start()
	BroadcastTo(users []int64, text string)
}

// Subscription records a user's subscribed ticker for digest pushes.
type Subscription struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"uniqueIndex"`
	Ticker    string    `json:"ticker"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubscriptionStorage persists subscriptions. Set replaces a user's
// existing subscription if present.
type SubscriptionStorage interface {
	Set(userID int64, ticker string) error
	Get(userID int64) (*Subscription, bool, error)
	Delete(userID int64) error
	All() ([]*Subscription, error)
	Close() error
}
