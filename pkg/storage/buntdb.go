// Package storage persists user subscriptions. Two backends are
// provided: BuntDB (memory or single file) and SQL via GORM.
package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/raykavin/coinwatch/pkg/core"
	"github.com/tidwall/buntdb"
)

// BuntStorage implements core.SubscriptionStorage using BuntDB.
type BuntStorage struct {
	lastID int64
	db     *buntdb.DB
}

// FromMemory creates an in-memory storage.
func FromMemory() (core.SubscriptionStorage, error) {
	return NewBuntStorage(":memory:")
}

// FromFile creates a file-based storage.
func FromFile(file string) (core.SubscriptionStorage, error) {
	return NewBuntStorage(file)
}

// NewBuntStorage creates a new BuntDB storage instance.
func NewBuntStorage(sourceFile string) (core.SubscriptionStorage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	err = db.CreateIndex("updated_index", "*", buntdb.IndexJSON("updated_at"))
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &BuntStorage{db: db}, nil
}

func (b *BuntStorage) getID() int64 {
	return atomic.AddInt64(&b.lastID, 1)
}

// Set stores or replaces a user's subscription.
func (b *BuntStorage) Set(userID int64, ticker string) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		key := strconv.FormatInt(userID, 10)
		now := time.Now()

		sub := core.Subscription{
			ID:        b.getID(),
			UserID:    userID,
			Ticker:    ticker,
			CreatedAt: now,
			UpdatedAt: now,
		}

		// Preserve the original creation time on replace
		if value, err := tx.Get(key); err == nil {
			var existing core.Subscription
			if err := json.Unmarshal([]byte(value), &existing); err == nil {
				sub.ID = existing.ID
				sub.CreatedAt = existing.CreatedAt
			}
		}

		content, err := json.Marshal(sub)
		if err != nil {
			return fmt.Errorf("failed to marshal subscription: %w", err)
		}

		_, _, err = tx.Set(key, string(content), nil)
		if err != nil {
			return fmt.Errorf("failed to store subscription: %w", err)
		}

		return nil
	})
}

// Get retrieves a user's subscription.
func (b *BuntStorage) Get(userID int64) (*core.Subscription, bool, error) {
	var sub core.Subscription
	err := b.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(strconv.FormatInt(userID, 10))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(value), &sub)
	})
	if err == buntdb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load subscription: %w", err)
	}
	return &sub, true, nil
}

// Delete removes a user's subscription. Deleting a missing
// subscription is not an error.
func (b *BuntStorage) Delete(userID int64) error {
	err := b.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(strconv.FormatInt(userID, 10))
		return err
	})
	if err == buntdb.ErrNotFound {
		return nil
	}
	return err
}

// All retrieves every subscription ordered by update time.
func (b *BuntStorage) All() ([]*core.Subscription, error) {
	subs := make([]*core.Subscription, 0)

	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("updated_index", func(_, value string) bool {
			var sub core.Subscription
			if err := json.Unmarshal([]byte(value), &sub); err != nil {
				return true // skip unreadable rows, continue iteration
			}
			subs = append(subs, &sub)
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return subs, nil
}

// Close releases the underlying database.
func (b *BuntStorage) Close() error {
	return b.db.Close()
}
