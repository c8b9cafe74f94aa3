// Package cache stores ticker-to-canonical-id resolutions with a TTL.
//
// The store is backed by BuntDB so entries expire inside the database
// itself: an expired entry is simply not found, which gives the
// "expired means absent" contract without a background sweep, and the
// read-then-write sequences of concurrent resolvers stay atomic inside
// BuntDB transactions.
package cache

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/raykavin/coinwatch/pkg/core"
	"github.com/tidwall/buntdb"
)

// DefaultTTL is the reference lifetime of a resolution entry.
const DefaultTTL = 24 * time.Hour

// Entry is the stored resolution record.
type Entry struct {
	Ticker     string           `json:"ticker"`
	ID         core.CanonicalID `json:"id"`
	ResolvedAt time.Time        `json:"resolved_at"`
}

// Store is an injectable resolution cache. Construct one per process
// and hand it to the resolver; tests get isolation from fresh
// in-memory instances.
type Store struct {
	db  *buntdb.DB
	ttl time.Duration
}

// FromMemory creates an in-memory store, matching the reference
// behavior of no durability guarantees.
func FromMemory(ttl time.Duration) (*Store, error) {
	return New(":memory:", ttl)
}

// FromFile creates a file-backed store.
func FromFile(file string, ttl time.Duration) (*Store, error) {
	return New(file, ttl)
}

// New opens the underlying BuntDB at source. A non-positive ttl falls
// back to DefaultTTL.
func New(source string, ttl time.Duration) (*Store, error) {
	db, err := buntdb.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Store{db: db, ttl: ttl}, nil
}

// Get looks up the canonical id for a ticker. Expired entries are
// absent by construction.
func (s *Store) Get(ticker string) (core.CanonicalID, bool) {
	var entry Entry
	err := s.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(key(ticker))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(value), &entry)
	})
	if err != nil {
		return "", false
	}
	return entry.ID, true
}

// Put records a resolution keyed by the original (lowercased) ticker,
// so repeated lookups of the same alias stay cheap even when the
// canonical id differs from the ticker text.
func (s *Store) Put(ticker string, id core.CanonicalID) error {
	entry := Entry{
		Ticker:     strings.ToLower(ticker),
		ID:         id,
		ResolvedAt: time.Now(),
	}

	content, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key(ticker), string(content), &buntdb.SetOptions{
			Expires: true,
			TTL:     s.ttl,
		})
		return err
	})
}

// Len reports the number of live entries.
func (s *Store) Len() (int, error) {
	var n int
	err := s.db.View(func(tx *buntdb.Tx) error {
		var err error
		n, err = tx.Len()
		return err
	})
	return n, err
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func key(ticker string) string {
	return "resolution:" + strings.ToLower(ticker)
}
