package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *BuntStorage {
	t.Helper()

	store, err := FromMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store.(*BuntStorage)
}

func TestSetGet(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Set(1001, "btc"))

	sub, found, err := store.Get(1001)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(1001), sub.UserID)
	require.Equal(t, "btc", sub.Ticker)
	require.False(t, sub.CreatedAt.IsZero())
}

func TestGet_Missing(t *testing.T) {
	store := newStore(t)

	sub, found, err := store.Get(42)
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, sub)
}

func TestSet_ReplacePreservesIdentity(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Set(1001, "btc"))
	first, _, err := store.Get(1001)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.Set(1001, "eth"))

	second, found, err := store.Get(1001)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "eth", second.Ticker)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.CreatedAt.Unix(), second.CreatedAt.Unix())
	require.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestDelete(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Set(1001, "btc"))
	require.NoError(t, store.Delete(1001))

	_, found, err := store.Get(1001)
	require.NoError(t, err)
	require.False(t, found)

	// Deleting a missing subscription is not an error.
	require.NoError(t, store.Delete(9999))
}

func TestAll_OrderedByUpdateTime(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Set(1, "btc"))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.Set(2, "eth"))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.Set(1, "sol")) // bumps user 1 to the back

	subs, err := store.All()
	require.NoError(t, err)
	require.Len(t, subs, 2)
	require.Equal(t, int64(2), subs[0].UserID)
	require.Equal(t, int64(1), subs[1].UserID)
	require.Equal(t, "sol", subs[1].Ticker)
}
