package usage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWindowStoreUnseenKey(t *testing.T) {
	store := NewMemoryWindowStore()
	key := TrackingKey{Identity: "nobody", Tier: "Free"}

	require.NoError(t, store.Prune(context.Background(), key, time.Now()))

	snap, err := store.Snapshot(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, Snapshot{}, snap)
}

func TestMemoryWindowStoreRecordAndCount(t *testing.T) {
	store := NewMemoryWindowStore()
	key := TrackingKey{Identity: "s1", Tier: "Free"}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(context.Background(), key, now, 10))
	require.NoError(t, store.Record(context.Background(), key, now.Add(time.Second), 5))

	snap, err := store.Snapshot(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.RequestsMinute)
	assert.Equal(t, 2, snap.RequestsDay)
	assert.Equal(t, int64(15), snap.TokensMinute)
	assert.Equal(t, int64(15), snap.TokensDay)
}

func TestMemoryWindowStorePruneAgesOutMinute(t *testing.T) {
	store := NewMemoryWindowStore()
	key := TrackingKey{Identity: "s1", Tier: "Free"}
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(context.Background(), key, base, 7))
	require.NoError(t, store.Record(context.Background(), key, base.Add(30*time.Second), 3))

	// 61s after the first event: only the second remains in the minute
	// window, both remain in the day window.
	require.NoError(t, store.Prune(context.Background(), key, base.Add(61*time.Second)))

	snap, err := store.Snapshot(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.RequestsMinute)
	assert.Equal(t, 2, snap.RequestsDay)
	assert.Equal(t, int64(3), snap.TokensMinute)
	assert.Equal(t, int64(10), snap.TokensDay)
}

func TestMemoryWindowStorePruneAgesOutDay(t *testing.T) {
	store := NewMemoryWindowStore()
	key := TrackingKey{Identity: "s1", Tier: "Free"}
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(context.Background(), key, base, 7))
	require.NoError(t, store.Prune(context.Background(), key, base.Add(24*time.Hour+time.Second)))

	snap, err := store.Snapshot(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, Snapshot{}, snap)
}

func TestMemoryWindowStorePruneIdempotent(t *testing.T) {
	store := NewMemoryWindowStore()
	key := TrackingKey{Identity: "s1", Tier: "Free"}
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(context.Background(), key, base, 1))
	at := base.Add(30 * time.Second)
	require.NoError(t, store.Prune(context.Background(), key, at))
	require.NoError(t, store.Prune(context.Background(), key, at))
	// Prune with an earlier now must not resurrect or corrupt anything.
	require.NoError(t, store.Prune(context.Background(), key, base.Add(10*time.Second)))

	snap, err := store.Snapshot(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.RequestsMinute)
	assert.Equal(t, 1, snap.RequestsDay)
}

func TestLegacyWindowStoreTokensNeverDecay(t *testing.T) {
	store := NewLegacyWindowStore()
	key := TrackingKey{Identity: "s1", Tier: "Free"}
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(context.Background(), key, base, 100))
	require.NoError(t, store.Prune(context.Background(), key, base.Add(2*time.Hour)))

	snap, err := store.Snapshot(context.Background(), key)
	require.NoError(t, err)
	// Requests aged out, token sums did not: the documented legacy leak.
	assert.Equal(t, 0, snap.RequestsMinute)
	assert.Equal(t, int64(100), snap.TokensMinute)
	assert.Equal(t, int64(100), snap.TokensDay)
}

func TestMemoryWindowStoreKeysAreIndependent(t *testing.T) {
	store := NewMemoryWindowStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a := TrackingKey{Identity: "a", Tier: "Free"}
	b := TrackingKey{Identity: "b", Tier: "Free"}

	require.NoError(t, store.Record(context.Background(), a, now, 5))

	snap, err := store.Snapshot(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, Snapshot{}, snap)
	assert.Equal(t, 1, store.KeyCount())
}
