package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(maxEntries int, ttl time.Duration) (*TTLStore, *time.Time) {
	s := NewTTLStore(maxEntries, ttl)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func TestTTLStoreRoundTrip(t *testing.T) {
	s, _ := newTestStore(10, time.Minute)

	_, ok := s.Get("missing")
	assert.False(t, ok)

	s.Set("k", "v")
	got, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestTTLStoreExpiry(t *testing.T) {
	s, now := newTestStore(10, time.Minute)

	s.Set("k", 42)
	*now = now.Add(59 * time.Second)
	_, ok := s.Get("k")
	assert.True(t, ok)

	*now = now.Add(2 * time.Second)
	_, ok = s.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestTTLStoreOverwrite(t *testing.T) {
	s, _ := newTestStore(10, time.Minute)
	s.Set("k", 1)
	s.Set("k", 2)

	got, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, got)
	assert.Equal(t, 1, s.Len())
}

func TestTTLStoreCapacityEviction(t *testing.T) {
	s, now := newTestStore(3, time.Minute)

	// Stagger expirations so the eviction order is deterministic.
	s.Set("oldest", 1)
	*now = now.Add(time.Second)
	s.Set("mid", 2)
	*now = now.Add(time.Second)
	s.Set("newest", 3)

	s.Set("extra", 4)
	assert.Equal(t, 3, s.Len())

	_, ok := s.Get("oldest")
	assert.False(t, ok, "entry nearest expiry should be evicted first")
	_, ok = s.Get("extra")
	assert.True(t, ok)
}

func TestTTLStorePrunesExpiredBeforeEvicting(t *testing.T) {
	s, now := newTestStore(2, time.Minute)

	s.Set("stale", 1)
	*now = now.Add(2 * time.Minute)
	s.Set("a", 2)
	s.Set("b", 3)

	// "stale" was pruned, so both live entries fit without eviction.
	_, ok := s.Get("a")
	assert.True(t, ok)
	_, ok = s.Get("b")
	assert.True(t, ok)
}

func TestTTLStoreClear(t *testing.T) {
	s, _ := newTestStore(10, time.Minute)
	for i := 0; i < 5; i++ {
		s.Set(fmt.Sprintf("k%d", i), i)
	}
	require.Equal(t, 5, s.Len())

	s.Clear()
	assert.Equal(t, 0, s.Len())
}
