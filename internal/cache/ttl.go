package cache

import (
	"sync"
	"time"
)

// TTLStore implements Store with time-based expiration
type TTLStore struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	maxEntries int
	ttl        time.Duration

	now func() time.Time
}

type entry struct {
	value   any
	expires time.Time
}

// NewTTLStore creates an in-memory store with a fixed TTL and a hard cap on
// entry count. When full, the entry closest to expiring is dropped first.
func NewTTLStore(maxEntries int, ttl time.Duration) *TTLStore {
	return &TTLStore{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get retrieves a value if present and not expired.
func (s *TTLStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || s.now().After(e.expires) {
		return nil, false
	}
	return e.value, true
}

// Set stores a value under key for the store's TTL.
func (s *TTLStore) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxEntries {
		s.evictLocked()
	}
	s.entries[key] = &entry{value: value, expires: s.now().Add(s.ttl)}
}

// Clear removes all entries.
func (s *TTLStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
}

// Len reports the number of live (non-expired) entries.
func (s *TTLStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	now := s.now()
	for _, e := range s.entries {
		if !now.After(e.expires) {
			n++
		}
	}
	return n
}

// pruneLocked removes expired entries. Caller must hold the write lock.
func (s *TTLStore) pruneLocked() {
	now := s.now()
	for key, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, key)
		}
	}
}

// evictLocked drops the entry nearest to expiry to make room. Caller must
// hold the write lock.
func (s *TTLStore) evictLocked() {
	var victim string
	var soonest time.Time
	for key, e := range s.entries {
		if victim == "" || e.expires.Before(soonest) {
			victim = key
			soonest = e.expires
		}
	}
	if victim != "" {
		delete(s.entries, victim)
	}
}
