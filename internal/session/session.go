// Package session provides the single in-process expiring store backing both
// task-creation drafts and list pager sessions. Entries expire a fixed TTL
// after they are written (wall clock, not sliding); a sweep loop reclaims
// what lazy eviction misses.
package session

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value   V
	expires time.Time
}

// Store is a mutex-guarded key→value table with per-store TTL.
type Store[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry[V]
	now     func() time.Time
}

// New creates a store whose entries live for ttl after each Put.
func New[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

// SetClock replaces the store's clock. Test hook.
func (s *Store[V]) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Put writes value under key, resetting its expiry to now+TTL.
func (s *Store[V]) Put(key string, value V) {
	s.mu.Lock()
	s.entries[key] = entry[V]{value: value, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
}

// Get returns the live value for key. An expired entry is deleted and
// reported as absent, so callers answer with their restart/expiry notice.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if s.now().After(e.expires) {
		delete(s.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Delete removes key.
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Len returns the number of entries, expired ones included.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes every expired entry and returns how many were reclaimed.
func (s *Store[V]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Run sweeps at the given interval until ctx is cancelled.
func (s *Store[V]) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
