package utils

import (
	"sync"
	"time"
)

// ConsumedSet remembers identifiers that have already been used, for a
// bounded time window. Pairing tokens are one-shot: the set tracks consumed
// token ids for the token validity window instead of giving tokens a full
// database row lifecycle.
type ConsumedSet struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]time.Time
}

// NewConsumedSet creates a set whose entries expire after ttl
func NewConsumedSet(ttl time.Duration) *ConsumedSet {
	return &ConsumedSet{
		ttl:     ttl,
		entries: make(map[string]time.Time),
	}
}

// Consume marks id as used. Returns false if the id was already consumed
// within the TTL window.
func (s *ConsumedSet) Consume(id string) bool {
	if id == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if at, exists := s.entries[id]; exists && time.Since(at) < s.ttl {
		return false
	}
	s.entries[id] = time.Now()

	// Opportunistic cleanup if the map grows large
	if len(s.entries) > 10000 {
		for k, v := range s.entries {
			if time.Since(v) > s.ttl {
				delete(s.entries, k)
			}
		}
	}

	return true
}

// Contains reports whether id has been consumed within the TTL window
func (s *ConsumedSet) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	at, exists := s.entries[id]
	return exists && time.Since(at) < s.ttl
}
