// Package statestore persists in-flight authorization sessions keyed by
// their state nonce. Sessions are single-use: Consume removes the entry
// as it reads it.
package statestore

import (
	"context"
	"sync"
	"time"
)

// AuthorizationSession binds one redirect to its callback.
type AuthorizationSession struct {
	State     string    `json:"state"`
	Provider  string    `json:"provider"`
	ReturnTo  string    `json:"return_to,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	Save(ctx context.Context, session AuthorizationSession, ttl time.Duration) error
	// Consume returns and deletes the session for the state. A missing
	// or already-consumed state returns (nil, nil).
	Consume(ctx context.Context, state string) (*AuthorizationSession, error)
}

type memoryEntry struct {
	session   AuthorizationSession
	expiresAt time.Time
}

// MemoryStore is the single-instance default.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Save(_ context.Context, session AuthorizationSession, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpired()
	s.entries[session.State] = memoryEntry{
		session:   session,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, state string) (*AuthorizationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[state]
	if !ok {
		return nil, nil
	}
	delete(s.entries, state)
	if time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	session := entry.session
	return &session, nil
}

func (s *MemoryStore) evictExpired() {
	now := time.Now()
	for state, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, state)
		}
	}
}
