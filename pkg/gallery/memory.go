package gallery

import (
	"context"
	"sync"
)

// MemoryStore is a Store that keeps users in memory. Used when no
// database is configured, and as a test double. Contents do not survive a
// process restart.
type MemoryStore struct {
	mu    sync.Mutex
	users []User
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveUser appends the user.
func (s *MemoryStore) SaveUser(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
	return nil
}

// LoadUsers returns a copy of the saved users.
func (s *MemoryStore) LoadUsers(_ context.Context) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]User, len(s.users))
	copy(out, s.users)
	return out, nil
}
