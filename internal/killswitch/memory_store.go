package killswitch

import (
	"context"
	"sync"
)

// MemoryStore holds kill switch state in-process, for paper/dev mode
// when no database is configured.
type MemoryStore struct {
	mu      sync.Mutex
	enabled bool
	reason  string
	actor   string
}

// NewMemoryStore constructs a store with the switch initially released.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (bool, string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled, s.reason, s.actor, nil
}

func (s *MemoryStore) Save(_ context.Context, enabled bool, reason, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
	s.reason = reason
	s.actor = actor
	return nil
}
