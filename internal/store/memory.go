package store

import (
	"context"
	"sync"
)

// MemoryStore is a process-local store, used by tests and one-shot runs.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

var _ CredentialStore = (*MemoryStore)(nil)

func NewMemoryStore(token string) *MemoryStore { return &MemoryStore{token: token} }

func (s *MemoryStore) Load(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}
