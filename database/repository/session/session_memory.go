package sessionRepo

import (
	"context"
	"encoding/json"
	"sync"

	"caregate/apperr"
	"caregate/models"
)

// MemoryStore is the in-memory twin of the redis store. Sessions are
// copied through JSON on the way in and out so callers never share
// internal state.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, session *models.TransactionSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = data
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.TransactionSession, error) {
	s.mu.RLock()
	data, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, &apperr.NotFoundError{Entity: "session", ID: id}
	}
	var session models.TransactionSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
