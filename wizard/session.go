package wizard

import (
	"context"
	"errors"
	"sync"
)

// ErrSessionNotFound is returned when a session has no stored state.
var ErrSessionNotFound = errors.New("wizard session not found")

// SessionStore persists wizard state per session id.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*State, error)
	Put(ctx context.Context, sessionID string, state *State) error
	Delete(ctx context.Context, sessionID string) error
}

// MemorySessionStore is an in-process SessionStore.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

// NewMemorySessionStore creates an empty session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*State)}
}

// Get returns the state for a session.
func (s *MemorySessionStore) Get(_ context.Context, sessionID string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *state
	return &copied, nil
}

// Put stores the state for a session.
func (s *MemorySessionStore) Put(_ context.Context, sessionID string, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *state
	s.sessions[sessionID] = &copied
	return nil
}

// Delete removes a session's state.
func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}
