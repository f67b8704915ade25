package auth

import (
	"context"
	"sync"
)

// InMemorySessionStore keeps refresh sessions in process memory, indexed by
// token and by account. It backs the "memory" session backend and tests.
type InMemorySessionStore struct {
	mu     sync.Mutex
	byTok  map[string]Session
	byUser map[string]map[string]struct{}
}

var _ SessionStore = (*InMemorySessionStore)(nil)

// NewInMemorySessionStore returns an empty store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		byTok:  make(map[string]Session),
		byUser: make(map[string]map[string]struct{}),
	}
}

func (s *InMemorySessionStore) Save(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.byTok[session.RefreshToken]; ok {
		s.unindexLocked(prev)
	}
	s.byTok[session.RefreshToken] = session
	tokens, ok := s.byUser[session.UserID]
	if !ok {
		tokens = make(map[string]struct{})
		s.byUser[session.UserID] = tokens
	}
	tokens[session.RefreshToken] = struct{}{}
	return nil
}

func (s *InMemorySessionStore) Find(_ context.Context, refreshToken string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.byTok[refreshToken]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *InMemorySessionStore) Delete(_ context.Context, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.byTok[refreshToken]
	if !ok {
		return ErrSessionNotFound
	}
	s.unindexLocked(session)
	delete(s.byTok, refreshToken)
	return nil
}

func (s *InMemorySessionStore) DeleteByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token := range s.byUser[userID] {
		delete(s.byTok, token)
	}
	delete(s.byUser, userID)
	return nil
}

// Has reports whether refreshToken is stored.
func (s *InMemorySessionStore) Has(refreshToken string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byTok[refreshToken]
	return ok
}

// Count returns how many sessions userID holds.
func (s *InMemorySessionStore) Count(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byUser[userID])
}

func (s *InMemorySessionStore) unindexLocked(session Session) {
	tokens := s.byUser[session.UserID]
	delete(tokens, session.RefreshToken)
	if len(tokens) == 0 {
		delete(s.byUser, session.UserID)
	}
}
