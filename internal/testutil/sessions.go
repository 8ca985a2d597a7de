package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"online_judge/internal/domain/model"
)

// SessionStore is an in-memory session.Store. Set Broken to make every call fail.
type SessionStore struct {
	mu       sync.Mutex
	seq      int
	sessions map[string]model.Principal
	Broken   bool
}

var errStoreDown = errors.New("session store unavailable")

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[string]model.Principal{}}
}

func (s *SessionStore) Create(_ context.Context, p model.Principal) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Broken {
		return "", errStoreDown
	}
	s.seq++
	id := fmt.Sprintf("sid-%d", s.seq)
	s.sessions[id] = p
	return id, nil
}

func (s *SessionStore) Get(_ context.Context, sessionID string) (*model.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Broken {
		return nil, errStoreDown
	}
	p, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *SessionStore) Put(_ context.Context, sessionID string, p model.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Broken {
		return errStoreDown
	}
	s.sessions[sessionID] = p
	return nil
}

func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Broken {
		return errStoreDown
	}
	delete(s.sessions, sessionID)
	return nil
}

// Len counts live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
