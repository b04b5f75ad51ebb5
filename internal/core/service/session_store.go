package service

import (
	"sync"

	"github.com/prestalink/lending-bot/internal/core/domain"
)

// SessionStore is the in-memory implementation of ports.SessionStore.
//
// The map itself is guarded by a mutex so lookups from concurrent workers
// are safe, but the Session values are not: the dispatcher guarantees all
// updates for one identity run on the same worker, so at most one task
// mutates any given session at a time.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*domain.Session
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]*domain.Session)}
}

func (s *SessionStore) Get(identity int64) *domain.Session {
	s.mu.RLock()
	sess, ok := s.sessions[identity]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[identity]; ok {
		return sess
	}
	sess = &domain.Session{Identity: identity}
	s.sessions[identity] = sess
	return sess
}

func (s *SessionStore) Put(sess *domain.Session) {
	s.mu.Lock()
	s.sessions[sess.Identity] = sess
	s.mu.Unlock()
}

func (s *SessionStore) Clear(identity int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[identity]; ok {
		sess.Reset()
	}
}
