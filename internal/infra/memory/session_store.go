package memory

import (
	"sync"

	"github.com/smarvasti/haftify/internal/quiz"
)

// SessionStore is an in-memory implementation of quiz.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*quiz.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*quiz.Session),
	}
}

func (s *SessionStore) GetOrCreate(key string, build func() *quiz.Session) *quiz.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[key]; ok {
		return session
	}
	session := build()
	s.sessions[key] = session
	return session
}

func (s *SessionStore) Get(key string) (*quiz.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[key]
	return session, ok
}

func (s *SessionStore) DeleteIfIdle(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[key]
	if !ok {
		return
	}
	if session.IsIdle() {
		delete(s.sessions, key)
	}
}
