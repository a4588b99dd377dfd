package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smarvasti/haftify/internal/quiz"
)

// SessionStore is a Redis-aware implementation of quiz.SessionRepository.
// Notes:
//   - It still keeps a local in-memory map of sessions to reuse the existing
//     in-process broadcast logic.
//   - Redis is used to mark session liveness (and could be extended to share
//     snapshots or route cross-instance pub/sub).
//   - For true distribution you'd pair this with a pub/sub projector that fans
//     out view updates.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*quiz.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
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
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(key), "1", s.ttl).Err()
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
		_ = s.client.Del(context.Background(), s.key(key)).Err()
	}
}

func (s *SessionStore) key(sessionKey string) string {
	return "quiz:session:" + sessionKey
}
