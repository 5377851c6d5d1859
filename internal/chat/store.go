package chat

import (
	"sync"

	"github.com/google/uuid"
)

// Store holds all live sessions, keyed by session id. Sessions exist for
// the process lifetime; Reset clears a session's contents but keeps its
// identity.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

func (s *Store) Create() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := newSession(uuid.NewString())
	s.sessions[sess.ID] = sess
	return sess
}

func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
