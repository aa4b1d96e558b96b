package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session ties a browser cookie to an authenticated user and their
// company. Sessions live in memory; restarting the server logs
// everyone out.
type Session struct {
	ID        string
	UserID    uuid.UUID
	CompanyID uuid.UUID
	IsAdmin   bool
	ExpiresAt time.Time
}

// SessionStore holds active sessions behind a single mutex.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
}

// NewSessionStore builds a store issuing sessions with the given TTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
	}
}

// Create issues a new session for the user.
func (s *SessionStore) Create(userID, companyID uuid.UUID, isAdmin bool) Session {
	session := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CompanyID: companyID,
		IsAdmin:   isAdmin,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return session
}

// Get returns the session for id, dropping it when expired.
func (s *SessionStore) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	if time.Now().After(session.ExpiresAt) {
		delete(s.sessions, id)
		return Session{}, false
	}
	return session, true
}

// Delete removes a session. Unknown ids are ignored.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}
