package memory

import (
	"context"
	"sync"
	"time"

	"erent/internal/domain/auth"
	"erent/internal/domain/user"
)

// SessionStore keeps bearer sessions in memory. It backs the API when no
// Redis address is configured.
type SessionStore struct {
	mu        sync.RWMutex
	sessions  map[auth.SessionID]*auth.Session
	userIndex map[user.ID]map[auth.SessionID]struct{}
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions:  make(map[auth.SessionID]*auth.Session),
		userIndex: make(map[user.ID]map[auth.SessionID]struct{}),
	}
}

func (s *SessionStore) Save(ctx context.Context, session *auth.Session) error {
	if session == nil {
		return auth.ErrTokenRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = cloneSession(session)
	if _, ok := s.userIndex[session.UserID]; !ok {
		s.userIndex[session.UserID] = make(map[auth.SessionID]struct{})
	}
	s.userIndex[session.UserID][session.ID] = struct{}{}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id auth.SessionID) (*auth.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, auth.ErrSessionNotFound
	}
	if session.Expired(time.Now()) {
		_ = s.Delete(ctx, id)
		return nil, auth.ErrSessionExpired
	}
	return cloneSession(session), nil
}

func (s *SessionStore) Delete(ctx context.Context, id auth.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil
	}
	delete(s.sessions, id)
	if index, ok := s.userIndex[session.UserID]; ok {
		delete(index, id)
		if len(index) == 0 {
			delete(s.userIndex, session.UserID)
		}
	}
	return nil
}

func (s *SessionStore) DeleteByUser(ctx context.Context, userID user.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.userIndex[userID] {
		delete(s.sessions, id)
	}
	delete(s.userIndex, userID)
	return nil
}

func cloneSession(s *auth.Session) *auth.Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Roles = append([]user.Role(nil), s.Roles...)
	return &out
}

var _ auth.SessionStore = (*SessionStore)(nil)
