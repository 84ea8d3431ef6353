package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sessions is an in-memory bearer-token store. Tokens are opaque uuids;
// resolving one yields the verified user identity that gets threaded into
// the trade executor.
type Sessions struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	tokens map[string]session
}

type session struct {
	userId    uuid.UUID
	expiresAt time.Time
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		ttl:    ttl,
		now:    time.Now,
		tokens: make(map[string]session),
	}
}

// Issue creates a new token for userId.
func (s *Sessions) Issue(userId uuid.UUID) string {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = session{userId: userId, expiresAt: s.now().Add(s.ttl)}
	return token
}

// Resolve returns the user id behind token, if the token is valid and
// unexpired.
func (s *Sessions) Resolve(token string) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tokens[token]
	if !ok {
		return uuid.Nil, false
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.tokens, token)
		return uuid.Nil, false
	}
	return entry.userId, true
}

func (s *Sessions) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}
