package server

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/akowalczyk/voxtask/internal/core"
)

type randReader struct{}

func (randReader) Read(p []byte) (int, error) { return rand.Read(p) }

// Session is one authenticated browser or API session.
type Session struct {
	Token    string
	Username string
	Language core.LanguageSelection

	// Transcript is the most recent transcription, kept so the suggestion
	// step can rerun without re-uploading audio.
	Transcript string

	expiresAt time.Time
}

// SessionStore keeps sessions in memory. Sessions do not survive a process
// restart; users simply log in again.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session

	// now is swappable for tests.
	now func() time.Time
}

// NewSessionStore creates a store whose sessions expire after ttl.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// newToken mints a ULID session token. ULIDs sort by creation time, which
// makes the event log easy to correlate with sessions.
func newToken(now time.Time) string {
	id, err := ulid.New(ulid.Timestamp(now), ulid.Monotonic(randReader{}, 0))
	if err != nil {
		return fmt.Sprintf("%d", now.UnixNano())
	}
	return id.String()
}

// Create opens a session for the given user and returns its token.
func (s *SessionStore) Create(username string, language core.LanguageSelection) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	session := &Session{
		Token:     newToken(now),
		Username:  username,
		Language:  language,
		expiresAt: now.Add(s.ttl),
	}
	s.sessions[session.Token] = session
	return session
}

// Get returns the live session for a token. Expired sessions are removed on
// access rather than by a background sweeper.
func (s *SessionStore) Get(token string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	if s.now().After(session.expiresAt) {
		delete(s.sessions, token)
		return nil, false
	}
	return session, true
}

// Update applies fn to the session under the store lock so concurrent
// handlers cannot interleave partial updates.
func (s *SessionStore) Update(token string, fn func(*Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok || s.now().After(session.expiresAt) {
		delete(s.sessions, token)
		return false
	}
	fn(session)
	return true
}

// Delete ends a session. Deleting an unknown token is a no-op.
func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}
