package domain

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const sessionTokenBytes = 32

// Session is the server-side record behind the opaque cookie identifier.
// UserID zero means the session is anonymous. A session is an explicit value
// threaded through handlers; the store owns the persisted record and the
// client holds only the token.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"-"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	modified  bool
	destroyed bool
}

// NewSession creates a fresh anonymous session with a 256-bit random token.
// It is not persisted until something binds state to it.
func NewSession() (*Session, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("session token: %w", err)
	}
	return &Session{
		ID:        uuid.NewString(),
		Token:     base64.RawURLEncoding.EncodeToString(buf),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// RestoreSession rebuilds a session value loaded from the store.
func RestoreSession(token, id string, userID int64, createdAt time.Time) *Session {
	return &Session{ID: id, Token: token, UserID: userID, CreatedAt: createdAt}
}

// Bind transitions the session to authenticated, overwriting any prior user.
// Existence of the user id is the caller's responsibility.
func (s *Session) Bind(userID int64) {
	s.UserID = userID
	s.modified = true
}

// CurrentUserID returns the bound user id, or false when anonymous.
func (s *Session) CurrentUserID() (int64, bool) {
	if s.UserID == 0 {
		return 0, false
	}
	return s.UserID, true
}

// Authenticated reports whether a user is bound to this session.
func (s *Session) Authenticated() bool {
	return s.UserID != 0
}

// MarkDestroyed flags the session as terminal so the transport layer clears
// the client-held identifier. The store-side delete happens separately.
func (s *Session) MarkDestroyed() {
	s.destroyed = true
	s.modified = false
}

// Modified reports whether the session has unsaved state.
func (s *Session) Modified() bool { return s.modified }

// Destroyed reports whether the session has been invalidated.
func (s *Session) Destroyed() bool { return s.destroyed }
