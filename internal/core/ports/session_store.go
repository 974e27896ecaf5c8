package ports

import (
	"context"

	"github.com/updoot/discussion-backend/internal/core/domain"
)

// SessionStore persists session records keyed by their opaque token.
// Get returns domain.ErrSessionNotFound for unknown or expired tokens.
// Destroy reports store errors to the caller; it never swallows them.
type SessionStore interface {
	Get(ctx context.Context, token string) (*domain.Session, error)
	Save(ctx context.Context, sess *domain.Session) error
	Destroy(ctx context.Context, token string) error
}
