package ports

import (
	"context"

	"github.com/updoot/discussion-backend/internal/core/domain"
)

// RegisterInput carries the raw credentials for account creation.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AuthService orchestrates the credential and session flows. Validation
// outcomes come back as field errors; the error return is reserved for
// infrastructure failures.
type AuthService interface {
	Register(ctx context.Context, sess *domain.Session, in RegisterInput) (*domain.User, []domain.FieldError, error)
	Login(ctx context.Context, sess *domain.Session, email, password string) (*domain.User, []domain.FieldError, error)
	Logout(ctx context.Context, sess *domain.Session) bool
	ForgotPassword(ctx context.Context, email string) error
	ChangePassword(ctx context.Context, sess *domain.Session, token, newPassword string) (*domain.User, []domain.FieldError, error)
	Me(ctx context.Context, sess *domain.Session) (*domain.User, error)
}
