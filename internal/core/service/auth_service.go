package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/updoot/discussion-backend/internal/core/domain"
	"github.com/updoot/discussion-backend/internal/core/ports"
)

// AuthService implements registration, login, logout, and the
// password-reset flow on top of injected stores.
type AuthService struct {
	users       ports.UserRepository
	sessions    ports.SessionStore
	tokens      ports.ResetTokenStore
	hasher      PasswordHasher
	mail        ports.MailDispatcher
	frontendURL string
	log         zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	sessions ports.SessionStore,
	tokens ports.ResetTokenStore,
	hasher PasswordHasher,
	mail ports.MailDispatcher,
	frontendURL string,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		sessions:    sessions,
		tokens:      tokens,
		hasher:      hasher,
		mail:        mail,
		frontendURL: strings.TrimSuffix(frontendURL, "/"),
		log:         log,
	}
}

// validateRegister checks rules in order username → email → password and
// stops at the first violation so error reporting is deterministic.
func validateRegister(in ports.RegisterInput) []domain.FieldError {
	if len(in.Username) < 3 {
		return domain.FieldErrors("username", "length must be greater than 2")
	}
	if !strings.Contains(in.Email, "@") {
		return domain.FieldErrors("email", "invalid email")
	}
	if len(in.Password) < 3 {
		return domain.FieldErrors("password", "length must be greater than 2")
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, sess *domain.Session, in ports.RegisterInput) (*domain.User, []domain.FieldError, error) {
	if errs := validateRegister(in); errs != nil {
		return nil, errs, nil
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Create(ctx, user)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrDuplicateUsername):
		return nil, domain.FieldErrors("username", "username already taken"), nil
	case errors.Is(err, domain.ErrDuplicateEmail):
		return nil, domain.FieldErrors("email", "email already taken"), nil
	default:
		// Insert failures other than uniqueness conflicts surface as a
		// generic field error; the cause stays in the logs.
		s.log.Error().Err(err).Str("username", in.Username).Msg("user insert failed")
		return nil, domain.FieldErrors("username", "could not create user"), nil
	}

	sess.Bind(created.ID)
	return created, nil, nil
}

func (s *AuthService) Login(ctx context.Context, sess *domain.Session, email, password string) (*domain.User, []domain.FieldError, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.FieldErrors("email", "that email doesn't exist"), nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("login lookup: %w", err)
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, domain.FieldErrors("password", "incorrect password"), nil
	}

	sess.Bind(user.ID)
	return user, nil, nil
}

// Logout destroys the server-side session. A store failure yields false and
// leaves the session untouched; it is never raised to the caller as an error.
func (s *AuthService) Logout(ctx context.Context, sess *domain.Session) bool {
	if err := s.sessions.Destroy(ctx, sess.Token); err != nil {
		s.log.Error().Err(err).Str("session_id", sess.ID).Msg("session destroy failed")
		return false
	}
	sess.MarkDestroyed()
	return true
}

// ForgotPassword issues a reset token and queues the reset mail. When the
// email is unknown it still succeeds, so the endpoint does not reveal
// whether an account exists. Delivery is fire-and-forget.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("forgot password lookup: %w", err)
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	link := fmt.Sprintf("%s/change-password/%s", s.frontendURL, token)
	s.mail.Enqueue(ports.Mail{
		To:      user.Email,
		Subject: "Reset your password",
		HTML:    fmt.Sprintf(`<a href="%s">reset password</a>`, link),
	})
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, sess *domain.Session, token, newPassword string) (*domain.User, []domain.FieldError, error) {
	if len(newPassword) < 3 {
		return nil, domain.FieldErrors("newPassword", "length must be greater than 2"), nil
	}

	userID, err := s.tokens.Redeem(ctx, token)
	if errors.Is(err, domain.ErrTokenNotFound) {
		return nil, domain.FieldErrors("newPassword", "token expired"), nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("redeem reset token: %w", err)
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.FieldErrors("newPassword", "user no longer exists"), nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("change password lookup: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, nil, fmt.Errorf("update password: %w", err)
	}
	user.PasswordHash = hash

	// The token was already consumed atomically by Redeem, so a second
	// attempt with the same token fails even if we crash past this point.
	sess.Bind(user.ID)
	return user, nil, nil
}

// Me resolves the session's bound user, or nil for anonymous sessions.
func (s *AuthService) Me(ctx context.Context, sess *domain.Session) (*domain.User, error) {
	userID, ok := sess.CurrentUserID()
	if !ok {
		return nil, nil
	}
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		// Session outlived the account; treat as anonymous.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("me lookup: %w", err)
	}
	return user, nil
}
