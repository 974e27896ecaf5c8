package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/updoot/discussion-backend/internal/core/domain"
	"github.com/updoot/discussion-backend/internal/core/ports"
	"github.com/updoot/discussion-backend/pkg/logger"
)

type stubUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[int64]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return nil, domain.ErrDuplicateUsername
		}
		if u.Email == user.Email {
			return nil, domain.ErrDuplicateEmail
		}
	}
	r.nextID++
	created := cloneUser(user)
	created.ID = r.nextID
	r.users[created.ID] = cloneUser(created)
	return created, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindManyByIDs(_ context.Context, ids []int64) (map[int64]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]domain.User, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = *u
		}
	}
	return out, nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	failWith error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]*domain.Session)}
}

func (s *stubSessionStore) Get(_ context.Context, token string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return domain.RestoreSession(token, sess.ID, sess.UserID, sess.CreatedAt), nil
}

func (s *stubSessionStore) Save(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = domain.RestoreSession(sess.Token, sess.ID, sess.UserID, sess.CreatedAt)
	return nil
}

func (s *stubSessionStore) Destroy(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	delete(s.sessions, token)
	return nil
}

// fakeTokenStore keeps reset tokens in memory with an adjustable clock so
// TTL expiry is testable without waiting.
type fakeTokenStore struct {
	mu        sync.Mutex
	seq       int
	tokens    map[string]tokenEntry
	now       func() time.Time
	lastToken string
}

type tokenEntry struct {
	userID    int64
	expiresAt time.Time
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]tokenEntry), now: time.Now}
}

func (s *fakeTokenStore) Issue(_ context.Context, userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	token := fmt.Sprintf("reset-token-%d", s.seq)
	s.tokens[token] = tokenEntry{userID: userID, expiresAt: s.now().Add(3 * 24 * time.Hour)}
	s.lastToken = token
	return token, nil
}

func (s *fakeTokenStore) Redeem(_ context.Context, token string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tokens[token]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.tokens, token)
		return 0, domain.ErrTokenNotFound
	}
	delete(s.tokens, token)
	return entry.userID, nil
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []ports.Mail
}

func (d *recordingDispatcher) Enqueue(mail ports.Mail) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, mail)
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

type authFixture struct {
	svc      *AuthService
	users    *stubUserRepo
	sessions *stubSessionStore
	tokens   *fakeTokenStore
	mail     *recordingDispatcher
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	logger.Reset()
	log := logger.Init(logger.Options{Level: "error"})

	f := &authFixture{
		users:    newStubUserRepo(),
		sessions: newStubSessionStore(),
		tokens:   newFakeTokenStore(),
		mail:     &recordingDispatcher{},
	}
	f.svc = NewAuthService(
		f.users, f.sessions, f.tokens,
		BcryptHasher{Cost: bcrypt.MinCost}, f.mail,
		"http://localhost:3000", log,
	)
	return f
}

func newSession(t *testing.T) *domain.Session {
	t.Helper()
	sess, err := domain.NewSession()
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return sess
}

func register(t *testing.T, f *authFixture, sess *domain.Session, username, email, password string) *domain.User {
	t.Helper()
	user, ferrs, err := f.svc.Register(context.Background(), sess, ports.RegisterInput{
		Username: username, Email: email, Password: password,
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if len(ferrs) > 0 {
		t.Fatalf("register returned field errors: %+v", ferrs)
	}
	return user
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	f := newAuthFixture(t)
	sess := newSession(t)

	user := register(t, f, sess, "alice", "alice@example.com", "pass123")
	if user.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if got, ok := sess.CurrentUserID(); !ok || got != user.ID {
		t.Fatalf("expected session bound to %d, got %d (%v)", user.ID, got, ok)
	}

	loginSess := newSession(t)
	logged, ferrs, err := f.svc.Login(context.Background(), loginSess, "alice@example.com", "pass123")
	if err != nil || len(ferrs) > 0 {
		t.Fatalf("login failed: %v %+v", err, ferrs)
	}
	if logged.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, logged.ID)
	}
	if got, _ := loginSess.CurrentUserID(); got != user.ID {
		t.Fatalf("expected login session bound to %d, got %d", user.ID, got)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	f := newAuthFixture(t)

	tests := []struct {
		name      string
		in        ports.RegisterInput
		wantField string
	}{
		{"short username", ports.RegisterInput{Username: "ab", Email: "a@b.com", Password: "secret"}, "username"},
		{"bad email", ports.RegisterInput{Username: "alice", Email: "nope", Password: "secret"}, "email"},
		{"short password", ports.RegisterInput{Username: "alice", Email: "a@b.com", Password: "ab"}, "password"},
		// Rules run username → email → password and stop at the first hit.
		{"username checked before email", ports.RegisterInput{Username: "ab", Email: "nope", Password: "x"}, "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, ferrs, err := f.svc.Register(context.Background(), newSession(t), tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user != nil {
				t.Fatalf("expected no user, got %+v", user)
			}
			if len(ferrs) != 1 || ferrs[0].Field != tt.wantField {
				t.Fatalf("expected single error on %q, got %+v", tt.wantField, ferrs)
			}
		})
	}
}

func TestAuthService_Register_Duplicates(t *testing.T) {
	f := newAuthFixture(t)
	register(t, f, newSession(t), "bob", "bob@example.com", "secret")

	_, ferrs, err := f.svc.Register(context.Background(), newSession(t), ports.RegisterInput{
		Username: "bob", Email: "other@example.com", Password: "secret",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ferrs) != 1 || ferrs[0].Field != "username" || ferrs[0].Message != "username already taken" {
		t.Fatalf("expected username conflict, got %+v", ferrs)
	}

	_, ferrs, err = f.svc.Register(context.Background(), newSession(t), ports.RegisterInput{
		Username: "bobby", Email: "bob@example.com", Password: "secret",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ferrs) != 1 || ferrs[0].Field != "email" {
		t.Fatalf("expected email conflict, got %+v", ferrs)
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	user, ferrs, err := f.svc.Login(context.Background(), newSession(t), "ghost@example.com", "whatever")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Fatalf("expected no user")
	}
	if len(ferrs) != 1 || ferrs[0].Field != "email" {
		t.Fatalf("expected email field error only, got %+v", ferrs)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	register(t, f, newSession(t), "carol", "carol@example.com", "goodpass")

	_, ferrs, err := f.svc.Login(context.Background(), newSession(t), "carol@example.com", "badpass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ferrs) != 1 || ferrs[0].Field != "password" {
		t.Fatalf("expected password field error, got %+v", ferrs)
	}
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t)
	sess := newSession(t)
	register(t, f, sess, "dave", "dave@example.com", "secret")
	if err := f.sessions.Save(context.Background(), sess); err != nil {
		t.Fatalf("save session: %v", err)
	}

	if ok := f.svc.Logout(context.Background(), sess); !ok {
		t.Fatalf("expected logout to succeed")
	}
	if !sess.Destroyed() {
		t.Fatalf("expected session marked destroyed")
	}
	if _, err := f.sessions.Get(context.Background(), sess.Token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session gone from store, got %v", err)
	}
}

func TestAuthService_Logout_StoreFailure(t *testing.T) {
	f := newAuthFixture(t)
	sess := newSession(t)
	register(t, f, sess, "erin", "erin@example.com", "secret")
	if err := f.sessions.Save(context.Background(), sess); err != nil {
		t.Fatalf("save session: %v", err)
	}
	f.sessions.failWith = errors.New("store unreachable")

	if ok := f.svc.Logout(context.Background(), sess); ok {
		t.Fatalf("expected logout to fail")
	}
	if sess.Destroyed() {
		t.Fatalf("expected session left untouched on store failure")
	}
	f.sessions.failWith = nil
	if _, err := f.sessions.Get(context.Background(), sess.Token); err != nil {
		t.Fatalf("expected session still in store, got %v", err)
	}
}

func TestAuthService_ForgotPassword_UnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	// Must not reveal whether the account exists.
	if err := f.svc.ForgotPassword(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("expected success for unknown email, got %v", err)
	}
	if f.mail.count() != 0 {
		t.Fatalf("expected no mail for unknown email")
	}
	if f.tokens.lastToken != "" {
		t.Fatalf("expected no token issued for unknown email")
	}
}

func TestAuthService_PasswordReset_Flow(t *testing.T) {
	f := newAuthFixture(t)
	user := register(t, f, newSession(t), "frank", "frank@example.com", "oldpass")

	if err := f.svc.ForgotPassword(context.Background(), "frank@example.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	if f.mail.count() != 1 {
		t.Fatalf("expected one reset mail, got %d", f.mail.count())
	}
	token := f.tokens.lastToken
	if !strings.Contains(f.mail.sent[0].HTML, token) {
		t.Fatalf("expected mail body to embed the token")
	}

	sess := newSession(t)
	updated, ferrs, err := f.svc.ChangePassword(context.Background(), sess, token, "newpass")
	if err != nil || len(ferrs) > 0 {
		t.Fatalf("change password failed: %v %+v", err, ferrs)
	}
	if updated.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, updated.ID)
	}
	if got, _ := sess.CurrentUserID(); got != user.ID {
		t.Fatalf("expected session bound after change, got %d", got)
	}

	if _, ferrs, _ := f.svc.Login(context.Background(), newSession(t), "frank@example.com", "oldpass"); len(ferrs) == 0 {
		t.Fatalf("expected old password rejected")
	}
	if _, ferrs, _ := f.svc.Login(context.Background(), newSession(t), "frank@example.com", "newpass"); len(ferrs) != 0 {
		t.Fatalf("expected new password accepted, got %+v", ferrs)
	}

	// Single use: the same token must not redeem twice.
	_, ferrs, err = f.svc.ChangePassword(context.Background(), newSession(t), token, "another")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ferrs) != 1 || ferrs[0].Message != "token expired" {
		t.Fatalf("expected token expired on reuse, got %+v", ferrs)
	}
}

func TestAuthService_PasswordReset_ExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	register(t, f, newSession(t), "grace", "grace@example.com", "secret")

	if err := f.svc.ForgotPassword(context.Background(), "grace@example.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	token := f.tokens.lastToken

	issued := time.Now()
	f.tokens.now = func() time.Time { return issued.Add(3*24*time.Hour + time.Minute) }

	_, ferrs, err := f.svc.ChangePassword(context.Background(), newSession(t), token, "newpass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ferrs) != 1 || ferrs[0].Field != "newPassword" || ferrs[0].Message != "token expired" {
		t.Fatalf("expected token expired, got %+v", ferrs)
	}
}

func TestAuthService_ChangePassword_TooShort(t *testing.T) {
	f := newAuthFixture(t)
	register(t, f, newSession(t), "heidi", "heidi@example.com", "secret")
	if err := f.svc.ForgotPassword(context.Background(), "heidi@example.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	token := f.tokens.lastToken

	_, ferrs, err := f.svc.ChangePassword(context.Background(), newSession(t), token, "ab")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ferrs) != 1 || ferrs[0].Field != "newPassword" {
		t.Fatalf("expected newPassword length error, got %+v", ferrs)
	}

	// Validation failed before redemption, so the token must still work.
	if _, ferrs, _ := f.svc.ChangePassword(context.Background(), newSession(t), token, "longenough"); len(ferrs) != 0 {
		t.Fatalf("expected token still valid, got %+v", ferrs)
	}
}

func TestAuthService_Me(t *testing.T) {
	f := newAuthFixture(t)
	sess := newSession(t)

	user, err := f.svc.Me(context.Background(), sess)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil for anonymous session")
	}

	created := register(t, f, sess, "ivan", "ivan@example.com", "secret")
	user, err = f.svc.Me(context.Background(), sess)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if user == nil || user.ID != created.ID {
		t.Fatalf("expected user %d, got %+v", created.ID, user)
	}
}
