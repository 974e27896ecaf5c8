package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/updoot/discussion-backend/internal/core/domain"
)

const sessionPrefix = "session:"

// sessionTTL keeps sessions alive until an explicit logout for all
// practical purposes.
const sessionTTL = 10 * 365 * 24 * time.Hour

// SessionStore persists session records in Redis, keyed by the opaque token
// the client holds in its cookie.
// Key format: session:<token>
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

type sessionRecord struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *SessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, sessionPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("session decode: %w", err)
	}
	return domain.RestoreSession(token, rec.ID, rec.UserID, rec.CreatedAt), nil
}

func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	raw, err := json.Marshal(sessionRecord{
		ID:        sess.ID,
		UserID:    sess.UserID,
		CreatedAt: sess.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := s.client.Set(ctx, sessionPrefix+sess.Token, raw, sessionTTL).Err(); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

// Destroy removes the record. Deleting an already-absent token is not an
// error; only store failures are reported.
func (s *SessionStore) Destroy(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionPrefix+token).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}
	return nil
}
