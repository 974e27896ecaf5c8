package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/updoot/discussion-backend/internal/core/domain"
)

const resetTokenPrefix = "forgot-password:"
const resetTokenTTL = 3 * 24 * time.Hour

// ResetTokenStore keeps single-use password-reset tokens in Redis.
// Key format: forgot-password:<token>
type ResetTokenStore struct {
	client *redis.Client
}

// NewResetTokenStore creates a ResetTokenStore wrapping the given Redis client.
func NewResetTokenStore(client *redis.Client) *ResetTokenStore {
	return &ResetTokenStore{client: client}
}

// Issue stores a fresh token → userID mapping with the reset TTL. The uuid
// v4 token carries 122 bits of entropy.
func (s *ResetTokenStore) Issue(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()
	err := s.client.Set(ctx, resetTokenPrefix+token, strconv.FormatInt(userID, 10), resetTokenTTL).Err()
	if err != nil {
		return "", fmt.Errorf("reset token issue: %w", err)
	}
	return token, nil
}

// Redeem consumes the token with an atomic GETDEL, so two concurrent
// redemptions can never both observe it as valid.
func (s *ResetTokenStore) Redeem(ctx context.Context, token string) (int64, error) {
	raw, err := s.client.GetDel(ctx, resetTokenPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrTokenNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("reset token redeem: %w", err)
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("reset token decode: %w", err)
	}
	return userID, nil
}
