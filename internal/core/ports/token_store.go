package ports

import "context"

// ResetTokenStore issues and redeems single-use password-reset tokens.
//
// Redeem is atomic get-and-delete: the first redemption returns the user id
// and removes the mapping in one store operation, so two concurrent
// redemptions can never both succeed. Absent or expired tokens yield
// domain.ErrTokenNotFound, which is a normal branch for callers, not an
// exceptional condition.
type ResetTokenStore interface {
	Issue(ctx context.Context, userID int64) (string, error)
	Redeem(ctx context.Context, token string) (int64, error)
}
