package ports

import (
	"context"

	"github.com/updoot/discussion-backend/internal/core/domain"
)

// UserRepository defines the persistence contract for accounts.
// Create returns domain.ErrDuplicateUsername or domain.ErrDuplicateEmail on
// uniqueness violations; lookups return domain.ErrUserNotFound when absent.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindManyByIDs is the bulk-fetch backing the per-request user loader.
	// Missing ids are simply absent from the result map.
	FindManyByIDs(ctx context.Context, ids []int64) (map[int64]domain.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}
