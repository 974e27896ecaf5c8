package ports

import (
	"context"
	"time"

	"github.com/updoot/discussion-backend/internal/core/domain"
)

// PostRepository defines the persistence contract for posts.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) (*domain.Post, error)
	FindByID(ctx context.Context, id int64) (*domain.Post, error)
	// List returns up to limit posts ordered newest first. A zero cursor
	// starts from the top; otherwise only posts created strictly before the
	// cursor are returned.
	List(ctx context.Context, limit int, cursor time.Time) ([]domain.Post, error)
	IncrementPoints(ctx context.Context, postID int64, delta int) error
}

// UpdootRepository defines the persistence contract for votes.
type UpdootRepository interface {
	Find(ctx context.Context, key domain.UpdootKey) (int, error)
	Upsert(ctx context.Context, key domain.UpdootKey, value int) error
	// FindManyByKeys is the bulk-fetch backing the per-request vote loader.
	FindManyByKeys(ctx context.Context, keys []domain.UpdootKey) (map[domain.UpdootKey]int, error)
}
