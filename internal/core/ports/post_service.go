package ports

import (
	"context"
	"time"

	"github.com/updoot/discussion-backend/internal/core/domain"
)

// PostService covers post creation, listing, and voting.
type PostService interface {
	Create(ctx context.Context, authorID int64, title, text string) (*domain.Post, []domain.FieldError, error)
	Get(ctx context.Context, id int64) (*domain.Post, error)
	List(ctx context.Context, limit int, cursor time.Time) ([]domain.Post, error)
	// Vote records or changes userID's vote on postID. value must be 1 or -1;
	// repeating an identical vote is a no-op.
	Vote(ctx context.Context, userID, postID int64, value int) error
}
