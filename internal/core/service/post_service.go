package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/updoot/discussion-backend/internal/core/domain"
	"github.com/updoot/discussion-backend/internal/core/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

type postService struct {
	posts   ports.PostRepository
	updoots ports.UpdootRepository
	log     zerolog.Logger
}

// NewPostService returns a PostService implementation.
func NewPostService(posts ports.PostRepository, updoots ports.UpdootRepository, log zerolog.Logger) ports.PostService {
	return &postService{posts: posts, updoots: updoots, log: log}
}

func (s *postService) Create(ctx context.Context, authorID int64, title, text string) (*domain.Post, []domain.FieldError, error) {
	if title == "" {
		return nil, domain.FieldErrors("title", "title is required"), nil
	}

	now := time.Now().UTC()
	post := &domain.Post{
		Title:     title,
		Text:      text,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.posts.Create(ctx, post)
	if err != nil {
		return nil, nil, fmt.Errorf("create post: %w", err)
	}
	return created, nil, nil
}

func (s *postService) Get(ctx context.Context, id int64) (*domain.Post, error) {
	return s.posts.FindByID(ctx, id)
}

func (s *postService) List(ctx context.Context, limit int, cursor time.Time) ([]domain.Post, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return s.posts.List(ctx, limit, cursor)
}

// Vote upserts the (user, post) vote and adjusts the post's points by the
// delta: ±1 for a new vote, ±2 when flipping an existing one, zero when the
// vote is unchanged.
func (s *postService) Vote(ctx context.Context, userID, postID int64, value int) error {
	if value != 1 && value != -1 {
		return domain.ErrInvalidVote
	}
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		return err
	}

	key := domain.UpdootKey{UserID: userID, PostID: postID}
	prior, err := s.updoots.Find(ctx, key)
	switch {
	case errors.Is(err, domain.ErrUpdootNotFound):
		prior = 0
	case err != nil:
		return fmt.Errorf("vote lookup: %w", err)
	case prior == value:
		return nil
	}

	if err := s.updoots.Upsert(ctx, key, value); err != nil {
		return fmt.Errorf("vote upsert: %w", err)
	}

	delta := value
	if prior != 0 {
		delta = 2 * value
	}
	if err := s.posts.IncrementPoints(ctx, postID, delta); err != nil {
		return fmt.Errorf("vote points: %w", err)
	}
	return nil
}
