package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"rbacblog/internal/domain"
	"rbacblog/internal/repos"
	"rbacblog/internal/validate"
)

type PostStore interface {
	List(ctx context.Context) ([]domain.Post, error)
	Get(ctx context.Context, id string) (domain.Post, error)
	Create(ctx context.Context, p domain.Post) error
	Delete(ctx context.Context, id string) error
}

type CreatePostInput struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
}

// PostService has no ownership rules: route guards decide who may write.
type PostService struct {
	Posts PostStore
	Now   func() time.Time
}

func NewPostService(posts PostStore) *PostService {
	return &PostService{Posts: posts, Now: time.Now}
}

func (s *PostService) List(ctx context.Context) ([]domain.Post, error) {
	posts, err := s.Posts.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, withReason(ErrNotFound, "No posts found")
	}
	return posts, nil
}

func (s *PostService) Create(ctx context.Context, authorID string, in CreatePostInput) (domain.Post, error) {
	if authorID == "" {
		return domain.Post{}, ErrUnauthenticated
	}
	if err := validate.Struct(&in); err != nil {
		if errors.Is(err, validate.ErrMissingFields) {
			return domain.Post{}, withReason(ErrValidation, "Title and content are required")
		}
		return domain.Post{}, withReason(ErrValidation, validate.Message(err))
	}

	p := domain.Post{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Content:   in.Content,
		AuthorID:  authorID,
		CreatedAt: s.Now().UTC(),
	}
	if err := s.Posts.Create(ctx, p); err != nil {
		return domain.Post{}, err
	}
	created, err := s.Posts.Get(ctx, p.ID)
	if err != nil {
		return domain.Post{}, err
	}
	created.Author.ID = created.AuthorID
	created.AuthorID = ""
	return created, nil
}

func (s *PostService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return withReason(ErrValidation, "Post ID is required")
	}
	id, ok := validate.ID(id)
	if !ok {
		return withReason(ErrNotFound, "Post not found")
	}
	err := s.Posts.Delete(ctx, id)
	if errors.Is(err, repos.ErrNotFound) {
		return withReason(ErrNotFound, "Post not found")
	}
	return err
}
