// Package posts validates and applies changes to blog posts and their
// comments.
package posts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BorisDmv/blog-api/internal/apperrors"
	"github.com/BorisDmv/blog-api/internal/db"
	"github.com/BorisDmv/blog-api/internal/models"
	"github.com/BorisDmv/blog-api/internal/validation"
)

const (
	msgInvalidID    = "invalid post id"
	msgPostNotFound = "post not found"
)

type Service struct {
	store db.PostStore
	now   func() time.Time
}

func NewService(store db.PostStore) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]models.Post, error) {
	posts, err := s.store.ListPosts(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "could not load posts", err)
	}
	return posts, nil
}

// Create stores a new post written by author (the acting admin's display
// name). The creation time is always the server's clock.
func (s *Service) Create(ctx context.Context, author string, in models.PostInput) (*models.Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	in.Category = strings.TrimSpace(in.Category)
	if err := validation.Check(in); err != nil {
		return nil, err
	}
	if author == "" {
		author = models.DefaultAuthor
	}
	if in.Category == "" {
		in.Category = models.DefaultCategory
	}
	post := &models.Post{
		Title:     in.Title,
		Author:    author,
		CreatedAt: s.now().UTC(),
		Category:  in.Category,
		Body:      in.Body,
		MainImage: in.MainImage,
		Thumbnail: in.Thumbnail,
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "could not create post", err)
	}
	return post, nil
}

// Update overwrites the fields set in patch and returns the post as stored
// afterwards.
func (s *Service) Update(ctx context.Context, id string, patch models.PostPatch) (*models.Post, error) {
	if !models.ValidID(id) {
		return nil, apperrors.InvalidID(msgInvalidID)
	}
	patch.Title = trimmed(patch.Title)
	patch.Body = trimmed(patch.Body)
	patch.Category = trimmed(patch.Category)
	if err := validation.Check(patch); err != nil {
		return nil, err
	}
	post, err := s.store.UpdatePost(ctx, id, patch)
	if err != nil {
		return nil, storeError(err, "could not update post")
	}
	return post, nil
}

// Delete removes a post. Malformed ids are rejected without touching the
// store.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !models.ValidID(id) {
		return apperrors.InvalidID(msgInvalidID)
	}
	if err := s.store.DeletePost(ctx, id); err != nil {
		return storeError(err, "could not delete post")
	}
	return nil
}

// AppendComment adds a comment by author to the end of the post's comments
// and returns the new comment.
func (s *Service) AppendComment(ctx context.Context, id, text, author string) (*models.Comment, error) {
	if !models.ValidID(id) {
		return nil, apperrors.InvalidID(msgInvalidID)
	}
	in := models.CommentInput{Comment: strings.TrimSpace(text)}
	if err := validation.Check(in); err != nil {
		return nil, err
	}
	comment := models.Comment{
		Comment:   in.Comment,
		Date:      s.now().UTC(),
		CreatedBy: author,
	}
	if err := s.store.AppendComment(ctx, id, comment); err != nil {
		return nil, storeError(err, "unable to post comment")
	}
	return &comment, nil
}

func trimmed(field *string) *string {
	if field == nil {
		return nil
	}
	v := strings.TrimSpace(*field)
	return &v
}

func storeError(err error, message string) error {
	if errors.Is(err, db.ErrNotFound) {
		return apperrors.Wrap(apperrors.KindNotFound, msgPostNotFound, err)
	}
	return apperrors.Wrap(apperrors.KindInternal, message, err)
}
