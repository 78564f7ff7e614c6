// Package db persists users and posts. Every backend implements Store and
// performs token updates and comment appends as single atomic operations.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BorisDmv/blog-api/internal/models"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("db: not found")

// DuplicateError reports a unique constraint violation on Field ("email" or
// "displayName").
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("db: duplicate %s %q", e.Field, e.Value)
}

type UserStore interface {
	// CreateUser inserts u and assigns u.ID.
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByToken returns the user with the given id only while token is
	// its current token.
	GetUserByToken(ctx context.Context, id, token string) (*models.User, error)
	SetUserToken(ctx context.Context, id, token string) error
	// ClearUserToken removes the stored token if it still equals token.
	ClearUserToken(ctx context.Context, id, token string) error
	HasUserWithRole(ctx context.Context, role models.Role) (bool, error)
}

type PostStore interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	// CreatePost inserts p and assigns p.ID.
	CreatePost(ctx context.Context, p *models.Post) error
	UpdatePost(ctx context.Context, id string, patch models.PostPatch) (*models.Post, error)
	DeletePost(ctx context.Context, id string) error
	AppendComment(ctx context.Context, id string, c models.Comment) error
}

type Store interface {
	UserStore
	PostStore
	Close(ctx context.Context) error
}

// Open connects to the backend named by the URL scheme: postgres://,
// mongodb:// (or mongodb+srv://) and memory://.
func Open(ctx context.Context, databaseURL string) (Store, error) {
	scheme, _, ok := strings.Cut(databaseURL, "://")
	if !ok {
		return nil, fmt.Errorf("database url %q has no scheme", databaseURL)
	}
	switch scheme {
	case "postgres", "postgresql":
		return NewPostgresStore(ctx, databaseURL)
	case "mongodb", "mongodb+srv":
		return NewMongoStore(ctx, databaseURL)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported database scheme %q", scheme)
	}
}
