package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/BorisDmv/blog-api/internal/models"
)

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("TEST_POSTGRES_URL not set")
	}
	runStoreSuite(t, func(t *testing.T) Store {
		ctx := context.Background()
		store, err := NewPostgresStore(ctx, url)
		require.NoError(t, err)
		_, err = store.Pool().Exec(ctx, `TRUNCATE users, posts`)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close(ctx) })
		return store
	})
}

func TestMongoStore(t *testing.T) {
	url := os.Getenv("TEST_MONGODB_URL")
	if url == "" {
		t.Skip("TEST_MONGODB_URL not set")
	}
	runStoreSuite(t, func(t *testing.T) Store {
		ctx := context.Background()
		store, err := NewMongoStore(ctx, url)
		require.NoError(t, err)
		_, err = store.users.DeleteMany(ctx, bson.M{})
		require.NoError(t, err)
		_, err = store.posts.DeleteMany(ctx, bson.M{})
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close(ctx) })
		return store
	})
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	_, err := Open(context.Background(), "redis://localhost:6379")
	assert.Error(t, err)
	_, err = Open(context.Background(), "no-scheme")
	assert.Error(t, err)

	store, err := Open(context.Background(), "memory://")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
}

func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("tokens", func(t *testing.T) { testTokens(t, newStore(t)) })
	t.Run("posts", func(t *testing.T) { testPosts(t, newStore(t)) })
	t.Run("concurrent comments", func(t *testing.T) { testConcurrentComments(t, newStore(t)) })
}

func newUser(email, name string) *models.User {
	return &models.User{Email: email, PasswordHash: "hash", DisplayName: name, Role: models.RoleUser}
}

func testUsers(t *testing.T, s Store) {
	ctx := context.Background()

	u := newUser("a@b.com", "userone")
	require.NoError(t, s.CreateUser(ctx, u))
	assert.True(t, models.ValidID(u.ID))

	var dup *DuplicateError
	err := s.CreateUser(ctx, newUser("a@b.com", "usertwo"))
	require.True(t, errors.As(err, &dup), "got %v", err)
	assert.Equal(t, "email", dup.Field)

	err = s.CreateUser(ctx, newUser("c@d.com", "userone"))
	require.True(t, errors.As(err, &dup), "got %v", err)
	assert.Equal(t, "displayName", dup.Field)

	got, err := s.GetUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "userone", got.DisplayName)
	assert.Equal(t, models.RoleUser, got.Role)

	_, err = s.GetUserByEmail(ctx, "missing@b.com")
	assert.ErrorIs(t, err, ErrNotFound)

	hasAdmin, err := s.HasUserWithRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, hasAdmin)

	admin := newUser("admin@b.com", "theadmin")
	admin.Role = models.RoleAdmin
	require.NoError(t, s.CreateUser(ctx, admin))
	hasAdmin, err = s.HasUserWithRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, hasAdmin)
}

func testTokens(t *testing.T, s Store) {
	ctx := context.Background()
	u := newUser("t@b.com", "tokenuser")
	require.NoError(t, s.CreateUser(ctx, u))

	_, err := s.GetUserByToken(ctx, u.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetUserToken(ctx, u.ID, "first"))
	got, err := s.GetUserByToken(ctx, u.ID, "first")
	require.NoError(t, err)
	assert.Equal(t, "first", got.CurrentToken)

	require.NoError(t, s.SetUserToken(ctx, u.ID, "second"))
	_, err = s.GetUserByToken(ctx, u.ID, "first")
	assert.ErrorIs(t, err, ErrNotFound)

	// A stale token must not clear the live one.
	require.NoError(t, s.ClearUserToken(ctx, u.ID, "first"))
	_, err = s.GetUserByToken(ctx, u.ID, "second")
	require.NoError(t, err)

	require.NoError(t, s.ClearUserToken(ctx, u.ID, "second"))
	_, err = s.GetUserByToken(ctx, u.ID, "second")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.SetUserToken(ctx, models.NewID(), "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func testPosts(t *testing.T, s Store) {
	ctx := context.Background()
	created := time.Now().UTC().Truncate(time.Millisecond)

	first := &models.Post{Title: "First", Author: "theadmin", CreatedAt: created, Category: "General", Body: "The body here"}
	second := &models.Post{Title: "Second", Author: "theadmin", CreatedAt: created, Category: "Birds", Body: "Another body here"}
	require.NoError(t, s.CreatePost(ctx, first))
	require.NoError(t, s.CreatePost(ctx, second))
	assert.NotEqual(t, first.ID, second.ID)

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "First", posts[0].Title)
	assert.Equal(t, "Second", posts[1].Title)
	assert.True(t, created.Equal(posts[0].CreatedAt))
	assert.Empty(t, posts[0].Comments)

	title := "Edited title"
	updated, err := s.UpdatePost(ctx, first.ID, models.PostPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Edited title", updated.Title)
	assert.Equal(t, "The body here", updated.Body)
	assert.Equal(t, "General", updated.Category)

	_, err = s.UpdatePost(ctx, models.NewID(), models.PostPatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)

	comment := models.Comment{Comment: "A great comment", Date: created, CreatedBy: "userone"}
	require.NoError(t, s.AppendComment(ctx, first.ID, comment))
	assert.ErrorIs(t, s.AppendComment(ctx, models.NewID(), comment), ErrNotFound)

	posts, err = s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts[0].Comments, 1)
	assert.Equal(t, "A great comment", posts[0].Comments[0].Comment)
	assert.Equal(t, "userone", posts[0].Comments[0].CreatedBy)

	require.NoError(t, s.DeletePost(ctx, first.ID))
	assert.ErrorIs(t, s.DeletePost(ctx, first.ID), ErrNotFound)

	posts, err = s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, second.ID, posts[0].ID)
}

func testConcurrentComments(t *testing.T, s Store) {
	ctx := context.Background()
	post := &models.Post{Title: "Busy", Author: "theadmin", CreatedAt: time.Now(), Category: "General", Body: "Lots of comments"}
	require.NoError(t, s.CreatePost(ctx, post))

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.AppendComment(ctx, post.ID, models.Comment{Comment: fmt.Sprintf("comment %d", i), Date: time.Now(), CreatedBy: "userone"})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Len(t, posts[0].Comments, n)
}
