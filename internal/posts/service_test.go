package posts

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BorisDmv/blog-api/internal/apperrors"
	"github.com/BorisDmv/blog-api/internal/db"
	"github.com/BorisDmv/blog-api/internal/models"
)

// countingStore records how many calls reached the backing store.
type countingStore struct {
	db.PostStore
	calls int
}

func (c *countingStore) UpdatePost(ctx context.Context, id string, patch models.PostPatch) (*models.Post, error) {
	c.calls++
	return c.PostStore.UpdatePost(ctx, id, patch)
}

func (c *countingStore) DeletePost(ctx context.Context, id string) error {
	c.calls++
	return c.PostStore.DeletePost(ctx, id)
}

func (c *countingStore) AppendComment(ctx context.Context, id string, comment models.Comment) error {
	c.calls++
	return c.PostStore.AppendComment(ctx, id, comment)
}

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestService() (*Service, *countingStore) {
	store := &countingStore{PostStore: db.NewMemoryStore()}
	svc := NewService(store)
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func strPtr(s string) *string { return &s }

func TestCreateAppliesDefaults(t *testing.T) {
	svc, _ := newTestService()
	post, err := svc.Create(context.Background(), "", models.PostInput{Title: "  Dummy title ", Body: "The body here"})
	require.NoError(t, err)

	assert.True(t, models.ValidID(post.ID))
	assert.Equal(t, "Dummy title", post.Title)
	assert.Equal(t, models.DefaultAuthor, post.Author)
	assert.Equal(t, models.DefaultCategory, post.Category)
	assert.Equal(t, fixedNow, post.CreatedAt)
	assert.Empty(t, post.Comments)
}

func TestCreateValidates(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for name, in := range map[string]models.PostInput{
		"missing title": {Body: "The body here"},
		"short body":    {Title: "Title", Body: "   short   "},
		"long title":    {Title: strings.Repeat("x", models.TitleMaxLen+1), Body: "The body here"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, "theadmin", in)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		})
	}
	posts, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestUpdate(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	post, err := svc.Create(ctx, "theadmin", models.PostInput{Title: "Title", Category: "Birds", Body: "The body here"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, post.ID, models.PostPatch{Title: strPtr("Edited title"), Body: strPtr("Edited body content")})
	require.NoError(t, err)
	assert.Equal(t, "Edited title", updated.Title)
	assert.Equal(t, "Edited body content", updated.Body)
	assert.Equal(t, "Birds", updated.Category)
	assert.Equal(t, fixedNow, updated.CreatedAt)

	_, err = svc.Update(ctx, post.ID, models.PostPatch{Body: strPtr("tiny")})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = svc.Update(ctx, models.NewID(), models.PostPatch{Title: strPtr("Edited title")})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	calls := store.calls
	_, err = svc.Update(ctx, "not-an-objectid", models.PostPatch{Title: strPtr("Edited title")})
	assert.Equal(t, apperrors.KindInvalidID, apperrors.KindOf(err))
	assert.Equal(t, calls, store.calls)
}

func TestUpdateDoesNotMutateCallerPatch(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	post, err := svc.Create(ctx, "theadmin", models.PostInput{Title: "Title", Body: "The body here"})
	require.NoError(t, err)

	title := "  padded  "
	_, err = svc.Update(ctx, post.ID, models.PostPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "  padded  ", title)
}

func TestDelete(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	post, err := svc.Create(ctx, "theadmin", models.PostInput{Title: "Title", Body: "The body here"})
	require.NoError(t, err)

	err = svc.Delete(ctx, "not-an-objectid")
	assert.Equal(t, apperrors.KindInvalidID, apperrors.KindOf(err))
	assert.Zero(t, store.calls)

	require.NoError(t, svc.Delete(ctx, post.ID))
	err = svc.Delete(ctx, post.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestAppendComment(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	post, err := svc.Create(ctx, "theadmin", models.PostInput{Title: "Title", Body: "The body here"})
	require.NoError(t, err)

	comment, err := svc.AppendComment(ctx, post.ID, "A great comment", "userone")
	require.NoError(t, err)
	assert.Equal(t, "A great comment", comment.Comment)
	assert.Equal(t, "userone", comment.CreatedBy)
	assert.Equal(t, fixedNow, comment.Date)

	_, err = svc.AppendComment(ctx, post.ID, "Second one", "usertwo")
	require.NoError(t, err)

	posts, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts[0].Comments, 2)
	assert.Equal(t, "A great comment", posts[0].Comments[0].Comment)
	assert.Equal(t, "usertwo", posts[0].Comments[1].CreatedBy)

	_, err = svc.AppendComment(ctx, post.ID, "   ", "userone")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = svc.AppendComment(ctx, models.NewID(), "Orphan", "userone")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	calls := store.calls
	_, err = svc.AppendComment(ctx, "xyz", "Bad id", "userone")
	assert.Equal(t, apperrors.KindInvalidID, apperrors.KindOf(err))
	assert.Equal(t, calls, store.calls)
}
