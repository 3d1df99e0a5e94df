package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"folio/internal/cache"
	"folio/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db, nil)

	post := &models.Post{Title: "Test Post", Content: "Content", AuthorID: "user-1"}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), post)
	assert.NoError(t, err)
	assert.Equal(t, uint(1), post.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_CRUD(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostRepository(db, nil)
	ctx := context.Background()

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	post := &models.Post{
		Title:         "First",
		Content:       "Body",
		GalleryImages: []string{"/media/posts/1.png"},
		AuthorID:      "user-1",
		CreatedAt:     created,
	}
	require.NoError(t, repo.Create(ctx, post))
	require.NotZero(t, post.ID)

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"/media/posts/1.png"}, got.GalleryImages)
	assert.True(t, created.Equal(got.CreatedAt))

	// Backdate the row so the update has to move updated_at forward.
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).
		UpdateColumn("updated_at", created).Error)

	// A forged author and creation time must not be persisted.
	update := &models.Post{
		ID:        post.ID,
		Title:     "First (edited)",
		Content:   "New body",
		AuthorID:  "intruder",
		CreatedAt: created.Add(48 * time.Hour),
	}
	require.NoError(t, repo.Update(ctx, update))

	got, err = repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "First (edited)", got.Title)
	assert.Equal(t, "user-1", got.AuthorID)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.True(t, got.UpdatedAt.After(created.Add(time.Hour)), "updated_at must advance on update, got %s", got.UpdatedAt)

	require.NoError(t, repo.Delete(ctx, post.ID))
	_, err = repo.GetByID(ctx, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)

	assert.ErrorIs(t, repo.Delete(ctx, post.ID), ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &models.Post{ID: 999, Title: "x"}), ErrNotFound)
}

func TestPostRepository_ListNewestFirst(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostRepository(db, nil)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"old", "middle", "new"} {
		require.NoError(t, repo.Create(ctx, &models.Post{
			Title:     title,
			Content:   "c",
			AuthorID:  "user-1",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	posts, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "new", posts[0].Title)
	assert.Equal(t, "middle", posts[1].Title)

	posts, err = repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "old", posts[0].Title)
}

func TestPostRepository_CacheInvalidation(t *testing.T) {
	db := setupSQLiteDB(t)
	mr, c := setupCache(t)
	repo := NewPostRepository(db, c)
	ctx := context.Background()

	post := &models.Post{Title: "Cached", Content: "c", AuthorID: "user-1"}
	require.NoError(t, repo.Create(ctx, post))

	_, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	_, err = repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.PostKey(post.ID)))
	assert.True(t, mr.Exists(cache.PostsListKey(10, 0)))

	post.Title = "Changed"
	require.NoError(t, repo.Update(ctx, post))
	assert.False(t, mr.Exists(cache.PostKey(post.ID)))
	assert.False(t, mr.Exists(cache.PostsListKey(10, 0)))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Changed", got.Title)
}
