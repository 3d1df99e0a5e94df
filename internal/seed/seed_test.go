package seed

import (
	"context"
	"testing"

	"folio/internal/content"
	"folio/internal/models"
	"folio/internal/repository"
	"folio/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed_DefaultsAreIdempotent(t *testing.T) {
	db := testutil.SQLiteDB(t)
	ctx := context.Background()
	s := NewSeeder(db, Options{RandSeed: 42})

	created, err := s.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(content.Names()), created)

	created, err = s.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Zero(t, created)

	resume, err := repository.NewDocumentRepository(db, nil).Get(ctx, content.Collection, content.DocResume)
	require.NoError(t, err)
	assert.Contains(t, resume, "Experience")
}

func TestSeed_DemoContentRespectsCaps(t *testing.T) {
	db := testutil.SQLiteDB(t)
	ctx := context.Background()
	require.NoError(t, Seed(ctx, db, Options{Demo: true, RandSeed: 7}))

	docs := repository.NewDocumentRepository(db, nil)
	for _, name := range []string{content.DocPortfolio, content.DocProjects} {
		doc, err := docs.Get(ctx, content.Collection, name)
		require.NoError(t, err)
		schema, _ := content.Lookup(name)
		assert.NoError(t, schema.Validate(doc))
		assert.LessOrEqual(t, content.CountFeatured(doc), schema.FeaturedCap)
		assert.Len(t, doc, 3)
	}
}

func TestSeed_PostsAndClean(t *testing.T) {
	db := testutil.SQLiteDB(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, db, Options{NumPosts: 5, RandSeed: 1}))
	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.EqualValues(t, 5, count)

	var post models.Post
	require.NoError(t, db.First(&post).Error)
	assert.Equal(t, DemoAuthorID, post.AuthorID)
	assert.NotEmpty(t, post.Title)

	require.NoError(t, Seed(ctx, db, Options{NumPosts: 2, AuthorID: "me", ShouldClean: true, RandSeed: 2}))
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}
