//go:build integration_test || all_tests

package blog

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/bfcdev/bfc-blog-backend/internal/db"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepoSetup(t *testing.T) (*Repo, func()) {
	t.Helper()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		host = "localhost"
	}
	t.Logf("using postgres host: %s", host)

	dbPool, err := db.NewDBPool(timeoutCtx, db.NewDBPoolParams{
		DBHost: host,
		DBPort: "5432",
		DBName: "bfc_blogs",
	})
	require.NoError(t, err)

	return NewRepo(dbPool), func() {
		dbPool.Close()
	}
}

func TestRepo_AddDelete(t *testing.T) {
	ctx := context.Background()
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	now := time.Now().Add(-time.Minute)

	p1 := &Post{
		Title:   gofakeit.Sentence(4),
		Summary: gofakeit.Sentence(8),
		Content: gofakeit.Paragraph(2, 3, 10, " "),
	}
	require.NoError(t, repo.Add(ctx, p1))
	p2 := &Post{
		Title:   gofakeit.Sentence(4),
		Summary: gofakeit.Sentence(8),
		Content: gofakeit.Paragraph(2, 3, 10, " "),
	}
	require.NoError(t, repo.Add(ctx, p2))

	assert.NotEqual(t, p1.ID, p2.ID)
	assert.Equal(t, Slugify(p1.Title), p1.Slug)
	assert.True(t, now.Before(p1.CreatedAt), "%v should be before %v", now, p1.CreatedAt)

	assert.ErrorIs(t, repo.Delete(ctx, 25342523), ErrPostNotFound)
	require.NoError(t, repo.Delete(ctx, p2.ID))
	_, err := repo.GetByID(ctx, p2.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)

	require.NoError(t, repo.Delete(ctx, p1.ID))
}

func TestRepo_Update(t *testing.T) {
	ctx := context.Background()
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	post := &Post{
		Title:   gofakeit.Sentence(4),
		Summary: gofakeit.Sentence(8),
		Content: gofakeit.Paragraph(2, 3, 10, " "),
	}
	require.NoError(t, repo.Add(ctx, post))
	defer func() {
		require.NoError(t, repo.Delete(ctx, post.ID))
	}()

	originalSlug := post.Slug
	imageURLs := []string{"https://images.test/a.png", "https://images.test/b.png"}
	require.NoError(t, repo.Update(ctx, post.ID, "new title", "new summary", "new content", imageURLs, true))

	updated, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "new title", updated.Title)
	assert.Equal(t, "new summary", updated.Summary)
	assert.Equal(t, "new content", updated.Content)
	assert.Equal(t, imageURLs, updated.ImageURLs)
	assert.True(t, updated.Featured)
	require.NotNil(t, updated.UpdatedAt)
	// slug and created_at stay as they were
	assert.Equal(t, originalSlug, updated.Slug)
	assert.Equal(t, post.CreatedAt.Unix(), updated.CreatedAt.Unix())

	assert.ErrorIs(t, repo.Update(ctx, 25342523, "t", "s", "c", nil, false), ErrPostNotFound)
}

func TestRepo_AllAndFeatured(t *testing.T) {
	ctx := context.Background()
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	addedCount := 5
	var addedIDs []int
	for i := 1; i <= addedCount; i++ {
		p := &Post{
			Title:    fmt.Sprintf("%s %d", gofakeit.Sentence(3), i),
			Summary:  fmt.Sprintf("summary %d", i),
			Content:  fmt.Sprintf("content %d", i),
			Featured: i%2 == 0,
		}
		require.NoError(t, repo.Add(ctx, p))
		addedIDs = append(addedIDs, p.ID)
	}
	defer func() {
		for _, id := range addedIDs {
			require.NoError(t, repo.Delete(ctx, id))
		}
	}()

	allPosts, err := repo.All(ctx)
	require.NoError(t, err)
	assert.True(t, len(allPosts) >= addedCount)
	for i := 1; i < len(allPosts); i++ {
		assert.False(t, allPosts[i-1].CreatedAt.Before(allPosts[i].CreatedAt))
	}

	featured, err := repo.Featured(ctx, 3)
	require.NoError(t, err)
	assert.True(t, len(featured) <= 3)
	for _, p := range featured {
		assert.True(t, p.Featured)
	}
}

func TestRepo_GetBySlug(t *testing.T) {
	ctx := context.Background()
	repo, shutdown := testRepoSetup(t)
	defer shutdown()

	post := &Post{
		Title:   fmt.Sprintf("Slug Target %d", gofakeit.Number(100000, 999999)),
		Summary: "a summary",
		Content: "the content",
	}
	require.NoError(t, repo.Add(ctx, post))
	defer func() {
		require.NoError(t, repo.Delete(ctx, post.ID))
	}()

	found, err := repo.GetBySlug(ctx, post.Slug)
	require.NoError(t, err)
	assert.Equal(t, post.ID, found.ID)

	_, err = repo.GetBySlug(ctx, "definitely-no-such-slug")
	assert.ErrorIs(t, err, ErrPostNotFound)
}
