package service

import (
	"context"
	"strings"
	"testing"

	"linkboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestPostService_CreatePost_Validation(t *testing.T) {
	t.Parallel()

	svc := NewPostService(noopPostRepo())
	ctx := context.Background()

	tests := []struct {
		name  string
		input models.PostInput
	}{
		{"empty title", models.PostInput{Content: "some content"}},
		{"empty content", models.PostInput{Title: "T"}},
		{"title too long", models.PostInput{Title: strings.Repeat("x", 301), Content: "c"}},
		{"content too long", models.PostInput{Title: "T", Content: strings.Repeat("x", 50001)}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.CreatePost(ctx, 1, tc.input)
			assertAppError(t, err, models.CodeValidation)
		})
	}
}

func TestPostService_CreatePost(t *testing.T) {
	t.Parallel()

	var stored *models.Post
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = 42
		stored = p
		return nil
	}
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		require.Equal(t, uint(42), id)
		return stored, nil
	}
	svc := NewPostService(repo)

	post, err := svc.CreatePost(context.Background(), 7, models.PostInput{Title: "T", Content: "C"})
	require.NoError(t, err)
	assert.Equal(t, uint(7), post.OwnerID)
	assert.True(t, post.Published, "published defaults to true")

	post, err = svc.CreatePost(context.Background(), 7, models.PostInput{Title: "T", Content: "C", Published: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, post.Published)
}

func TestPostService_OwnerChecks(t *testing.T) {
	t.Parallel()

	existing := &models.Post{ID: 3, OwnerID: 1, Title: "old", Content: "old"}
	newRepo := func() (*postRepoStub, *bool) {
		var wrote bool
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			if id != existing.ID {
				return nil, models.NewNotFoundError("Post", id)
			}
			cp := *existing
			return &cp, nil
		}
		repo.updateFn = func(context.Context, *models.Post) error { wrote = true; return nil }
		repo.deleteFn = func(context.Context, uint) error { wrote = true; return nil }
		return repo, &wrote
	}
	input := models.PostInput{Title: "new", Content: "new"}
	ctx := context.Background()

	t.Run("update by owner", func(t *testing.T) {
		repo, wrote := newRepo()
		_, err := NewPostService(repo).UpdatePost(ctx, 1, 3, input)
		assert.NoError(t, err)
		assert.True(t, *wrote)
	})

	t.Run("update by stranger", func(t *testing.T) {
		repo, wrote := newRepo()
		_, err := NewPostService(repo).UpdatePost(ctx, 2, 3, input)
		assertAppError(t, err, models.CodeForbidden)
		assert.False(t, *wrote)
	})

	t.Run("update missing post", func(t *testing.T) {
		repo, _ := newRepo()
		_, err := NewPostService(repo).UpdatePost(ctx, 1, 99, input)
		assertAppError(t, err, models.CodeNotFound)
	})

	t.Run("delete by stranger", func(t *testing.T) {
		repo, wrote := newRepo()
		err := NewPostService(repo).DeletePost(ctx, 2, 3)
		assertAppError(t, err, models.CodeForbidden)
		assert.False(t, *wrote)
	})

	t.Run("delete by owner", func(t *testing.T) {
		repo, wrote := newRepo()
		assert.NoError(t, NewPostService(repo).DeletePost(ctx, 1, 3))
		assert.True(t, *wrote)
	})
}
