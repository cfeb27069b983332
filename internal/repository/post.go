package repository

import (
	"context"
	"errors"
	"strings"

	"linkboard/internal/cache"
	"linkboard/internal/models"
	"linkboard/internal/observability"

	"gorm.io/gorm"
)

const (
	DefaultPostLimit = 10
	MaxPostLimit     = 100
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter models.PostFilter) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db      *gorm.DB
	cache   *cache.Cache
	metrics *observability.DatabaseMetrics
	log     *observability.RepoLogger
}

// NewPostRepository creates a new post repository. c may be nil.
func NewPostRepository(db *gorm.DB, c *cache.Cache) PostRepository {
	return &postRepository{
		db:      db,
		cache:   c,
		metrics: observability.NewDatabaseMetrics("posts"),
		log:     observability.NewRepoLogger("posts"),
	}
}

// withVotes selects the post columns plus its vote count.
func withVotes(db *gorm.DB) *gorm.DB {
	return db.Select("posts.*, (SELECT COUNT(*) FROM upvotes WHERE upvotes.post_id = posts.id) AS votes").
		Preload("Owner")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer r.metrics.TrackQuery("create")()

	if err := r.db.WithContext(ctx).Omit("Owner").Create(post).Error; err != nil {
		// owner_id is the only foreign key; the owner was deleted after authentication.
		if isForeignKeyError(err) {
			return models.NewUnauthorizedError(models.MsgInvalidToken)
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogWrite(ctx, "create", "post_id", post.ID)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	key := cache.PostKey(id)

	err := r.cache.CacheAside(ctx, "post", key, &post, cache.PostTTL, func() error {
		ctx, span := observability.TraceRepositoryMethod(ctx, "GetByID", "posts")
		defer r.metrics.TrackQuery("get_by_id")()

		err := withVotes(r.db.WithContext(ctx)).Where("posts.id = ?", id).Take(&post).Error
		observability.EndSpan(span, err)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", id)
			}
			r.log.LogError(ctx, err, "get_by_id")
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// escapeLike escapes LIKE wildcards so the search term matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// List returns posts newest first, optionally filtered by a case-insensitive title substring.
func (r *postRepository) List(ctx context.Context, filter models.PostFilter) ([]*models.Post, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "List", "posts")
	defer r.metrics.TrackQuery("list")()

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultPostLimit
	}
	if limit > MaxPostLimit {
		limit = MaxPostLimit
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}

	query := withVotes(r.db.WithContext(ctx))
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where(`LOWER(posts.title) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(search))+"%")
	}

	posts := make([]*models.Post, 0, limit)
	err := query.
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(limit).
		Offset(skip).
		Find(&posts).Error
	observability.EndSpan(span, err)
	if err != nil {
		r.log.LogError(ctx, err, "list")
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Update saves the mutable fields of post.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	defer r.metrics.TrackQuery("update")()

	result := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]interface{}{
			"title":     post.Title,
			"content":   post.Content,
			"published": post.Published,
		})
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "update")
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	r.cache.InvalidatePost(ctx, post.ID)
	return nil
}

// Delete removes the post; its votes go with it through the cascading foreign key.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer r.metrics.TrackQuery("delete")()

	result := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "delete")
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	r.cache.InvalidatePost(ctx, id)
	return nil
}
