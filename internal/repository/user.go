// Package repository implements the data access layer for the application.
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

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIDUncached(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db      *gorm.DB
	cache   *cache.Cache
	metrics *observability.DatabaseMetrics
	log     *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation. c may be nil.
func NewUserRepository(db *gorm.DB, c *cache.Cache) UserRepository {
	return &userRepository{
		db:      db,
		cache:   c,
		metrics: observability.NewDatabaseMetrics("users"),
		log:     observability.NewRepoLogger("users"),
	}
}

// GetByID loads a user through the cache. Cached users carry no password hash.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := r.cache.CacheAside(ctx, "user", key, &user, cache.UserTTL, func() error {
		defer r.metrics.TrackQuery("get_by_id")()
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			r.log.LogError(ctx, err, "get_by_id")
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIDUncached reads the user from the database, bypassing the cache.
// A missing user also drops any cached copy.
func (r *userRepository) GetByIDUncached(ctx context.Context, id uint) (*models.User, error) {
	defer r.metrics.TrackQuery("get_by_id_uncached")()

	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.cache.InvalidateUser(ctx, id)
			return nil, models.NewNotFoundError("User", id)
		}
		r.log.LogError(ctx, err, "get_by_id_uncached")
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no user has the address.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	defer r.metrics.TrackQuery("get_by_email")()

	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.LogError(ctx, err, "get_by_email")
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// Create inserts user. A duplicate email is reported by the unique index as a conflict.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer r.metrics.TrackQuery("create")()

	user.Email = strings.ToLower(user.Email)
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User with this email already exists")
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogWrite(ctx, "create", "user_id", user.ID)
	return nil
}
