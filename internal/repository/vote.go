package repository

import (
	"context"
	"errors"
	"fmt"

	"linkboard/internal/cache"
	"linkboard/internal/models"
	"linkboard/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteRepository records and removes votes. Both operations are atomic and
// rely on the upvotes primary key rather than a read-then-write check.
type VoteRepository interface {
	Add(ctx context.Context, userID, postID uint) error
	Remove(ctx context.Context, userID, postID uint) error
}

type voteRepository struct {
	db      *gorm.DB
	cache   *cache.Cache
	metrics *observability.DatabaseMetrics
	log     *observability.RepoLogger
}

// NewVoteRepository creates a new vote repository. c may be nil.
func NewVoteRepository(db *gorm.DB, c *cache.Cache) VoteRepository {
	return &voteRepository{
		db:      db,
		cache:   c,
		metrics: observability.NewDatabaseMetrics("upvotes"),
		log:     observability.NewRepoLogger("upvotes"),
	}
}

// errMissingVoteParent marks a foreign key violation on insert. The translated
// driver error no longer names the constraint, so the caller resolves which
// parent disappeared once the transaction has rolled back.
var errMissingVoteParent = errors.New("vote references a missing row")

func postMustExist(tx *gorm.DB, postID uint) error {
	var count int64
	if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return models.NewInternalError(err)
	}
	if count == 0 {
		return models.NewNotFoundError("Post", postID)
	}
	return nil
}

// Add inserts a vote. An existing vote is a conflict. A post or user deleted
// between the existence check and the insert surfaces as a foreign key violation.
func (r *voteRepository) Add(ctx context.Context, userID, postID uint) error {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Add", "upvotes")
	defer r.metrics.TrackQuery("add")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := postMustExist(tx, postID); err != nil {
			return err
		}

		vote := models.Vote{UserID: userID, PostID: postID}
		if err := tx.Omit(clause.Associations).Create(&vote).Error; err != nil {
			switch {
			case isUniqueConstraintError(err):
				return models.NewConflictError(fmt.Sprintf("user %d has already voted on post %d", userID, postID))
			case isForeignKeyError(err):
				return fmt.Errorf("%w: %w", errMissingVoteParent, err)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if errors.Is(err, errMissingVoteParent) {
		err = r.missingParentError(ctx, userID, postID)
	}
	observability.EndSpan(span, err)
	if err != nil {
		if models.IsCode(err, models.CodeInternal) {
			r.log.LogError(ctx, err, "add")
		}
		return err
	}

	r.cache.InvalidatePost(ctx, postID)
	r.log.LogWrite(ctx, "add", "user_id", userID, "post_id", postID)
	return nil
}

// missingParentError reports a vanished voter as unauthenticated and anything
// else as a missing post.
func (r *voteRepository) missingParentError(ctx context.Context, userID, postID uint) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return models.NewInternalError(err)
	}
	if count == 0 {
		return models.NewUnauthorizedError(models.MsgInvalidToken)
	}
	return models.NewNotFoundError("Post", postID)
}

// Remove deletes a vote; deleting nothing means the vote did not exist.
func (r *voteRepository) Remove(ctx context.Context, userID, postID uint) error {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Remove", "upvotes")
	defer r.metrics.TrackQuery("remove")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := postMustExist(tx, postID); err != nil {
			return err
		}

		result := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Vote{})
		if result.Error != nil {
			return models.NewInternalError(result.Error)
		}
		if result.RowsAffected == 0 {
			return &models.AppError{Code: models.CodeNotFound, Message: "Vote does not exist"}
		}
		return nil
	})
	observability.EndSpan(span, err)
	if err != nil {
		if models.IsCode(err, models.CodeInternal) {
			r.log.LogError(ctx, err, "remove")
		}
		return err
	}

	r.cache.InvalidatePost(ctx, postID)
	r.log.LogWrite(ctx, "remove", "user_id", userID, "post_id", postID)
	return nil
}
