package service

import (
	"context"
	"strings"

	"linkboard/internal/models"
	"linkboard/internal/observability"
	"linkboard/internal/repository"
)

type VoteService struct {
	voteRepo repository.VoteRepository
}

func NewVoteService(voteRepo repository.VoteRepository) *VoteService {
	return &VoteService{voteRepo: voteRepo}
}

// Vote casts (dir=1) or retracts (dir=0) the user's vote on a post.
func (s *VoteService) Vote(ctx context.Context, userID uint, in models.VoteInput) (*models.MessageResponse, error) {
	if in.PostID == nil || *in.PostID <= 0 {
		return nil, models.NewValidationError("post_id must be a positive integer")
	}
	if in.Dir == nil {
		return nil, models.NewValidationError("dir is required")
	}
	postID := uint(*in.PostID)

	var (
		direction string
		message   string
		err       error
	)
	switch *in.Dir {
	case models.VoteAdd:
		direction, message = "add", "successfully added vote"
		err = s.voteRepo.Add(ctx, userID, postID)
	case models.VoteRemove:
		direction, message = "remove", "successfully deleted vote"
		err = s.voteRepo.Remove(ctx, userID, postID)
	default:
		return nil, models.NewValidationError("dir must be 0 or 1")
	}

	observability.VoteOperations.WithLabelValues(direction, voteResult(err)).Inc()
	if err != nil {
		return nil, err
	}
	return &models.MessageResponse{Message: message}, nil
}

func voteResult(err error) string {
	if err == nil {
		return "ok"
	}
	for _, code := range []string{models.CodeNotFound, models.CodeConflict} {
		if models.IsCode(err, code) {
			return strings.ToLower(code)
		}
	}
	return "error"
}
