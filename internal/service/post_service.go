package service

import (
	"context"

	"linkboard/internal/models"
	"linkboard/internal/repository"
	"linkboard/internal/validation"
)

type PostService struct {
	postRepo repository.PostRepository
}

func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

func validatePostInput(in models.PostInput) error {
	if err := validation.ValidatePostContent(in.Title, in.Content); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

// CreatePost stores a post owned by userID and returns it with owner and votes loaded.
func (s *PostService) CreatePost(ctx context.Context, userID uint, in models.PostInput) (*models.Post, error) {
	if err := validatePostInput(in); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:     in.Title,
		Content:   in.Content,
		Published: in.IsPublished(),
		OwnerID:   userID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

func (s *PostService) ListPosts(ctx context.Context, filter models.PostFilter) ([]*models.Post, error) {
	return s.postRepo.List(ctx, filter)
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// UpdatePost replaces the post's editable fields. Only the owner may update.
func (s *PostService) UpdatePost(ctx context.Context, userID, postID uint, in models.PostInput) (*models.Post, error) {
	if err := validatePostInput(in); err != nil {
		return nil, err
	}

	post, err := s.ownedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Content = in.Content
	post.Published = in.IsPublished()
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// DeletePost removes the post and, by cascade, its votes. Only the owner may delete.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	if _, err := s.ownedPost(ctx, userID, postID); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, postID)
}

func (s *PostService) ownedPost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != userID {
		return nil, models.NewForbiddenError("Not authorized to perform requested action")
	}
	return post, nil
}
