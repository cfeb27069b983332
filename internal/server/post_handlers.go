package server

import (
	"context"

	"linkboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

func postsOut(posts []*models.Post) []models.PostOut {
	out := make([]models.PostOut, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Out())
	}
	return out
}

// ListPosts handles GET /posts
// @Summary List posts
// @Description Newest first, optionally filtered by a title substring
// @Tags posts
// @Produce json
// @Param limit query int false "Page size (max 100)" default(10)
// @Param skip query int false "Number of posts to skip" default(0)
// @Param search query string false "Case-insensitive title filter"
// @Success 200 {array} models.PostOut
// @Router /posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	page := parsePagination(c, defaultPaginationLimit)
	posts, err := s.postService.ListPosts(ctx, models.PostFilter{
		Limit:  page.Limit,
		Skip:   page.Skip,
		Search: c.Query("search"),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(postsOut(posts))
}

// GetPost handles GET /posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.PostOut
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	post, err := s.postService.GetPost(ctx, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(post.Out())
}

// CreatePost handles POST /posts
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.PostInput true "Post"
// @Success 201 {object} models.PostOut
// @Failure 401 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	var req models.PostInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithAppError(c, models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(ctx, currentUserID(c), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post.Out())
}

// UpdatePost handles PUT /posts/:id
// @Summary Update a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body models.PostInput true "Post"
// @Success 200 {object} models.PostOut
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	var req models.PostInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithAppError(c, models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(ctx, currentUserID(c), id, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(post.Out())
}

// DeletePost handles DELETE /posts/:id
// @Summary Delete a post
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	if err := s.postService.DeletePost(ctx, currentUserID(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
