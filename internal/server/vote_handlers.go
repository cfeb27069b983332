package server

import (
	"context"

	"linkboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Vote handles POST /vote (also served at /Upvote)
// @Summary Cast or retract a vote
// @Description dir=1 adds the caller's vote, dir=0 removes it
// @Tags votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.VoteInput true "Vote"
// @Success 201 {object} models.MessageResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /vote [post]
func (s *Server) Vote(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	var req models.VoteInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithAppError(c, models.NewValidationError("Invalid request body"))
	}

	msg, err := s.voteService.Vote(ctx, currentUserID(c), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(msg)
}
