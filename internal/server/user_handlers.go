package server

import (
	"context"

	"linkboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetUser handles GET /users/:id
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.UserOut
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	user, err := s.userService.GetUserByID(ctx, id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(user.Out())
}
