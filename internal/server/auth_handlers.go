package server

import (
	"context"

	"linkboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /users
// @Summary Register a user
// @Description Create an account with an email and password
// @Tags users
// @Accept json
// @Produce json
// @Param request body models.UserCreate true "Registration request"
// @Success 201 {object} models.UserOut
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /users [post]
func (s *Server) Register(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	var req models.UserCreate
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithAppError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.Register(ctx, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user.Out())
}

// Login handles POST /login
// @Summary Log in
// @Description Exchange form credentials for a bearer token. username carries the email.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Email address"
// @Param password formData string true "Password"
// @Success 200 {object} models.Token
// @Failure 403 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	username := c.FormValue("username")
	password := c.FormValue("password")
	if username == "" || password == "" {
		return models.RespondWithAppError(c,
			models.NewValidationError("username and password form fields are required"))
	}

	token, err := s.authService.Login(ctx, username, password)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.JSON(token)
}
