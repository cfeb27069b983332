// Package middleware provides request logging, tracing, metrics and authentication middleware.
package middleware

import (
	"context"
	"errors"
	"strings"

	"linkboard/internal/models"
	"linkboard/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// IdentityResolver turns a bearer token into the user it was issued to.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*models.User, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if authHeader == "" {
		return "", false
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(c *fiber.Ctx, reason, message string) error {
	observability.AuthFailures.WithLabelValues(reason).Inc()
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(message))
}

// AuthRequired is a middleware that enforces authentication for protected routes.
// On success the caller's id and user are stored in Locals under "userID" and "user".
func AuthRequired(resolver IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := BearerToken(c)
		if !ok {
			return unauthorized(c, "missing_token", "Not authenticated")
		}

		user, err := resolver.ResolveIdentity(c.UserContext(), token)
		if err != nil {
			var appErr *models.AppError
			if errors.As(err, &appErr) && appErr.Code != models.CodeUnauthorized {
				return models.RespondWithAppError(c, err)
			}
			return unauthorized(c, "invalid_token", models.MsgInvalidToken)
		}

		c.Locals("userID", user.ID)
		c.Locals("user", user)
		// Sync to UserContext for logging and downstream services
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, user.ID))

		return c.Next()
	}
}

// CurrentUser returns the user stored by AuthRequired.
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals("user").(*models.User)
	return user, ok && user != nil
}
