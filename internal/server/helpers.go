package server

import (
	"errors"

	"linkboard/internal/middleware"
	"linkboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/skip query parameters.
type Pagination struct {
	Limit int
	Skip  int
}

const (
	defaultPaginationLimit = 10
	maxPaginationLimit     = 100
)

// parsePagination extracts limit and skip query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	skip := c.QueryInt("skip", 0)
	if skip < 0 {
		skip = 0
	}

	return Pagination{
		Limit: limit,
		Skip:  skip,
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 422 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithAppError(c,
			models.NewValidationError("Invalid "+param+": must be a positive integer"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// currentUserID returns the id of the user stored by AuthRequired, or 0.
func currentUserID(c *fiber.Ctx) uint {
	if user, ok := middleware.CurrentUser(c); ok {
		return user.ID
	}
	return 0
}
