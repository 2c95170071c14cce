package server

import (
	"errors"
	"log/slog"

	"postboard/internal/listing"
	"postboard/internal/middleware"
	"postboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

// parseListingParams decodes the listing query string. Values stay raw strings;
// listing.Normalize owns their validation.
func parseListingParams(c *fiber.Ctx) (listing.Params, error) {
	var params listing.Params
	if err := c.QueryParser(&params); err != nil {
		return listing.Params{}, models.NewValidationError("", "malformed query string")
	}
	return params, nil
}

// respondError maps err onto a status and writes the error body. Validation
// failures are 400 with the offending field; anything else is logged with its
// cause and answered with a generic 500.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == models.CodeValidation {
		return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
	}

	middleware.Logger.ErrorContext(c.UserContext(), "listing request failed",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	if appErr == nil {
		err = models.NewInternalError(err)
	}
	return models.RespondWithError(c, fiber.StatusInternalServerError, err)
}
