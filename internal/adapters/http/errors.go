package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/hussainzaidi99/OSMAPI/internal/core/usecases"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/geospatial"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, not_found, upstream_error, internal_error
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errUpstream returns a 502 error.
func errUpstream(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadGateway, "upstream_error", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// writeServiceError maps measurement errors to responses.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, geospatial.ErrInvalidCoordinate):
		return errBadRequest(c, err.Error())
	case errors.Is(err, usecases.ErrImageryUnavailable):
		return errUpstream(c, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		// the timeout middleware answers 408
		return err
	default:
		LoggerFromCtx(c.UserContext()).ErrorContext(c.UserContext(), "measure failed", "error", err)
		return errInternal(c, "measurement failed")
	}
}
