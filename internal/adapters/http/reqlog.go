package http

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/hussainzaidi99/OSMAPI/internal/pkg/logging"
)

type ctxKey string

const loggerKey ctxKey = "logger"

// RequestIDLogMiddleware copies the Fiber request ID into the user context so
// that records logged with slog.*Context downstream carry it, and stores a
// request-scoped *slog.Logger tagged with the client IP for LoggerFromCtx.
func RequestIDLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid, _ := c.Locals("requestid").(string)
		if rid == "" {
			return c.Next()
		}

		reqLogger := slog.Default().With("remote_ip", c.IP())

		ctx := logging.WithRequestID(c.UserContext(), rid)
		ctx = context.WithValue(ctx, loggerKey, reqLogger)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// LoggerFromCtx extracts the per-request slog.Logger from a context.
// Falls back to the default logger if none is set.
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
