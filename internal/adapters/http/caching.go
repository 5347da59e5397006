package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on GET responses that the handler left
// without one. Measurements are never cacheable.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		path := c.Path()
		var cc string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			cc = "no-cache"

		case path == "/measure" || strings.HasPrefix(path, "/v1/measure"):
			cc = "no-store"

		case path == "/metrics":
			cc = "no-cache"

		case strings.HasPrefix(path, "/docs"):
			cc = "public, max-age=3600"
		}

		if cc != "" {
			c.Set(fiber.HeaderCacheControl, cc)
		}

		return err
	}
}
