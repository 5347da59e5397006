package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"

	"github.com/hussainzaidi99/OSMAPI/internal/pkg/metrics"
)

// DefaultRequestTimeout bounds one measurement including upstream fetches.
const DefaultRequestTimeout = 25 * time.Second

// LegacySunset is when the unversioned /measure alias goes away.
var LegacySunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST and GraphQL routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	reqTimeout := deps.RequestTimeout
	if reqTimeout <= 0 {
		reqTimeout = DefaultRequestTimeout
	}

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Every measurement costs upstream quota: 30 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == "/v1/health" || p == "/v1/ready" || p == "/metrics"
		},
		Max:        30,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{Path: "/measure", SunsetDate: LegacySunset, Alternative: "/v1/measure"},
	}))

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/measure", timeout.NewWithContext(MeasureHandler(deps), reqTimeout))
	v1.Get("/measure/image", timeout.NewWithContext(MeasureImageHandler(deps), reqTimeout))

	// Unversioned alias kept for existing clients
	app.Get("/measure", timeout.NewWithContext(MeasureHandler(deps), reqTimeout))

	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), reqTimeout))

	SetupDocs(app, deps.DocsPath)

	app.Use(func(c *fiber.Ctx) error {
		return errNotFound(c, "no route for "+c.Method()+" "+c.Path())
	})
}
