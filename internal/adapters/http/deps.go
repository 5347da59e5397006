package http

import (
	"context"
	"time"

	"github.com/hussainzaidi99/OSMAPI/internal/core/usecases"
)

// Pinger is a backing service the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Connectivity reports whether a long-lived connection is up.
type Connectivity interface {
	Connected() bool
}

// Dependencies holds all services needed by HTTP handlers.
// Optional backends are left nil when not configured.
type Dependencies struct {
	Measure *usecases.MeasureService

	DB     Pinger
	Cache  Pinger
	Events Connectivity

	RequestTimeout time.Duration
	Version        string
	DocsPath       string
}
