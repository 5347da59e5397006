package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "osmapi",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "osmapi",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "osmapi",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Measurement metrics
	MeasurementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "osmapi",
		Subsystem: "measure",
		Name:      "requests_total",
		Help:      "Total measurements completed, by footprint source and distance model",
	}, []string{"source", "model"})

	FallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "osmapi",
		Subsystem: "measure",
		Name:      "fallbacks_total",
		Help:      "Total measurements that produced the fallback box instead of a rectangle",
	}, []string{"reason"})

	MeasuredEdgeMeters = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "osmapi",
		Subsystem: "measure",
		Name:      "edge_meters",
		Help:      "Measured building edge lengths in meters",
		Buckets:   []float64{2, 5, 10, 20, 40, 80, 160, 320},
	}, []string{"edge"})

	MeasureDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "osmapi",
		Subsystem: "measure",
		Name:      "duration_seconds",
		Help:      "End-to-end measurement latency including upstream fetches",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	// Upstream provider metrics
	ProviderFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "osmapi",
		Subsystem: "provider",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of imagery and footprint provider calls",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"provider"})

	ProviderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "osmapi",
		Subsystem: "provider",
		Name:      "errors_total",
		Help:      "Total imagery and footprint provider errors",
	}, []string{"provider"})

	ProviderMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "osmapi",
		Subsystem: "provider",
		Name:      "misses_total",
		Help:      "Total footprint lookups a provider answered with no building",
	}, []string{"provider"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "osmapi",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "osmapi",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "osmapi",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "osmapi",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "osmapi",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics copies pgx pool counters into the db gauges.
func UpdateDBPoolMetrics(stat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
}) {
	DBPoolConnsAcquired.Set(float64(stat.AcquiredConns()))
	DBPoolConnsIdle.Set(float64(stat.IdleConns()))
	DBPoolConnsOpen.Set(float64(stat.TotalConns()))
}
