package usecases

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/hussainzaidi99/OSMAPI/internal/core/domain"
	"github.com/hussainzaidi99/OSMAPI/internal/core/ports"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/geospatial"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/metrics"
)

// ErrImageryUnavailable wraps failures of the imagery provider.
var ErrImageryUnavailable = errors.New("imagery unavailable")

var tracer = otel.Tracer("github.com/hussainzaidi99/OSMAPI/internal/core/usecases")

// MeasureOptions fixes the raster frame and the geometry settings.
type MeasureOptions struct {
	Zoom              int
	Width             int
	Height            int
	Model             geospatial.DistanceModel
	FallbackHalfSizeM float64
	LabelOffsetPx     float64
}

// DefaultMeasureOptions matches a 600x600 satellite tile at zoom 20.
func DefaultMeasureOptions() MeasureOptions {
	return MeasureOptions{
		Zoom:              20,
		Width:             600,
		Height:            600,
		Model:             geospatial.GreatCircle,
		FallbackHalfSizeM: geospatial.DefaultFallbackHalfSize,
		LabelOffsetPx:     geospatial.DefaultLabelOffset,
	}
}

// MeasureRequest is one query. A nil Model uses the service default.
type MeasureRequest struct {
	Point domain.GeoPoint
	Model *geospatial.DistanceModel
}

// MeasureService measures the building at a coordinate and renders the overlay.
type MeasureService struct {
	imagery  ports.ImageryProvider
	locator  *FootprintLocator
	renderer ports.OverlayRenderer
	events   ports.EventPublisher
	opts     MeasureOptions
}

// NewMeasureService creates a new MeasureService. renderer and events may be nil.
func NewMeasureService(imagery ports.ImageryProvider, locator *FootprintLocator, renderer ports.OverlayRenderer, events ports.EventPublisher, opts MeasureOptions) *MeasureService {
	return &MeasureService{
		imagery:  imagery,
		locator:  locator,
		renderer: renderer,
		events:   events,
		opts:     opts,
	}
}

// Options returns the service configuration.
func (s *MeasureService) Options() MeasureOptions {
	return s.opts
}

// Measure fetches imagery and a footprint concurrently, fits and measures the
// footprint (or falls back to a fixed box) and renders the annotated image.
func (s *MeasureService) Measure(ctx context.Context, req MeasureRequest) (*domain.MeasureResult, error) {
	start := time.Now()

	ctx, span := tracer.Start(ctx, "MeasureService.Measure")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("query.lat", req.Point.Lat),
		attribute.Float64("query.lon", req.Point.Lon),
	)

	frame, err := geospatial.NewFrame(req.Point, s.opts.Zoom, s.opts.Width, s.opts.Height)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var (
		base image.Image
		fp   domain.Footprint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ictx, ispan := tracer.Start(gctx, "imagery.Fetch")
		defer ispan.End()

		t := time.Now()
		img, err := s.imagery.Fetch(ictx, frame)
		metrics.ProviderFetchDuration.WithLabelValues("imagery").Observe(time.Since(t).Seconds())
		if err != nil {
			metrics.ProviderErrors.WithLabelValues("imagery").Inc()
			ispan.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("%w: %v", ErrImageryUnavailable, err)
		}
		base = img
		return nil
	})
	g.Go(func() error {
		lctx, lspan := tracer.Start(gctx, "footprint.Locate")
		defer lspan.End()

		found, err := s.locator.Locate(lctx, req.Point)
		if err != nil {
			return err
		}
		lspan.SetAttributes(attribute.String("footprint.source", found.Source))
		fp = found
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	cfg := geospatial.EstimateConfig{
		Model:             s.opts.Model,
		FallbackHalfSizeM: s.opts.FallbackHalfSizeM,
		LabelOffsetPx:     s.opts.LabelOffsetPx,
	}
	if req.Model != nil {
		cfg.Model = *req.Model
	}

	est, err := geospatial.Analyze(frame, fp.Ring, cfg)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("analyze footprint: %w", err)
	}

	result := &domain.MeasureResult{
		Query:    req.Point,
		Source:   fp.Source,
		Estimate: est,
	}
	if est.IsFallback() {
		result.Source = domain.SourceNone
		metrics.FallbacksTotal.WithLabelValues(est.FallbackReason).Inc()
		slog.InfoContext(ctx, "no usable footprint, drawing fallback box",
			"point", req.Point.String(), "reason", est.FallbackReason, "provider", fp.Source)
	} else {
		metrics.MeasuredEdgeMeters.WithLabelValues("length").Observe(est.Measurement.LengthM)
		metrics.MeasuredEdgeMeters.WithLabelValues("width").Observe(est.Measurement.WidthM)
	}

	if s.renderer != nil {
		png, err := s.renderer.Render(base, est)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("render overlay: %w", err)
		}
		result.Image = png
	}

	result.Took = time.Since(start)
	metrics.MeasurementsTotal.WithLabelValues(result.Source, cfg.Model.String()).Inc()
	metrics.MeasureDuration.Observe(result.Took.Seconds())
	span.SetAttributes(
		attribute.String("footprint.source", result.Source),
		attribute.Bool("fallback", est.IsFallback()),
	)

	if s.events != nil {
		if err := s.events.PublishMeasurement(ctx, domain.NewMeasurementEvent(result)); err != nil {
			slog.WarnContext(ctx, "publish measurement event failed", "error", err)
		}
	}

	return result, nil
}
