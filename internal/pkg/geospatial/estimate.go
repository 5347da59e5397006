package geospatial

import (
	"errors"
	"fmt"
)

// Reasons reported when the fallback box replaces a measurement.
const (
	FallbackNoFootprint         = "no_footprint"
	FallbackDegenerateFootprint = "degenerate_footprint"
)

// EstimateConfig carries the knobs of Analyze. It holds no service settings.
type EstimateConfig struct {
	Model             DistanceModel
	FallbackHalfSizeM float64
	LabelOffsetPx     float64
}

// DefaultEstimateConfig mirrors the defaults of the measurement service.
func DefaultEstimateConfig() EstimateConfig {
	return EstimateConfig{
		Model:             GreatCircle,
		FallbackHalfSizeM: DefaultFallbackHalfSize,
		LabelOffsetPx:     DefaultLabelOffset,
	}
}

// Estimate is everything a renderer and an API response need for one query.
type Estimate struct {
	Frame       Frame
	Model       DistanceModel
	Outline     []Point
	Rect        *OrientedRect
	Measurement *Measurement
	Labels      []LabelAnchor

	// Set when no rectangle could be fitted.
	Fallback       []Point
	FallbackReason string
}

// IsFallback reports whether the estimate carries the fallback square.
func (e *Estimate) IsFallback() bool {
	return e.Measurement == nil
}

// Analyze fits and measures the footprint inside frame. A missing or degenerate
// footprint produces the fallback square instead of an error; only invalid
// coordinates are returned as errors.
func Analyze(frame Frame, fp Footprint, cfg EstimateConfig) (*Estimate, error) {
	est := &Estimate{Frame: frame, Model: cfg.Model}

	if len(fp) > 0 {
		pix, err := frame.Project(fp)
		if err != nil {
			return nil, fmt.Errorf("project footprint: %w", err)
		}
		est.Outline, err = frame.Points(pix)
		if err != nil {
			return nil, err
		}
	}

	if fp.Distinct() < 3 {
		return withFallback(est, cfg, FallbackNoFootprint)
	}

	rect, err := MinAreaRect(est.Outline)
	if errors.Is(err, ErrDegenerateInput) {
		return withFallback(est, cfg, FallbackDegenerateFootprint)
	}
	if err != nil {
		return nil, err
	}

	m, err := frame.MeasureRect(rect, cfg.Model)
	if err != nil {
		return nil, err
	}

	est.Rect = &rect
	est.Measurement = &m
	a, b := rect.Edge(0)
	est.Labels = append(est.Labels, LabelAnchor{
		Position: LabelPosition(a, b, cfg.LabelOffsetPx),
		Text:     FormatMeters(m.LengthM),
	})
	a, b = rect.Edge(1)
	est.Labels = append(est.Labels, LabelAnchor{
		Position: LabelPosition(a, b, cfg.LabelOffsetPx),
		Text:     FormatMeters(m.WidthM),
	})
	return est, nil
}

func withFallback(est *Estimate, cfg EstimateConfig, reason string) (*Estimate, error) {
	box, err := FallbackBox(est.Frame.Center, cfg.FallbackHalfSizeM)
	if err != nil {
		return nil, fmt.Errorf("fallback box: %w", err)
	}
	est.Fallback, err = est.Frame.projectOverflowing(box[:])
	if err != nil {
		return nil, fmt.Errorf("project fallback box: %w", err)
	}
	est.FallbackReason = reason
	return est, nil
}
