package domain

import (
	"time"

	"github.com/hussainzaidi99/OSMAPI/internal/pkg/geospatial"
)

// FeetPerMeter converts metric lengths for the imperial response fields.
const FeetPerMeter = 3.28084

// GeoPoint is a latitude/longitude pair in degrees.
type GeoPoint = geospatial.GeoPoint

// Footprint sources reported in responses and metrics.
const (
	SourcePostGIS  = "postgis"
	SourceMapbox   = "mapbox"
	SourceOverpass = "overpass"
	SourceNone     = "none"
)

// Footprint is a building outline together with the provider that returned it.
type Footprint struct {
	Source string               `json:"source"`
	Ring   geospatial.Footprint `json:"ring"`
}

// Empty reports whether no outline was found.
func (f Footprint) Empty() bool {
	return len(f.Ring) == 0
}

// MeasureResult is the outcome of one measurement request.
type MeasureResult struct {
	Query    GeoPoint             `json:"query"`
	Source   string               `json:"source"`
	Estimate *geospatial.Estimate `json:"-"`
	Image    []byte               `json:"-"` // PNG
	Took     time.Duration        `json:"took"`
}

// LengthM returns the measured length, or nil on the fallback path.
func (r *MeasureResult) LengthM() *float64 {
	if r.Estimate == nil || r.Estimate.Measurement == nil {
		return nil
	}
	v := r.Estimate.Measurement.LengthM
	return &v
}

// WidthM returns the measured width, or nil on the fallback path.
func (r *MeasureResult) WidthM() *float64 {
	if r.Estimate == nil || r.Estimate.Measurement == nil {
		return nil
	}
	v := r.Estimate.Measurement.WidthM
	return &v
}

// MeasurementEvent is published after every completed measurement.
type MeasurementEvent struct {
	Time           time.Time `json:"time"`
	Query          GeoPoint  `json:"query"`
	Source         string    `json:"source"`
	Model          string    `json:"model"`
	Zoom           int       `json:"zoom"`
	LengthM        *float64  `json:"length_m"`
	WidthM         *float64  `json:"width_m"`
	Fallback       bool      `json:"fallback"`
	FallbackReason string    `json:"fallback_reason,omitempty"`
}

// NewMeasurementEvent summarises a result for publishing.
func NewMeasurementEvent(r *MeasureResult) *MeasurementEvent {
	ev := &MeasurementEvent{
		Time:    time.Now().UTC(),
		Query:   r.Query,
		Source:  r.Source,
		LengthM: r.LengthM(),
		WidthM:  r.WidthM(),
	}
	if r.Estimate != nil {
		ev.Model = r.Estimate.Model.String()
		ev.Zoom = r.Estimate.Frame.Zoom
		ev.Fallback = r.Estimate.IsFallback()
		ev.FallbackReason = r.Estimate.FallbackReason
	}
	return ev
}
