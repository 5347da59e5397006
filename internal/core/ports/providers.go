package ports

import (
	"context"
	"image"

	"github.com/hussainzaidi99/OSMAPI/internal/core/domain"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/geospatial"
)

// ImageryProvider returns a raster of exactly frame.Width x frame.Height pixels
// centred on frame.Center at frame.Zoom.
type ImageryProvider interface {
	Fetch(ctx context.Context, frame geospatial.Frame) (image.Image, error)
}

// FootprintProvider looks up the outline of the building at a point.
// A nil footprint with a nil error means the provider has no data there.
type FootprintProvider interface {
	Name() string
	Footprint(ctx context.Context, p domain.GeoPoint) (geospatial.Footprint, error)
}

// OverlayRenderer draws an estimate onto the base image and encodes the result.
type OverlayRenderer interface {
	Render(base image.Image, est *geospatial.Estimate) ([]byte, error)
}
