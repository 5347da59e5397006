package geospatial

import (
	"fmt"
	"math"
)

const (
	// TileSize is the edge length of one raster tile in pixels.
	TileSize = 256

	// MaxZoom is the deepest zoom level the projection accepts.
	MaxZoom = 30

	// sinLatLimit keeps the Mercator y finite at the poles.
	sinLatLimit = 0.9999
)

// WorldScale returns the width of the whole world in pixels at zoom.
func WorldScale(zoom int) float64 {
	return TileSize * math.Exp2(float64(zoom))
}

func validateZoom(zoom int) error {
	if zoom < 0 || zoom > MaxZoom {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidZoom, zoom, MaxZoom)
	}
	return nil
}

// ToWorld projects g to Web-Mercator world pixel coordinates at zoom.
func ToWorld(g GeoPoint, zoom int) (x, y float64, err error) {
	if err := g.Validate(); err != nil {
		return 0, 0, err
	}
	if err := validateZoom(zoom); err != nil {
		return 0, 0, err
	}
	x, y = worldXY(g, zoom)
	return x, y, nil
}

// worldXY skips the range check. x keeps growing past ±180 and latitude is
// clamped, so points just outside the valid range still project continuously.
func worldXY(g GeoPoint, zoom int) (x, y float64) {
	siny := math.Sin(toRad(g.Lat))
	siny = math.Min(math.Max(siny, -sinLatLimit), sinLatLimit)
	scale := WorldScale(zoom)

	x = (g.Lon + 180) / 360 * scale
	y = (0.5 - math.Log((1+siny)/(1-siny))/(4*math.Pi)) * scale
	return x, y
}

// FromWorld is the inverse of ToWorld.
func FromWorld(x, y float64, zoom int) GeoPoint {
	scale := WorldScale(zoom)
	yNorm := 0.5 - y/scale
	return GeoPoint{
		Lat: toDeg(2*math.Atan(math.Exp(4*math.Pi*yNorm)) - math.Pi/2),
		Lon: x/scale*360 - 180,
	}
}

// Frame identifies an image raster centred on Center at Zoom with the given
// pixel size. Pixel coordinates are only meaningful inside their frame.
type Frame struct {
	Center GeoPoint `json:"center"`
	Zoom   int      `json:"zoom"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
}

// NewFrame validates its arguments and returns a Frame.
func NewFrame(center GeoPoint, zoom, width, height int) (Frame, error) {
	if err := center.Validate(); err != nil {
		return Frame{}, err
	}
	if err := validateZoom(zoom); err != nil {
		return Frame{}, err
	}
	if width <= 0 || height <= 0 {
		return Frame{}, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	return Frame{Center: center, Zoom: zoom, Width: width, Height: height}, nil
}

// PixelPoint is a Point tagged with the frame it was computed in.
type PixelPoint struct {
	Point
	Frame Frame `json:"-"`
}

// At tags a raw point with the frame.
func (f Frame) At(p Point) PixelPoint {
	return PixelPoint{Point: p, Frame: f}
}

func (f Frame) centerWorld() (float64, float64, error) {
	return ToWorld(f.Center, f.Zoom)
}

// ToImagePixel projects g into the frame's image pixel space.
func (f Frame) ToImagePixel(g GeoPoint) (PixelPoint, error) {
	wx, wy, err := ToWorld(g, f.Zoom)
	if err != nil {
		return PixelPoint{}, err
	}
	cx, cy, err := f.centerWorld()
	if err != nil {
		return PixelPoint{}, err
	}
	return f.At(Point{
		X: wx - cx + float64(f.Width)/2,
		Y: wy - cy + float64(f.Height)/2,
	}), nil
}

// FromImagePixel is the inverse of ToImagePixel.
func (f Frame) FromImagePixel(p PixelPoint) (GeoPoint, error) {
	if p.Frame != f {
		return GeoPoint{}, ErrFrameMismatch
	}
	cx, cy, err := f.centerWorld()
	if err != nil {
		return GeoPoint{}, err
	}
	wx := cx + (p.X - float64(f.Width)/2)
	wy := cy + (p.Y - float64(f.Height)/2)
	return FromWorld(wx, wy, f.Zoom), nil
}

// Project maps every vertex of the footprint into the frame.
func (f Frame) Project(fp Footprint) ([]PixelPoint, error) {
	out := make([]PixelPoint, 0, len(fp))
	for i, g := range fp {
		p, err := f.ToImagePixel(g)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// projectOverflowing maps points that may lie slightly outside the coordinate
// range, such as fallback corners next to the antimeridian or a pole.
func (f Frame) projectOverflowing(pts []GeoPoint) ([]Point, error) {
	cx, cy, err := f.centerWorld()
	if err != nil {
		return nil, err
	}
	out := make([]Point, len(pts))
	for i, g := range pts {
		if !finite(g.Lat) || !finite(g.Lon) {
			return nil, fmt.Errorf("%w: vertex %d is not finite", ErrInvalidCoordinate, i)
		}
		wx, wy := worldXY(g, f.Zoom)
		out[i] = Point{
			X: wx - cx + float64(f.Width)/2,
			Y: wy - cy + float64(f.Height)/2,
		}
	}
	return out, nil
}

// Points strips the frame tags. Every point must belong to f.
func (f Frame) Points(pts []PixelPoint) ([]Point, error) {
	out := make([]Point, len(pts))
	for i, p := range pts {
		if p.Frame != f {
			return nil, ErrFrameMismatch
		}
		out[i] = p.Point
	}
	return out, nil
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
