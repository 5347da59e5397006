package geospatial

import (
	"fmt"
	"math"
	"strings"
)

const (
	// EarthRadiusM is the mean sphere radius used by Haversine.
	EarthRadiusM = 6371000.0

	// EquatorialRadiusM is the WGS84 semi-major axis used by MetersPerPixel.
	EquatorialRadiusM = 6378137.0
)

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusM * c
}

// MetersPerPixel returns the ground resolution of one pixel at lat and zoom.
func MetersPerPixel(lat float64, zoom int) float64 {
	return math.Cos(toRad(lat)) * 2 * math.Pi * EquatorialRadiusM / WorldScale(zoom)
}

// DistanceModel selects how a pixel offset is converted to meters.
type DistanceModel int

const (
	// GreatCircle back-projects both endpoints and takes their haversine distance.
	GreatCircle DistanceModel = iota
	// LocalScale multiplies the pixel length by the ground resolution at the
	// frame centre. Only accurate for offsets of tens of meters.
	LocalScale
)

func (m DistanceModel) String() string {
	switch m {
	case GreatCircle:
		return "great_circle"
	case LocalScale:
		return "local_scale"
	default:
		return fmt.Sprintf("DistanceModel(%d)", int(m))
	}
}

// ParseDistanceModel accepts "great_circle" or "local_scale" (case-insensitive).
func ParseDistanceModel(s string) (DistanceModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "great_circle", "greatcircle", "haversine":
		return GreatCircle, nil
	case "local_scale", "localscale":
		return LocalScale, nil
	}
	return 0, fmt.Errorf("unknown distance model %q", s)
}

// Distance converts the pixel segment a-b into meters using model m.
func (f Frame) Distance(a, b PixelPoint, m DistanceModel) (float64, error) {
	if a.Frame != f || b.Frame != f {
		return 0, ErrFrameMismatch
	}

	switch m {
	case GreatCircle:
		ga, err := f.FromImagePixel(a)
		if err != nil {
			return 0, err
		}
		gb, err := f.FromImagePixel(b)
		if err != nil {
			return 0, err
		}
		return Haversine(ga.Lat, ga.Lon, gb.Lat, gb.Lon), nil
	case LocalScale:
		return b.Sub(a.Point).Len() * MetersPerPixel(f.Center.Lat, f.Zoom), nil
	default:
		return 0, fmt.Errorf("unknown distance model %d", int(m))
	}
}
