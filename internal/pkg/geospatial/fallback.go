package geospatial

import (
	"fmt"
	"math"
)

// MetersPerDegree is the flat-earth length of one degree of latitude.
const MetersPerDegree = 111320.0

// DefaultFallbackHalfSize is the half edge of the fallback square in meters.
const DefaultFallbackHalfSize = 20.0

// maxMercatorLat is the latitude where the projection's sine clamp starts.
var maxMercatorLat = toDeg(math.Asin(sinLatLimit))

// FallbackBox returns an axis-aligned square of half edge halfSizeM meters around
// center, as SW, SE, NE, NW. It is a flat-earth approximation and only valid for
// tens of meters. Corners are not wrapped, so near the antimeridian or a pole
// they may fall outside [-180, 180] or [-90, 90]. The longitude scale uses the
// latitude clamped to the Mercator limit so the box stays finite at the poles.
func FallbackBox(center GeoPoint, halfSizeM float64) ([4]GeoPoint, error) {
	if err := center.Validate(); err != nil {
		return [4]GeoPoint{}, err
	}
	if !finite(halfSizeM) || halfSizeM < 0 {
		return [4]GeoPoint{}, fmt.Errorf("invalid fallback half size %v", halfSizeM)
	}

	lat := math.Min(math.Max(center.Lat, -maxMercatorLat), maxMercatorLat)
	cosLat := math.Cos(toRad(lat))

	latDelta := halfSizeM / MetersPerDegree
	lonDelta := halfSizeM / (MetersPerDegree * cosLat)

	sw := GeoPoint{Lat: center.Lat - latDelta, Lon: center.Lon - lonDelta}
	ne := GeoPoint{Lat: center.Lat + latDelta, Lon: center.Lon + lonDelta}
	return [4]GeoPoint{
		sw,
		{Lat: sw.Lat, Lon: ne.Lon},
		ne,
		{Lat: ne.Lat, Lon: sw.Lon},
	}, nil
}
