package geospatial

import (
	"fmt"
	"math"
)

// GeoPoint is a WGS84 latitude/longitude pair in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether the point lies inside the valid coordinate range.
func (g GeoPoint) Validate() error {
	if !finite(g.Lat) || !finite(g.Lon) {
		return fmt.Errorf("%w: non-finite value (%v, %v)", ErrInvalidCoordinate, g.Lat, g.Lon)
	}
	if g.Lat < -90 || g.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidCoordinate, g.Lat)
	}
	if g.Lon < -180 || g.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidCoordinate, g.Lon)
	}
	return nil
}

func (g GeoPoint) String() string {
	return fmt.Sprintf("%.7f,%.7f", g.Lat, g.Lon)
}

// Footprint is a building outline ring. The closing vertex may or may not be
// repeated. An empty footprint means no outline was found.
type Footprint []GeoPoint

// Distinct returns the number of distinct vertices in the ring.
func (f Footprint) Distinct() int {
	seen := make(map[GeoPoint]struct{}, len(f))
	for _, p := range f {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// Point is a planar coordinate in continuous (sub-pixel) units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Scale returns p * k.
func (p Point) Scale(k float64) Point { return Point{p.X * k, p.Y * k} }

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y }

// Len returns the Euclidean length of p.
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }

// cross returns the z component of (a-o) x (b-o).
func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
