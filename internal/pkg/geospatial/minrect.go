package geospatial

import (
	"fmt"
	"math"
)

// areaTieTolerance is the relative margin within which two candidate areas are
// treated as equal. The earlier hull edge wins ties.
const areaTieTolerance = 1e-9

// OrientedRect is a rectangle in pixel space with counter-clockwise corners.
// Edge i runs from Corners[i] to Corners[(i+1)%4]; edge 0 is never shorter
// than edge 1.
type OrientedRect struct {
	Corners [4]Point `json:"corners"`
	// Angle of edge 0 against the +x axis, in degrees within [0, 180).
	Angle float64 `json:"angle"`
}

// Edge returns the endpoints of edge i (mod 4).
func (r OrientedRect) Edge(i int) (Point, Point) {
	i = ((i % 4) + 4) % 4
	return r.Corners[i], r.Corners[(i+1)%4]
}

// Length is the pixel length of edge 0.
func (r OrientedRect) Length() float64 {
	a, b := r.Edge(0)
	return b.Sub(a).Len()
}

// Width is the pixel length of edge 1.
func (r OrientedRect) Width() float64 {
	a, b := r.Edge(1)
	return b.Sub(a).Len()
}

// Area is the rectangle area in square pixels.
func (r OrientedRect) Area() float64 {
	return r.Length() * r.Width()
}

// Center is the intersection of the diagonals.
func (r OrientedRect) Center() Point {
	return r.Corners[0].Add(r.Corners[2]).Scale(0.5)
}

// MinAreaRect returns the minimum-area rectangle enclosing pts.
//
// The minimum rectangle has one side collinear with an edge of the convex hull,
// so every hull edge is tried as an orientation and the smallest axis-aligned
// box in that orientation wins.
func MinAreaRect(pts []Point) (OrientedRect, error) {
	for i, p := range pts {
		if !finite(p.X) || !finite(p.Y) {
			return OrientedRect{}, fmt.Errorf("%w: point %d is not finite", ErrDegenerateInput, i)
		}
	}

	hull := ConvexHull(pts)
	if len(hull) < 3 {
		return OrientedRect{}, fmt.Errorf("%w: %d distinct non-collinear points, need 3", ErrDegenerateInput, len(hull))
	}

	type candidate struct {
		origin, u, v           Point
		minU, maxU, minV, maxV float64
		area                   float64
	}

	var best *candidate
	n := len(hull)
	for i := 0; i < n; i++ {
		a, b := hull[i], hull[(i+1)%n]
		e := b.Sub(a)
		l := e.Len()
		if l == 0 {
			continue
		}
		u := e.Scale(1 / l)
		v := Point{X: -u.Y, Y: u.X}

		c := candidate{origin: a, u: u, v: v}
		c.minU, c.maxU = math.Inf(1), math.Inf(-1)
		c.minV, c.maxV = math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			d := p.Sub(a)
			pu, pv := d.Dot(u), d.Dot(v)
			c.minU, c.maxU = math.Min(c.minU, pu), math.Max(c.maxU, pu)
			c.minV, c.maxV = math.Min(c.minV, pv), math.Max(c.maxV, pv)
		}
		c.area = (c.maxU - c.minU) * (c.maxV - c.minV)

		if best == nil || c.area < best.area*(1-areaTieTolerance) {
			cc := c
			best = &cc
		}
	}

	if best == nil || math.Min(best.maxU-best.minU, best.maxV-best.minV) <= flatTolerance(hull) {
		return OrientedRect{}, fmt.Errorf("%w: hull encloses no area", ErrDegenerateInput)
	}

	at := func(s, t float64) Point {
		return best.origin.Add(best.u.Scale(s)).Add(best.v.Scale(t))
	}
	corners := [4]Point{
		at(best.minU, best.minV),
		at(best.maxU, best.minV),
		at(best.maxU, best.maxV),
		at(best.minU, best.maxV),
	}

	// rotate the start so edge 0 is the long side; winding is unchanged
	if best.maxU-best.minU < best.maxV-best.minV {
		corners = [4]Point{corners[1], corners[2], corners[3], corners[0]}
	}

	e0 := corners[1].Sub(corners[0])
	angle := toDeg(math.Atan2(e0.Y, e0.X))
	angle = math.Mod(angle+360, 180)

	return OrientedRect{Corners: corners, Angle: angle}, nil
}

// flatTolerance is the narrowest rectangle side still treated as having area.
// Projecting collinear coordinates leaves rounding noise far below it.
func flatTolerance(hull []Point) float64 {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range hull {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	span := math.Max(maxX-minX, maxY-minY)
	return 1e-6 * math.Max(span, 1)
}
