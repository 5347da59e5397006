package geospatial

import "fmt"

// DefaultLabelOffset is the distance in pixels between an edge and its label.
const DefaultLabelOffset = 12.0

// LabelAnchor is a piece of text positioned in pixel space.
type LabelAnchor struct {
	Position Point  `json:"position"`
	Text     string `json:"text"`
}

// LabelPosition returns the midpoint of p1-p2 shifted by offset pixels along
// the edge normal (-dy, dx)/L. A zero-length edge yields the unshifted midpoint.
func LabelPosition(p1, p2 Point, offset float64) Point {
	mid := p1.Add(p2).Scale(0.5)
	d := p2.Sub(p1)
	l := d.Len()
	if l == 0 {
		return mid
	}
	return Point{
		X: mid.X - d.Y/l*offset,
		Y: mid.Y + d.X/l*offset,
	}
}

// FormatMeters renders a distance the way edge labels show it.
func FormatMeters(m float64) string {
	return fmt.Sprintf("%.1f m", m)
}
