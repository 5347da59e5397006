package geospatial

import "fmt"

// Measurement holds the real-world lengths of two adjacent rectangle edges.
type Measurement struct {
	LengthM float64 `json:"length_m"`
	WidthM  float64 `json:"width_m"`
}

// MeasureEdge converts the pixel edge p1-p2 to meters.
func (f Frame) MeasureEdge(p1, p2 PixelPoint, m DistanceModel) (float64, error) {
	return f.Distance(p1, p2, m)
}

// MeasureRect measures edge 0 as length and edge 1 as width, both with m.
func (f Frame) MeasureRect(r OrientedRect, m DistanceModel) (Measurement, error) {
	a, b := r.Edge(0)
	length, err := f.MeasureEdge(f.At(a), f.At(b), m)
	if err != nil {
		return Measurement{}, fmt.Errorf("measure length: %w", err)
	}
	a, b = r.Edge(1)
	width, err := f.MeasureEdge(f.At(a), f.At(b), m)
	if err != nil {
		return Measurement{}, fmt.Errorf("measure width: %w", err)
	}
	return Measurement{LengthM: length, WidthM: width}, nil
}
