package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/hussainzaidi99/OSMAPI/internal/pkg/geospatial"
)

var (
	Red       = color.RGBA{R: 0xff, A: 0xff}
	Blue      = color.RGBA{B: 0xff, A: 0xff}
	White     = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	LabelFill = color.NRGBA{A: 160}
)

// Style holds stroke widths in pixels and the label padding.
type Style struct {
	OutlineWidth float32
	EdgeWidth    float32
	LabelPadding int
}

// DefaultStyle draws a 2 px outline and 4 px measured edges.
func DefaultStyle() Style {
	return Style{OutlineWidth: 2, EdgeWidth: 4, LabelPadding: 2}
}

// Overlay implements ports.OverlayRenderer and encodes PNG.
type Overlay struct {
	style Style
	face  font.Face
}

// NewOverlay creates an Overlay using the fixed 7x13 bitmap face.
func NewOverlay(style Style) *Overlay {
	return &Overlay{style: style, face: basicfont.Face7x13}
}

// Render copies base, draws the estimate on top and returns the PNG bytes.
// A nil base renders onto a transparent canvas of the frame size.
func (o *Overlay) Render(base image.Image, est *geospatial.Estimate) ([]byte, error) {
	if est == nil {
		return nil, fmt.Errorf("render: nil estimate")
	}

	bounds := image.Rect(0, 0, est.Frame.Width, est.Frame.Height)
	dst := image.NewRGBA(bounds)
	if base != nil {
		draw.Draw(dst, bounds, base, base.Bounds().Min, draw.Src)
	}

	if len(est.Outline) > 1 {
		o.polyline(dst, est.Outline, true, o.style.OutlineWidth, Red)
	}

	if est.Rect != nil {
		for i := 0; i < 2; i++ {
			a, b := est.Rect.Edge(i)
			o.polyline(dst, []geospatial.Point{a, b}, false, o.style.EdgeWidth, Blue)
		}
	}

	if len(est.Fallback) > 0 {
		o.polyline(dst, est.Fallback, true, o.style.OutlineWidth, Red)
	}

	for _, l := range est.Labels {
		o.label(dst, l)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// polyline strokes consecutive segments as filled quads with square caps at
// every vertex.
func (o *Overlay) polyline(dst *image.RGBA, pts []geospatial.Point, closed bool, width float32, c color.Color) {
	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	half := float64(width) / 2

	n := len(pts)
	segs := n - 1
	if closed {
		segs = n
	}
	for i := 0; i < segs; i++ {
		p, q := pts[i], pts[(i+1)%n]
		d := q.Sub(p)
		l := d.Len()
		if l == 0 {
			continue
		}
		// normal and extension by half the width
		nx, ny := -d.Y/l*half, d.X/l*half
		ex, ey := d.X/l*half, d.Y/l*half
		z.MoveTo(float32(p.X-ex+nx), float32(p.Y-ey+ny))
		z.LineTo(float32(q.X+ex+nx), float32(q.Y+ey+ny))
		z.LineTo(float32(q.X+ex-nx), float32(q.Y+ey-ny))
		z.LineTo(float32(p.X-ex-nx), float32(p.Y-ey-ny))
		z.ClosePath()
	}
	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}

// label draws text on a translucent box centred on the anchor.
func (o *Overlay) label(dst *image.RGBA, l geospatial.LabelAnchor) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(White), Face: o.face}
	m := o.face.Metrics()

	tw := d.MeasureString(l.Text).Round()
	th := (m.Ascent + m.Descent).Round()
	cx, cy := int(l.Position.X+0.5), int(l.Position.Y+0.5)

	x0, y0 := cx-tw/2, cy-th/2
	pad := o.style.LabelPadding
	box := image.Rect(x0-pad, y0-pad, x0+tw+pad, y0+th+pad)
	draw.Draw(dst, box.Intersect(dst.Bounds()), image.NewUniform(LabelFill), image.Point{}, draw.Over)

	d.Dot = fixed.P(x0, y0+m.Ascent.Round())
	d.DrawString(l.Text)
}
