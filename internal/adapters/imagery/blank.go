package imagery

import (
	"context"
	"image"
	"image/color"
	"image/draw"

	"github.com/hussainzaidi99/OSMAPI/internal/pkg/geospatial"
)

// Blank implements ports.ImageryProvider with a solid canvas. Used when no
// imagery key is configured and in tests.
type Blank struct {
	Color color.Color
}

// NewBlank returns a Blank provider painting a neutral grey.
func NewBlank() *Blank {
	return &Blank{Color: color.RGBA{R: 0x60, G: 0x66, B: 0x60, A: 0xff}}
}

// Fetch returns a frame-sized image filled with b.Color.
func (b *Blank) Fetch(ctx context.Context, frame geospatial.Frame) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(b.Color), image.Point{}, draw.Src)
	return img, nil
}
