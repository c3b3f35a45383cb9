package export

import (
	"fmt"
	"image"
	"io"

	"github.com/gogpu/gg"

	"DrawStudio/internal/stroke"
)

// Flatten composes the canvas over its background colour. The canvas is
// transparent where nothing was drawn; the colour shows through there.
func Flatten(canvas image.Image, background string) (image.Image, error) {
	dc, err := flatten(canvas, background)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

func flatten(canvas image.Image, background string) (*gg.Context, error) {
	bg, err := stroke.ParseColor(background)
	if err != nil {
		return nil, err
	}
	b := canvas.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.SetColor(bg)
	dc.DrawRectangle(0, 0, float64(b.Dx()), float64(b.Dy()))
	if err := dc.Fill(); err != nil {
		return nil, err
	}
	dc.DrawImage(gg.ImageBufFromImage(canvas), 0, 0)
	return dc, nil
}

// WritePNG writes the canvas flattened over background as PNG.
func WritePNG(w io.Writer, canvas image.Image, background string) error {
	dc, err := flatten(canvas, background)
	if err != nil {
		return fmt.Errorf("export png: %w", err)
	}
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("export png: %w", err)
	}
	return nil
}
