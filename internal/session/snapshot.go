package session

import (
	"bytes"
	"image"

	"github.com/gogpu/gg"

	"DrawStudio/internal/compositor"
	"DrawStudio/internal/state"
	"DrawStudio/internal/stroke"
)

// Context is the raster drawing context a session paints on.
// *gg.Context implements it.
type Context interface {
	stroke.Painter
	compositor.Target
	ResizeTarget() *gg.Pixmap
}

var _ Context = (*gg.Context)(nil)

// Snapshot is a copy of the canvas pixels (RGBA, row-major).
type Snapshot struct {
	Width, Height int
	Pix           []byte
}

// Take copies the current pixels of ctx.
func Take(ctx Context) Snapshot {
	pm := ctx.ResizeTarget()
	return Snapshot{Width: pm.Width(), Height: pm.Height(), Pix: bytes.Clone(pm.Data())}
}

// Restore writes the snapshot back into ctx. If the canvas has been resized
// since, the snapshot is scaled into it.
func (s Snapshot) Restore(ctx Context) {
	pm := ctx.ResizeTarget()
	if pm.Width() == s.Width && pm.Height() == s.Height {
		copy(pm.Data(), s.Pix)
		return
	}
	ctx.Clear()
	if s.Width == 0 || s.Height == 0 {
		return
	}
	ctx.DrawImageEx(gg.ImageBufFromImage(s.Image()), gg.DrawImageOptions{
		DstWidth:      float64(ctx.Width()),
		DstHeight:     float64(ctx.Height()),
		Interpolation: gg.InterpBilinear,
		Opacity:       1,
		BlendMode:     gg.BlendNormal,
	})
}

// Image returns the snapshot as an image sharing its pixels.
func (s Snapshot) Image() *image.RGBA {
	return &image.RGBA{Pix: s.Pix, Stride: 4 * s.Width, Rect: image.Rect(0, 0, s.Width, s.Height)}
}

// Entry is one history entry: the action and the canvas right after it.
// The base entry has a zero Action.
type Entry struct {
	Action   state.DrawAction
	Snapshot Snapshot
}
