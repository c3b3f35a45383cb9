package ui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

// boardRenderer shows the raster canvas over a rectangle of the background
// colour; the canvas is transparent where nothing was drawn.
type boardRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
	raster     *canvas.Raster
}

func newBoardRenderer(b *BoardWidget) *boardRenderer {
	r := &boardRenderer{
		board:      b,
		background: canvas.NewRectangle(b.bgColor),
	}
	r.raster = canvas.NewRaster(func(int, int) image.Image {
		return b.studio.Image()
	})
	r.raster.ScaleMode = canvas.ImageScaleSmooth
	return r
}

func (r *boardRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.background, r.raster}
}

func (r *boardRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	r.raster.Resize(size)
}

// MinSize is the canvas size in device-independent units, so the layout box
// matches the backing store at scale 1.
func (r *boardRenderer) MinSize() fyne.Size {
	return fyne.NewSize(float32(r.board.Width()), float32(r.board.Height()))
}

func (r *boardRenderer) Refresh() {
	r.background.FillColor = r.board.bgColor
	r.background.Refresh()
	r.raster.Refresh()
}

func (r *boardRenderer) Destroy() {}
