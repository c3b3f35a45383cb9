package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DrawStudio/internal/geometry"
	"DrawStudio/internal/state"
)

func action(mode state.ActionMode, pts ...geometry.Position) state.DrawAction {
	return state.DrawAction{ID: string(mode), Mode: mode, LineWidth: 3, Color: "#E53935", Positions: pts}
}

func TestVisible(t *testing.T) {
	a := action(state.ActionPencil, geometry.Pos(0, 0), geometry.Pos(1, 1))
	reset := state.DrawAction{ID: "r", Mode: state.ActionReset}
	bg := state.DrawAction{ID: "bg", Mode: state.ActionBackground, Image: &state.Image{URL: "x.png"}}
	b := action(state.ActionPen, geometry.Pos(2, 2))

	assert.Len(t, Visible([]state.DrawAction{a, b}), 2)
	assert.Equal(t, []state.DrawAction{b}, Visible([]state.DrawAction{a, reset, b}))
	assert.Equal(t, []state.DrawAction{b}, Visible([]state.DrawAction{reset, a, bg, b}))
	assert.Empty(t, Visible([]state.DrawAction{a, reset}))
}

func TestWritePDF(t *testing.T) {
	actions := []state.DrawAction{
		action(state.ActionPencil, geometry.Pos(10, 10), geometry.Pos(200, 150)),
		action(state.ActionPen, geometry.Pos(10, 10), geometry.Pos(50, 80), geometry.Pos(90, 10), geometry.Pos(130, 80)),
		action(state.ActionPencil, geometry.Pos(250, 250)),
	}
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, actions, PDFOptions{Width: 500, Height: 500, Title: "drawing"}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "%%EOF")
}

func TestWritePDFErrors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WritePDF(&buf, nil, PDFOptions{Width: 0, Height: 10}))
	assert.Error(t, WritePDF(&buf, nil, PDFOptions{Width: 10, Height: 10, Background: "nope"}))

	bad := action(state.ActionPencil, geometry.Pos(0, 0), geometry.Pos(5, 5))
	bad.Color = "nope"
	assert.Error(t, WritePDF(&buf, []state.DrawAction{bad}, PDFOptions{Width: 10, Height: 10}))
}

func TestPDFPainterScales(t *testing.T) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	p := &pdfPainter{pdf: pdf, scale: 0.5, dx: 10, dy: 20}

	assert.Equal(t, 15.0, p.x(10))
	assert.Equal(t, 25.0, p.y(10))

	p.DrawCircle(4, 4, 2)
	require.Len(t, p.circles, 1)
	assert.Equal(t, [3]float64{12, 22, 1}, p.circles[0])
	require.NoError(t, p.Fill())
	assert.Empty(t, p.circles)

	p.MoveTo(0, 0)
	p.LineTo(10, 10)
	require.NoError(t, p.Stroke())
	assert.False(t, p.hasPath)
}

func TestFlatten(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 4, 4))
	canvas.Set(1, 1, color.RGBA{R: 255, A: 255})

	img, err := Flatten(canvas, "#0000FF")
	require.NoError(t, err)

	r, _, b, a := img.At(1, 1).RGBA()
	assert.Greater(t, r, uint32(0xf000), "drawn pixel covers the background")
	assert.Less(t, b, uint32(0x1000))
	assert.Greater(t, a, uint32(0xf000))
	r, _, b, a = img.At(3, 3).RGBA()
	assert.Less(t, r, uint32(0x1000))
	assert.Greater(t, b, uint32(0xf000), "background shows through")
	assert.Greater(t, a, uint32(0xf000))

	_, err = Flatten(canvas, "bogus")
	assert.Error(t, err)
}

func TestWritePNG(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 6, 3))
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, canvas, "white"))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 6, 3), img.Bounds())
	_, _, _, a := img.At(2, 2).RGBA()
	assert.Greater(t, a, uint32(0xf000))
}
