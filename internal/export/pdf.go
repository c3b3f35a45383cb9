// Package export writes the drawing out: the canvas pixels as PNG, and the
// committed strokes replayed as vector paths into a PDF page.
package export

import (
	"fmt"
	"io"
	"math"

	"github.com/jung-kurt/gofpdf"

	"DrawStudio/internal/state"
	"DrawStudio/internal/stroke"
)

// Page geometry of the PDF export, in millimetres (A4 landscape).
const (
	pageWidth  = 297.0
	pageHeight = 210.0
	pageMargin = 10.0
)

// PDFOptions describes the canvas the actions were drawn on.
type PDFOptions struct {
	Width, Height int
	// Background fills the canvas area. Empty means white.
	Background string
	Title      string
}

// Visible returns the actions that still show on the canvas: everything
// after the last reset or background draw, which both wipe the canvas.
func Visible(actions []state.DrawAction) []state.DrawAction {
	start := 0
	for i, a := range actions {
		if a.Mode == state.ActionReset || a.Mode == state.ActionBackground {
			start = i + 1
		}
	}
	return actions[start:]
}

// WritePDF replays the visible stroke actions onto one A4 landscape page,
// scaled to fit inside the margins and centred. Background images are not
// part of the replay.
func WritePDF(w io.Writer, actions []state.DrawAction, opts PDFOptions) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("export pdf: canvas size %dx%d", opts.Width, opts.Height)
	}
	bg := opts.Background
	if bg == "" {
		bg = "#FFFFFF"
	}
	bgColor, err := stroke.ParseColor(bg)
	if err != nil {
		return fmt.Errorf("export pdf: %w", err)
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	pdf.SetCreator("DrawStudio", true)
	pdf.AddPage()

	cw, ch := float64(opts.Width), float64(opts.Height)
	scale := math.Min((pageWidth-2*pageMargin)/cw, (pageHeight-2*pageMargin)/ch)
	p := &pdfPainter{
		pdf:   pdf,
		scale: scale,
		dx:    (pageWidth - cw*scale) / 2,
		dy:    (pageHeight - ch*scale) / 2,
	}

	p.SetColor(bgColor)
	pdf.Rect(p.dx, p.dy, cw*scale, ch*scale, "F")
	pdf.ClipRect(p.dx, p.dy, cw*scale, ch*scale, false)

	for _, a := range Visible(actions) {
		if err := replay(p, a); err != nil {
			return fmt.Errorf("export pdf: action %s: %w", a.ID, err)
		}
	}
	pdf.ClipEnd()
	pdf.SetAlpha(1, "Normal")
	return pdf.Output(w)
}

func replay(p stroke.Painter, a state.DrawAction) error {
	if !a.Mode.IsStroke() {
		return nil
	}
	switch {
	case len(a.Positions) == 1:
		return stroke.PaintPoint(p, a.Positions[0], a.LineWidth, a.Color)
	case a.Mode == state.ActionPen:
		return stroke.PaintSmoothStroke(p, a.Positions, a.LineWidth, a.Color)
	default:
		return stroke.PaintStroke(p, a.Positions, a.LineWidth, a.Color)
	}
}
