// Package stroke paints stroke geometry onto a raster drawing context.
//
// Every function builds exactly one path and fills or strokes it once, so a
// polyline never shows seams at its joins. Nothing outside the arguments is
// read, so independent contexts can be painted from different goroutines.
package stroke

import (
	"fmt"
	"image/color"

	"github.com/gogpu/gg"

	"DrawStudio/internal/geometry"
)

// Painter is the part of a raster drawing context the renderer uses.
// *gg.Context implements it.
type Painter interface {
	ClearPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	QuadraticTo(cx, cy, x, y float64)
	DrawCircle(x, y, r float64)
	SetColor(c color.Color)
	SetLineWidth(width float64)
	SetLineCap(lineCap gg.LineCap)
	SetLineJoin(join gg.LineJoin)
	Stroke() error
	Fill() error
}

var _ Painter = (*gg.Context)(nil)

func begin(p Painter, col string) error {
	c, err := ParseColor(col)
	if err != nil {
		return err
	}
	p.ClearPath()
	p.SetColor(c)
	return nil
}

func strokeStyle(p Painter, width float64) {
	p.SetLineWidth(width)
	p.SetLineCap(gg.LineCapRound)
	p.SetLineJoin(gg.LineJoinRound)
}

// PaintStroke draws positions as one connected polyline with round caps and
// joins. Fewer than two positions paint nothing.
func PaintStroke(p Painter, positions []geometry.Position, width float64, col string) error {
	if len(positions) < 2 {
		return nil
	}
	if err := begin(p, col); err != nil {
		return err
	}
	p.MoveTo(positions[0].X, positions[0].Y)
	for _, pos := range positions[1:] {
		p.LineTo(pos.X, pos.Y)
	}
	strokeStyle(p, width)
	if err := p.Stroke(); err != nil {
		return fmt.Errorf("stroke polyline: %w", err)
	}
	return nil
}

// PaintSmoothStroke draws positions as one curve: straight to the first
// midpoint, quadratic segments between midpoints with the recorded points as
// control points, straight to the last point.
func PaintSmoothStroke(p Painter, positions []geometry.Position, width float64, col string) error {
	if len(positions) < 3 {
		return PaintStroke(p, positions, width, col)
	}
	if err := begin(p, col); err != nil {
		return err
	}
	first := positions[0]
	p.MoveTo(first.X, first.Y)
	m := Midpoint(first, positions[1])
	p.LineTo(m.X, m.Y)
	for i := 1; i < len(positions)-1; i++ {
		ctl := positions[i]
		m = Midpoint(ctl, positions[i+1])
		p.QuadraticTo(ctl.X, ctl.Y, m.X, m.Y)
	}
	last := positions[len(positions)-1]
	p.LineTo(last.X, last.Y)
	strokeStyle(p, width)
	if err := p.Stroke(); err != nil {
		return fmt.Errorf("stroke curve: %w", err)
	}
	return nil
}

// PaintSmoothTail paints the part of a smoothed stroke that becomes final
// once the newest point of positions is known: from the midpoint before the
// previous point, around it, to the midpoint before the newest one.
// Drawn after every appended point it reproduces PaintSmoothStroke up to the
// last midpoint; PaintSmoothEnd closes the rest.
func PaintSmoothTail(p Painter, positions []geometry.Position, width float64, col string) error {
	n := len(positions)
	switch {
	case n < 2:
		return nil
	case n == 2:
		return PaintStroke(p, []geometry.Position{positions[0], Midpoint(positions[0], positions[1])}, width, col)
	}
	if err := begin(p, col); err != nil {
		return err
	}
	from := Midpoint(positions[n-3], positions[n-2])
	ctl := positions[n-2]
	to := Midpoint(positions[n-2], positions[n-1])
	p.MoveTo(from.X, from.Y)
	p.QuadraticTo(ctl.X, ctl.Y, to.X, to.Y)
	strokeStyle(p, width)
	if err := p.Stroke(); err != nil {
		return fmt.Errorf("stroke curve: %w", err)
	}
	return nil
}

// PaintSmoothEnd paints the straight run from the last midpoint to the last
// point of a smoothed stroke.
func PaintSmoothEnd(p Painter, positions []geometry.Position, width float64, col string) error {
	n := len(positions)
	if n < 2 {
		return nil
	}
	last := positions[n-1]
	return PaintStroke(p, []geometry.Position{Midpoint(positions[n-2], last), last}, width, col)
}

// PaintPoint fills a circle of diameter size centred on pos.
func PaintPoint(p Painter, pos geometry.Position, size float64, col string) error {
	return PaintPoints(p, []geometry.Position{pos}, size, col)
}

// PaintPoints fills a circle of diameter size at every position.
func PaintPoints(p Painter, positions []geometry.Position, size float64, col string) error {
	if len(positions) == 0 {
		return nil
	}
	if err := begin(p, col); err != nil {
		return err
	}
	for _, pos := range positions {
		p.DrawCircle(pos.X, pos.Y, size/2)
		if err := p.Fill(); err != nil {
			return fmt.Errorf("fill point: %w", err)
		}
	}
	return nil
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b geometry.Position) geometry.Position {
	return geometry.Position{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}
