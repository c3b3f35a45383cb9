// Package geometry maps pointer input from the on-screen layout box of a
// canvas into its backing-store pixel space, and answers containment and
// edge-clipping questions about it.
//
// Two coordinate spaces are involved and are kept apart on purpose:
//
//   - client space: on-screen coordinates as reported by the UI layer. The
//     layout box of the canvas (Rect) lives here and inside tests compare
//     against it.
//   - backing-store space: pixel coordinates of the raster buffer, [0,W]×[0,H].
//     Stroke positions and edge clipping live here.
package geometry

import "math"

// Position is a point in backing-store pixel space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pos is shorthand for Position{X: x, Y: y}.
func Pos(x, y float64) Position {
	return Position{X: x, Y: y}
}

// Rect is the layout box of a canvas in client space.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Right returns the right edge of the box.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the bottom edge of the box.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Contains reports whether (x, y) lies in the box. Edges are inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Right() &&
		y >= r.Top && y <= r.Bottom()
}

// Canvas is what the geometry functions need to know about a canvas: where it
// sits on screen right now and how large its raster buffer is.
// *gg.Context provides Width and Height; the UI layer adds ClientRect.
type Canvas interface {
	ClientRect() Rect
	Width() int
	Height() int
}

// CanvasRect is the layout box of a canvas together with the factors that
// scale client-space distances into backing-store pixels.
type CanvasRect struct {
	Width, Height            float64
	Top, Right, Bottom, Left float64
	X, Y                     float64
	ScaleX, ScaleY           float64
}

// ResolveCanvasRect reads the current layout box and backing size of c.
// It must be called per event: layout can change between events.
func ResolveCanvasRect(c Canvas) CanvasRect {
	box := c.ClientRect()
	return CanvasRect{
		Width:  box.Width,
		Height: box.Height,
		Top:    box.Top,
		Right:  box.Right(),
		Bottom: box.Bottom(),
		Left:   box.Left,
		X:      box.Left,
		Y:      box.Top,
		ScaleX: scale(float64(c.Width()), box.Width),
		ScaleY: scale(float64(c.Height()), box.Height),
	}
}

// scale returns backing/layout, or 1 for a collapsed layout box.
func scale(backing, layout float64) float64 {
	if layout == 0 {
		return 1
	}
	return backing / layout
}

// ResolveEventPosition converts the client coordinates carried by ev into
// backing-store pixels of c.
func ResolveEventPosition(c Canvas, ev Event) (Position, error) {
	x, y, err := ev.Client()
	if err != nil {
		return Position{}, err
	}
	r := ResolveCanvasRect(c)
	return Position{
		X: (x - r.Left) * r.ScaleX,
		Y: (y - r.Top) * r.ScaleY,
	}, nil
}

// IsPositionInsideCanvas reports whether a client-space point lies in the
// layout box of c, edges included.
func IsPositionInsideCanvas(c Canvas, p Position) bool {
	return c.ClientRect().Contains(p.X, p.Y)
}

// IsEventInsideCanvas reports whether the client coordinates of ev lie in the
// layout box of c. The comparison is done in client space, not in
// backing-store space.
func IsEventInsideCanvas(c Canvas, ev Event) (bool, error) {
	x, y, err := ev.Client()
	if err != nil {
		return false, err
	}
	return IsPositionInsideCanvas(c, Position{X: x, Y: y}), nil
}

// ClipToCanvasEdge returns the point where the segment from an in-bounds
// point to an out-of-bounds point leaves [0,W]×[0,H] of c. The nearest
// crossing wins. A zero-length segment, or one that crosses nothing, yields
// from unchanged.
func ClipToCanvasEdge(c Canvas, from, to Position) Position {
	w, h := float64(c.Width()), float64(c.Height())
	dx := to.X - from.X
	dy := to.Y - from.Y
	if dx == 0 && dy == 0 {
		return from
	}

	t := math.Inf(1)
	keep := func(cand float64) {
		if cand > 0 && cand < t {
			t = cand
		}
	}
	if to.X < 0 && dx != 0 {
		keep(-from.X / dx)
	}
	if to.X > w && dx != 0 {
		keep((w - from.X) / dx)
	}
	if to.Y < 0 && dy != 0 {
		keep(-from.Y / dy)
	}
	if to.Y > h && dy != 0 {
		keep((h - from.Y) / dy)
	}
	if math.IsInf(t, 1) || t > 1 {
		return from
	}
	return Position{X: from.X + dx*t, Y: from.Y + dy*t}
}
