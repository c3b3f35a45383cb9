// Package state defines the records the drawing engine commits and shares:
// DrawActions, the drawing modes that produce them, and the log that keeps
// actions from peers in order and free of duplicates.
package state

import (
	"fmt"
	"slices"
	"time"

	"DrawStudio/internal/geometry"
)

// Mode is the drawing mode a stroke is produced with.
type Mode string

const (
	// ModePencil paints strokes as connected straight segments.
	ModePencil Mode = "pencil"
	// ModePen paints strokes as a curve smoothed through segment midpoints.
	ModePen Mode = "pen"
)

// Modes lists the drawing modes in picker order.
var Modes = []Mode{ModePencil, ModePen}

// ParseMode parses a drawing mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !slices.Contains(Modes, m) {
		return "", fmt.Errorf("unknown drawing mode %q", s)
	}
	return m, nil
}

// ActionMode tags a DrawAction. It is a drawing mode or one of the
// non-stroke actions below.
type ActionMode string

const (
	ActionPencil ActionMode = ActionMode(ModePencil)
	ActionPen    ActionMode = ActionMode(ModePen)
	// ActionReset is a clear-canvas entry; it carries no positions.
	ActionReset ActionMode = "reset"
	// ActionBackground is a background image draw.
	ActionBackground ActionMode = "background"
)

// IsStroke reports whether actions of this mode carry stroke positions.
func (m ActionMode) IsStroke() bool {
	return m == ActionPencil || m == ActionPen
}

// Image describes the background image of an ActionBackground entry.
type Image struct {
	URL     string `json:"url"`
	Mode    string `json:"mode"`
	UseCORS bool   `json:"use_cors"`
}

// DrawAction is one committed, replayable history entry.
type DrawAction struct {
	ID        string              `json:"id"`
	Timestamp time.Time           `json:"timestamp"`
	Mode      ActionMode          `json:"mode"`
	LineWidth float64             `json:"line_width"`
	Color     string              `json:"color"`
	Positions []geometry.Position `json:"positions"`
	Image     *Image              `json:"image,omitempty"`
	Owner     string              `json:"owner,omitempty"`
	Lamport   uint64              `json:"lamport,omitempty"`
}

// Clone returns a copy that shares no memory with a.
func (a DrawAction) Clone() DrawAction {
	a.Positions = slices.Clone(a.Positions)
	if a.Image != nil {
		img := *a.Image
		a.Image = &img
	}
	return a
}

// Validate checks the fields a replay depends on.
func (a DrawAction) Validate() error {
	switch {
	case a.ID == "":
		return fmt.Errorf("draw action: missing id")
	case a.Mode.IsStroke():
		if len(a.Positions) == 0 {
			return fmt.Errorf("draw action %s: stroke without positions", a.ID)
		}
		if a.LineWidth <= 0 {
			return fmt.Errorf("draw action %s: line width %g", a.ID, a.LineWidth)
		}
	case a.Mode == ActionReset:
		if len(a.Positions) != 0 {
			return fmt.Errorf("draw action %s: reset with positions", a.ID)
		}
	case a.Mode == ActionBackground:
		if a.Image == nil || a.Image.URL == "" {
			return fmt.Errorf("draw action %s: background without image", a.ID)
		}
	default:
		return fmt.Errorf("draw action %s: unknown mode %q", a.ID, a.Mode)
	}
	return nil
}
