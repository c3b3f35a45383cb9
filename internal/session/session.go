// Package session turns a stream of pointer events into strokes on a raster
// canvas and keeps the undo/redo history of what was drawn.
//
// A Session is the state machine for one drawing surface:
//
//	IDLE --press inside--> ACTIVE --release / leave canvas--> IDLE
//
// Every finished stroke is committed as one history entry holding the
// DrawAction and a snapshot of the canvas right after it; undo and redo
// restore snapshots without repainting strokes. Session is not safe for
// concurrent use; Studio wraps it for that.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"DrawStudio/internal/geometry"
	"DrawStudio/internal/history"
	"DrawStudio/internal/logging"
	"DrawStudio/internal/state"
	"DrawStudio/internal/stroke"
)

// Style is the pen a new stroke is drawn with.
type Style struct {
	Mode      state.Mode
	Color     string
	LineWidth float64
}

// Validate checks the style.
func (s Style) Validate() error {
	if _, err := state.ParseMode(string(s.Mode)); err != nil {
		return err
	}
	if s.LineWidth <= 0 {
		return fmt.Errorf("line width must be positive, got %g", s.LineWidth)
	}
	if _, err := stroke.ParseColor(s.Color); err != nil {
		return err
	}
	return nil
}

// Config configures a Session.
type Config struct {
	Style Style
	// MaxHistory bounds the undo history. Zero means 20.
	MaxHistory int
	// DisableHistory turns undo and redo off; strokes are still committed to
	// the action log and reported through OnCommit.
	DisableHistory bool
	// Log stamps and records actions. nil means a log with a random site id.
	Log *state.Log
	// OnCommit is called with every committed local action.
	OnCommit func(state.DrawAction)
	Logger   *slog.Logger
}

// DefaultMaxHistory is the history bound used when none is configured.
const DefaultMaxHistory = 20

// Session is the drawing state machine for one canvas.
type Session struct {
	canvas geometry.Canvas
	ctx    Context
	style  Style

	active bool
	points []geometry.Position
	cur    Style    // style of the active stroke
	before Snapshot // canvas when the active stroke started

	hist     *history.Stack[Entry]
	useHist  bool
	actions  *state.Log
	onCommit func(state.DrawAction)
	log      *slog.Logger
}

// New returns an idle session drawing on ctx, with canvas describing its
// layout. The current pixels of ctx become the base of the history.
func New(canvas geometry.Canvas, ctx Context, cfg Config) (*Session, error) {
	if err := cfg.Style.Validate(); err != nil {
		return nil, fmt.Errorf("session style: %w", err)
	}
	max := cfg.MaxHistory
	if max == 0 {
		max = DefaultMaxHistory
	}
	hist, err := history.New(max, Entry{Snapshot: Take(ctx)})
	if err != nil {
		return nil, err
	}
	l := logging.Or(cfg.Logger, "session")
	actions := cfg.Log
	if actions == nil {
		actions = state.NewLog(state.NewClock(""), cfg.Logger)
	}
	return &Session{
		canvas:   canvas,
		ctx:      ctx,
		style:    cfg.Style,
		hist:     hist,
		useHist:  !cfg.DisableHistory,
		actions:  actions,
		onCommit: cfg.OnCommit,
		log:      l,
	}, nil
}

// Style returns the style for the next stroke.
func (s *Session) Style() Style { return s.style }

// SetStyle changes the style for the next stroke. The active stroke keeps
// the style it started with.
func (s *Session) SetStyle(st Style) error {
	if err := st.Validate(); err != nil {
		return err
	}
	s.style = st
	return nil
}

// Active reports whether a stroke is in progress.
func (s *Session) Active() bool { return s.active }

// Press starts a stroke if ev lies inside the canvas. Outside presses, and
// presses during a stroke, are ignored.
func (s *Session) Press(ev geometry.Event) error {
	if s.active {
		return nil
	}
	inside, err := geometry.IsEventInsideCanvas(s.canvas, ev)
	if err != nil {
		return err
	}
	if !inside {
		return nil
	}
	pos, err := geometry.ResolveEventPosition(s.canvas, ev)
	if err != nil {
		return err
	}
	s.active = true
	s.cur = s.style
	s.before = Take(s.ctx)
	s.points = []geometry.Position{pos}
	return nil
}

// Move extends the active stroke. A move outside the canvas ends the stroke
// exactly on the canvas edge and commits it. Moves while idle are ignored.
func (s *Session) Move(ev geometry.Event) error {
	if !s.active {
		return nil
	}
	pos, err := geometry.ResolveEventPosition(s.canvas, ev)
	if err != nil {
		s.abort(err)
		return err
	}
	inside, err := geometry.IsEventInsideCanvas(s.canvas, ev)
	if err != nil {
		s.abort(err)
		return err
	}
	if !inside {
		pos = geometry.ClipToCanvasEdge(s.canvas, s.points[len(s.points)-1], pos)
	}

	s.points = append(s.points, pos)
	if err := s.paintTail(); err != nil {
		s.abort(err)
		return err
	}
	if !inside {
		return s.finish()
	}
	return nil
}

// Release ends the active stroke and commits it. A stroke without movement
// is painted as a dot. Releases while idle are ignored.
func (s *Session) Release() error {
	if !s.active {
		return nil
	}
	return s.finish()
}

// Cancel drops the active stroke without committing it and wipes what it
// had painted.
func (s *Session) Cancel() {
	if !s.active {
		return
	}
	s.abort(errors.New("cancelled"))
}

func (s *Session) paintTail() error {
	n := len(s.points)
	if s.cur.Mode == state.ModePen {
		return stroke.PaintSmoothTail(s.ctx, s.points, s.cur.LineWidth, s.cur.Color)
	}
	return stroke.PaintStroke(s.ctx, s.points[n-2:], s.cur.LineWidth, s.cur.Color)
}

func (s *Session) finish() error {
	var err error
	switch {
	case len(s.points) == 1:
		err = stroke.PaintPoint(s.ctx, s.points[0], s.cur.LineWidth, s.cur.Color)
	case s.cur.Mode == state.ModePen:
		err = stroke.PaintSmoothEnd(s.ctx, s.points, s.cur.LineWidth, s.cur.Color)
	}
	if err != nil {
		s.abort(err)
		return err
	}

	a := state.DrawAction{
		Mode:      state.ActionMode(s.cur.Mode),
		LineWidth: s.cur.LineWidth,
		Color:     s.cur.Color,
		Positions: s.points,
	}
	s.active = false
	s.points = nil
	s.before = Snapshot{}
	s.CommitLocal(a)
	return nil
}

// abort ends the active stroke without committing and restores the canvas
// as it was when the stroke started.
func (s *Session) abort(cause error) {
	s.log.Warn("stroke aborted", "points", len(s.points), "err", cause)
	s.before.Restore(s.ctx)
	s.active = false
	s.points = nil
	s.before = Snapshot{}
}

// CommitLocal stamps an action produced here, records the canvas as it is
// now and reports the action through OnCommit.
func (s *Session) CommitLocal(a state.DrawAction) state.DrawAction {
	a = s.actions.AddLocal(a)
	s.record(a)
	if s.onCommit != nil {
		s.onCommit(a)
	}
	return a
}

// CommitRemote records an action that has already been painted on the
// canvas and came from elsewhere. It is not reported through OnCommit.
func (s *Session) CommitRemote(a state.DrawAction) {
	s.record(a)
}

func (s *Session) record(a state.DrawAction) {
	if !s.useHist {
		return
	}
	s.hist.Commit(Entry{Action: a, Snapshot: Take(s.ctx)})
	s.log.Debug("committed", "id", a.ID, "mode", a.Mode, "points", len(a.Positions),
		"history", s.hist.Len(), "cursor", s.hist.Cursor())
}

// Undo restores the canvas to the previous history entry. It returns the
// action now current (zero at the start of history) and false if there was
// nothing to undo. An active stroke is cancelled first.
func (s *Session) Undo() (state.DrawAction, bool) {
	s.Cancel()
	e, ok := s.hist.Undo()
	if !ok {
		return state.DrawAction{}, false
	}
	e.Snapshot.Restore(s.ctx)
	return e.Action, true
}

// Redo re-applies the next history entry and returns its action, or false
// at the newest entry.
func (s *Session) Redo() (state.DrawAction, bool) {
	s.Cancel()
	e, ok := s.hist.Redo()
	if !ok {
		return state.DrawAction{}, false
	}
	e.Snapshot.Restore(s.ctx)
	return e.Action, true
}

// Clear wipes the canvas. With record set the wipe is committed as a reset
// action and can be undone; otherwise the history starts over from the blank
// canvas. The reset action is returned and reported through OnCommit either
// way.
func (s *Session) Clear(record bool) state.DrawAction {
	s.Cancel()
	s.ctx.Clear()
	a := state.DrawAction{Mode: state.ActionReset, Color: s.style.Color, LineWidth: s.style.LineWidth}
	if record {
		return s.CommitLocal(a)
	}
	a = s.actions.AddLocal(a)
	s.hist.Reset(Entry{Snapshot: Take(s.ctx)})
	if s.onCommit != nil {
		s.onCommit(a)
	}
	return a
}

// CanUndo reports whether Undo would change anything.
func (s *Session) CanUndo() bool { return s.hist.CanUndo() }

// CanRedo reports whether Redo would change anything.
func (s *Session) CanRedo() bool { return s.hist.CanRedo() }

// History returns the applied actions, oldest first.
func (s *Session) History() []state.DrawAction {
	entries := s.hist.Applied()
	out := make([]state.DrawAction, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action.Clone())
	}
	return out
}

// Entries returns every retained action including redo candidates, and the
// cursor.
func (s *Session) Entries() ([]state.DrawAction, int) {
	entries := s.hist.Entries()
	out := make([]state.DrawAction, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action.Clone())
	}
	return out, s.hist.Cursor()
}

// Points returns a copy of the active stroke's positions.
func (s *Session) Points() []geometry.Position {
	return slices.Clone(s.points)
}

// Actions returns the action log.
func (s *Session) Actions() *state.Log { return s.actions }

// Context returns the drawing context.
func (s *Session) Context() Context { return s.ctx }
