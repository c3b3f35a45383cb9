package session

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"DrawStudio/internal/compositor"
	"DrawStudio/internal/geometry"
	"DrawStudio/internal/logging"
	"DrawStudio/internal/state"
	"DrawStudio/internal/stroke"
)

// StudioConfig configures a Studio.
type StudioConfig struct {
	Session    Config
	Compositor *compositor.Compositor
	// OnChange is called, without locks held, after the canvas pixels change.
	OnChange func()
}

type remoteAction struct {
	action state.DrawAction
	img    image.Image
}

// Studio is a Session that is safe for concurrent use. Input events, toolbar
// commands and actions from peers may arrive on different goroutines; Studio
// serialises them. While a background image loads, presses are ignored; peer
// actions that arrive during a stroke or a load are applied once it ends.
//
// OnCommit of the session config runs with the Studio lock held and must not
// call back into the Studio.
type Studio struct {
	mu       sync.Mutex
	sess     *Session
	comp     *compositor.Compositor
	loading  bool
	pending  []remoteAction
	onChange func()
	log      *slog.Logger
}

// NewStudio returns a Studio drawing on ctx.
func NewStudio(canvas geometry.Canvas, ctx Context, cfg StudioConfig) (*Studio, error) {
	sess, err := New(canvas, ctx, cfg.Session)
	if err != nil {
		return nil, err
	}
	comp := cfg.Compositor
	if comp == nil {
		comp = compositor.New(compositor.WithLogger(cfg.Session.Logger))
	}
	return &Studio{
		sess:     sess,
		comp:     comp,
		onChange: cfg.OnChange,
		log:      logging.Or(cfg.Session.Logger, "studio"),
	}, nil
}

func (s *Studio) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Press starts a stroke. It is ignored while a background image loads.
func (s *Studio) Press(ev geometry.Event) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil
	}
	err := s.sess.Press(ev)
	s.mu.Unlock()
	return err
}

// Move extends the active stroke.
func (s *Studio) Move(ev geometry.Event) error {
	s.mu.Lock()
	err := s.sess.Move(ev)
	s.flushLocked()
	s.mu.Unlock()
	s.changed()
	return err
}

// Release ends and commits the active stroke.
func (s *Studio) Release() error {
	s.mu.Lock()
	err := s.sess.Release()
	s.flushLocked()
	s.mu.Unlock()
	s.changed()
	return err
}

// Cancel drops the active stroke.
func (s *Studio) Cancel() {
	s.mu.Lock()
	s.sess.Cancel()
	s.flushLocked()
	s.mu.Unlock()
	s.changed()
}

// Active reports whether a stroke is in progress.
func (s *Studio) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.Active()
}

// Loading reports whether a background image is being loaded.
func (s *Studio) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Style returns the style for the next stroke.
func (s *Studio) Style() Style {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.Style()
}

// SetStyle changes the style for the next stroke.
func (s *Studio) SetStyle(st Style) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.SetStyle(st)
}

// SetMode changes the drawing mode for the next stroke.
func (s *Studio) SetMode(m state.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.sess.Style()
	st.Mode = m
	return s.sess.SetStyle(st)
}

// SetColor changes the colour for the next stroke.
func (s *Studio) SetColor(c string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.sess.Style()
	st.Color = c
	return s.sess.SetStyle(st)
}

// SetLineWidth changes the line width for the next stroke.
func (s *Studio) SetLineWidth(w float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.sess.Style()
	st.LineWidth = w
	return s.sess.SetStyle(st)
}

// Undo steps back one history entry.
func (s *Studio) Undo() (state.DrawAction, bool) {
	s.mu.Lock()
	a, ok := s.sess.Undo()
	s.flushLocked()
	s.mu.Unlock()
	if ok {
		s.changed()
	}
	return a, ok
}

// Redo steps forward one history entry.
func (s *Studio) Redo() (state.DrawAction, bool) {
	s.mu.Lock()
	a, ok := s.sess.Redo()
	s.flushLocked()
	s.mu.Unlock()
	if ok {
		s.changed()
	}
	return a, ok
}

// CanUndo reports whether Undo would change anything.
func (s *Studio) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.CanUndo()
}

// CanRedo reports whether Redo would change anything.
func (s *Studio) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.CanRedo()
}

// Clear wipes the canvas; see Session.Clear.
func (s *Studio) Clear(record bool) state.DrawAction {
	s.mu.Lock()
	a := s.sess.Clear(record)
	s.flushLocked()
	s.mu.Unlock()
	s.changed()
	return a
}

// SetBackground loads url and draws it over the whole canvas under mode,
// committing the draw as a background action. An active stroke is committed
// first. Presses are ignored until the load finishes; on failure the canvas
// is left as it was.
func (s *Studio) SetBackground(ctx context.Context, url string, mode compositor.ImageMode, useCORS bool) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return fmt.Errorf("background %s: another image is loading", url)
	}
	if err := s.sess.Release(); err != nil {
		s.log.Warn("stroke lost before background load", "err", err)
	}
	s.loading = true
	s.mu.Unlock()
	s.changed()

	img, err := s.comp.Load(ctx, url, useCORS)

	s.mu.Lock()
	s.loading = false
	if err == nil {
		compositor.Draw(s.sess.Context(), img, mode)
		s.sess.CommitLocal(state.DrawAction{
			Mode:  state.ActionBackground,
			Image: &state.Image{URL: url, Mode: string(mode), UseCORS: useCORS},
		})
	}
	s.flushLocked()
	s.mu.Unlock()
	s.changed()

	if err != nil {
		s.log.Error("background load failed", "url", url, "err", err)
		return err
	}
	return nil
}

// Apply replays an action received from a peer. Actions already seen are
// ignored. Background images are loaded before the Studio is locked.
func (s *Studio) Apply(ctx context.Context, a state.DrawAction) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if !s.sess.Actions().AddRemote(a) {
		return nil
	}
	r := remoteAction{action: a.Clone()}
	if a.Mode == state.ActionBackground {
		img, err := s.comp.Load(ctx, a.Image.URL, a.Image.UseCORS)
		if err != nil {
			s.sess.Actions().Forget(a.ID)
			return err
		}
		r.img = img
	}

	s.mu.Lock()
	if s.sess.Active() || s.loading {
		s.pending = append(s.pending, r)
		s.mu.Unlock()
		return nil
	}
	err := s.replayLocked(r)
	s.mu.Unlock()
	s.changed()
	return err
}

func (s *Studio) flushLocked() {
	if s.sess.Active() || s.loading {
		return
	}
	pending := s.pending
	s.pending = nil
	for _, r := range pending {
		if err := s.replayLocked(r); err != nil {
			s.log.Error("replay queued action", "id", r.action.ID, "err", err)
		}
	}
}

func (s *Studio) replayLocked(r remoteAction) error {
	a := r.action
	ctx := s.sess.Context()
	var err error
	switch a.Mode {
	case state.ActionPencil, state.ActionPen:
		switch {
		case len(a.Positions) == 1:
			err = stroke.PaintPoint(ctx, a.Positions[0], a.LineWidth, a.Color)
		case a.Mode == state.ActionPen:
			err = stroke.PaintSmoothStroke(ctx, a.Positions, a.LineWidth, a.Color)
		default:
			err = stroke.PaintStroke(ctx, a.Positions, a.LineWidth, a.Color)
		}
	case state.ActionReset:
		ctx.Clear()
	case state.ActionBackground:
		compositor.Draw(ctx, r.img, compositor.ImageMode(a.Image.Mode))
	}
	if err != nil {
		s.sess.Actions().Forget(a.ID)
		return fmt.Errorf("replay %s: %w", a.ID, err)
	}
	s.sess.CommitRemote(a)
	return nil
}

// History returns the applied actions, oldest first.
func (s *Studio) History() []state.DrawAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.History()
}

// Actions returns every action recorded by this site, local and remote, in
// Lamport order.
func (s *Studio) Actions() []state.DrawAction {
	return s.sess.Actions().Actions()
}

// Site returns the id stamped on local actions.
func (s *Studio) Site() string {
	return s.sess.Actions().Clock().Site()
}

// Image returns a copy of the canvas pixels.
func (s *Studio) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Take(s.sess.Context()).Image()
}
