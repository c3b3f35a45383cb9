package ui

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
	"github.com/gogpu/gg"

	"DrawStudio/internal/compositor"
	"DrawStudio/internal/config"
	"DrawStudio/internal/geometry"
	"DrawStudio/internal/logging"
	"DrawStudio/internal/session"
	"DrawStudio/internal/state"
	"DrawStudio/internal/stroke"
)

// BoardWidget is the drawing surface. It owns the raster context and feeds
// mouse and touch input into a session.Studio.
type BoardWidget struct {
	widget.BaseWidget

	dc         *gg.Context
	studio     *session.Studio
	background string
	bgColor    color.Color
	imageURL   string
	imageMode  compositor.ImageMode
	useCORS    bool

	statusBar *widget.Label
	renderer  *boardRenderer
	OnError   func(error)
	log       *slog.Logger
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ mobile.Touchable = (*BoardWidget)(nil)
var _ geometry.Canvas = (*BoardWidget)(nil)

// NewBoardWidget creates a board with a blank canvas sized from cfg. The
// style, history and background settings of cfg override those in scfg.
func NewBoardWidget(cfg config.Config, scfg session.StudioConfig) (*BoardWidget, error) {
	bg, err := stroke.ParseColor(cfg.Canvas.Background)
	if err != nil {
		return nil, err
	}
	b := &BoardWidget{
		dc:         gg.NewContext(cfg.Canvas.Width, cfg.Canvas.Height),
		background: cfg.Canvas.Background,
		bgColor:    bg,
		imageURL:   cfg.BackgroundImage.URL,
		imageMode:  cfg.ImageMode(),
		useCORS:    cfg.BackgroundImage.UseCORS,
		statusBar:  widget.NewLabel("Ready"),
		log:        logging.Or(scfg.Session.Logger, "ui"),
	}

	scfg.Session.Style = session.Style{
		Mode:      cfg.Mode(),
		Color:     cfg.Brush.Color,
		LineWidth: cfg.Brush.LineWidth,
	}
	scfg.Session.MaxHistory = cfg.History.MaxEntries
	scfg.Session.DisableHistory = !cfg.History.Enabled
	onChange := scfg.OnChange
	scfg.OnChange = func() {
		b.refreshCanvas()
		if onChange != nil {
			onChange()
		}
	}

	b.studio, err = session.NewStudio(b, b.dc, scfg)
	if err != nil {
		return nil, err
	}
	b.ExtendBaseWidget(b)
	return b, nil
}

// Studio returns the drawing engine behind the board.
func (b *BoardWidget) Studio() *session.Studio { return b.studio }

// Background returns the canvas background colour.
func (b *BoardWidget) Background() string { return b.background }

// StatusBar returns the label status messages are written to.
func (b *BoardWidget) StatusBar() *widget.Label { return b.statusBar }

// SetStatus shows text in the status bar. Safe from any goroutine.
func (b *BoardWidget) SetStatus(text string) {
	fyne.Do(func() { b.statusBar.SetText(text) })
}

func (b *BoardWidget) refreshCanvas() {
	fyne.Do(func() {
		if b.renderer != nil {
			b.renderer.raster.Refresh()
		}
	})
}

func (b *BoardWidget) fail(err error) {
	if err == nil {
		return
	}
	b.log.Warn("input failed", "err", err)
	if b.OnError != nil {
		b.OnError(err)
	}
}

// ClientRect implements geometry.Canvas: the board's box on the window
// canvas, in window coordinates.
func (b *BoardWidget) ClientRect() geometry.Rect {
	var pos fyne.Position
	if app := fyne.CurrentApp(); app != nil {
		pos = app.Driver().AbsolutePositionForObject(b)
	}
	size := b.Size()
	return geometry.Rect{
		Left:   float64(pos.X),
		Top:    float64(pos.Y),
		Width:  float64(size.Width),
		Height: float64(size.Height),
	}
}

// Width implements geometry.Canvas.
func (b *BoardWidget) Width() int { return b.dc.Width() }

// Height implements geometry.Canvas.
func (b *BoardWidget) Height() int { return b.dc.Height() }

func pointer(ev fyne.PointEvent) geometry.Event {
	return geometry.Pointer(float64(ev.AbsolutePosition.X), float64(ev.AbsolutePosition.Y))
}

func touch(ev *mobile.TouchEvent) geometry.Event {
	return geometry.TouchAt(geometry.Touch{
		ClientX: float64(ev.AbsolutePosition.X),
		ClientY: float64(ev.AbsolutePosition.Y),
	})
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		b.fail(b.studio.Press(pointer(e.PointEvent)))
	}
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		b.fail(b.studio.Release())
	}
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	b.fail(b.studio.Move(pointer(e.PointEvent)))
}

func (b *BoardWidget) DragEnd() {
	b.fail(b.studio.Release())
}

func (b *BoardWidget) TouchDown(e *mobile.TouchEvent) {
	b.fail(b.studio.Press(touch(e)))
}

func (b *BoardWidget) TouchUp(*mobile.TouchEvent) {
	b.fail(b.studio.Release())
}

func (b *BoardWidget) TouchCancel(*mobile.TouchEvent) {
	b.studio.Cancel()
}

// Undo steps back one stroke.
func (b *BoardWidget) Undo() {
	if _, ok := b.studio.Undo(); !ok {
		b.SetStatus("Nothing to undo")
	}
}

// Redo re-applies the last undone stroke.
func (b *BoardWidget) Redo() {
	if _, ok := b.studio.Redo(); !ok {
		b.SetStatus("Nothing to redo")
	}
}

// ClearBoard wipes the canvas; the wipe can be undone.
func (b *BoardWidget) ClearBoard() {
	b.studio.Clear(true)
	b.SetStatus("Cleared")
}

// SetBackgroundImage loads url in the background and draws it under the
// current fit mode.
func (b *BoardWidget) SetBackgroundImage(url string, mode compositor.ImageMode, useCORS bool) {
	b.SetStatus("Loading " + url)
	go func() {
		if err := b.studio.SetBackground(context.Background(), url, mode, useCORS); err != nil {
			b.SetStatus("Background failed")
			fyne.Do(func() { b.fail(err) })
			return
		}
		b.SetStatus("Background set")
	}()
}

// LoadConfiguredBackground draws the background image named in the
// settings, if any. Call it once the app is running.
func (b *BoardWidget) LoadConfiguredBackground() {
	if b.imageURL != "" {
		b.SetBackgroundImage(b.imageURL, b.imageMode, b.useCORS)
	}
}

// ApplyRemote replays an action from a peer and reports whether it was
// rejected. Safe from any goroutine.
func (b *BoardWidget) ApplyRemote(a state.DrawAction) error {
	if err := b.studio.Apply(context.Background(), a); err != nil {
		b.log.Warn("remote action rejected", "id", a.ID, "err", err)
		b.SetStatus(fmt.Sprintf("Rejected action from %s", a.Owner))
		return err
	}
	return nil
}

// ApplyConfig takes over brush and background settings from a reloaded
// config. Canvas size changes need a restart.
func (b *BoardWidget) ApplyConfig(cfg config.Config) {
	err := b.studio.SetStyle(session.Style{
		Mode:      cfg.Mode(),
		Color:     cfg.Brush.Color,
		LineWidth: cfg.Brush.LineWidth,
	})
	if err != nil {
		b.fail(err)
		return
	}
	if c, err := stroke.ParseColor(cfg.Canvas.Background); err == nil {
		b.background = cfg.Canvas.Background
		b.bgColor = c
		if b.renderer != nil {
			b.renderer.background.FillColor = c
			b.renderer.background.Refresh()
		}
	}
	b.imageMode = cfg.ImageMode()
	b.useCORS = cfg.BackgroundImage.UseCORS
	if url := cfg.BackgroundImage.URL; url != b.imageURL {
		b.imageURL = url
		b.LoadConfiguredBackground()
	}
	if cfg.Canvas.Width != b.dc.Width() || cfg.Canvas.Height != b.dc.Height() {
		b.log.Info("canvas size change takes effect after restart",
			"width", cfg.Canvas.Width, "height", cfg.Canvas.Height)
	}
	b.SetStatus("Settings reloaded")
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	b.renderer = newBoardRenderer(b)
	return b.renderer
}
