package ui

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DrawStudio/internal/config"
	"DrawStudio/internal/geometry"
	"DrawStudio/internal/session"
	"DrawStudio/internal/state"
)

func smallConfig() config.Config {
	cfg := config.Default()
	cfg.Canvas.Width, cfg.Canvas.Height = 100, 100
	return cfg
}

func newBoard(t *testing.T) *BoardWidget {
	t.Helper()
	test.NewTempApp(t)

	b, err := NewBoardWidget(smallConfig(), session.StudioConfig{})
	require.NoError(t, err)

	w := test.NewWindow(container.NewWithoutLayout(b))
	t.Cleanup(w.Close)
	b.Resize(fyne.NewSize(100, 100))
	b.Move(fyne.NewPos(10, 10))
	return b
}

// at returns the point event over canvas pixel (x, y).
func at(b *BoardWidget, x, y float32) fyne.PointEvent {
	r := b.ClientRect()
	abs := fyne.NewPos(float32(r.Left)+x, float32(r.Top)+y)
	return fyne.PointEvent{AbsolutePosition: abs, Position: fyne.NewPos(x, y)}
}

func mouse(ev fyne.PointEvent) *desktop.MouseEvent {
	return &desktop.MouseEvent{PointEvent: ev, Button: desktop.MouseButtonPrimary}
}

func TestBoardIsCanvas(t *testing.T) {
	b := newBoard(t)
	r := b.ClientRect()
	assert.Equal(t, 100.0, r.Width)
	assert.Equal(t, 100.0, r.Height)
	assert.Equal(t, 100, b.Width())

	cr := geometry.ResolveCanvasRect(b)
	assert.Equal(t, 1.0, cr.ScaleX)
}

func TestMouseStroke(t *testing.T) {
	b := newBoard(t)

	b.MouseDown(mouse(at(b, 5, 5)))
	b.Dragged(&fyne.DragEvent{PointEvent: at(b, 50, 50)})
	b.DragEnd()
	b.MouseUp(mouse(at(b, 50, 50)))

	hist := b.Studio().History()
	require.Len(t, hist, 1)
	assert.Equal(t, []geometry.Position{{X: 5, Y: 5}, {X: 50, Y: 50}}, hist[0].Positions)
	assert.Equal(t, state.ActionPencil, hist[0].Mode)
}

func TestSecondaryButtonDoesNotDraw(t *testing.T) {
	b := newBoard(t)
	ev := mouse(at(b, 5, 5))
	ev.Button = desktop.MouseButtonSecondary
	b.MouseDown(ev)
	assert.False(t, b.Studio().Active())
}

func TestTouchTapAndCancel(t *testing.T) {
	b := newBoard(t)

	b.TouchDown(&mobile.TouchEvent{PointEvent: at(b, 20, 20)})
	b.TouchUp(&mobile.TouchEvent{})
	require.Len(t, b.Studio().History(), 1)
	assert.Len(t, b.Studio().History()[0].Positions, 1)

	b.TouchDown(&mobile.TouchEvent{PointEvent: at(b, 30, 30)})
	b.Dragged(&fyne.DragEvent{PointEvent: at(b, 60, 60)})
	b.TouchCancel(&mobile.TouchEvent{})
	assert.Len(t, b.Studio().History(), 1)
	assert.False(t, b.Studio().Active())
}

func TestUndoRedoClear(t *testing.T) {
	b := newBoard(t)
	b.MouseDown(mouse(at(b, 5, 5)))
	b.MouseUp(mouse(at(b, 5, 5)))

	b.Undo()
	assert.Empty(t, b.Studio().History())
	b.Redo()
	assert.Len(t, b.Studio().History(), 1)

	b.ClearBoard()
	hist := b.Studio().History()
	require.Len(t, hist, 2)
	assert.Equal(t, state.ActionReset, hist[1].Mode)
}

func TestApplyConfig(t *testing.T) {
	b := newBoard(t)
	cfg := config.Default()
	cfg.Brush.Mode = "pen"
	cfg.Brush.LineWidth = 7
	cfg.Canvas.Background = "#101010"

	b.ApplyConfig(cfg)
	st := b.Studio().Style()
	assert.Equal(t, state.ModePen, st.Mode)
	assert.Equal(t, 7.0, st.LineWidth)
	assert.Equal(t, "#101010", b.Background())
}

func TestToolbarDrivesStyle(t *testing.T) {
	b := newBoard(t)
	tb := NewToolbar(b, config.DefaultPalette, false, nil)

	tb.Mode.SetSelected("pen")
	tb.Width.SetValue(12)
	assert.Equal(t, state.ModePen, b.Studio().Style().Mode)
	assert.Equal(t, 12.0, b.Studio().Style().LineWidth)

	cfg := config.Default()
	b.ApplyConfig(cfg)
	tb.Sync(b)
	assert.Equal(t, "pencil", tb.Mode.Selected)
	assert.Equal(t, 3.0, tb.Width.Value)
}

type memWriter struct {
	bytes.Buffer
	uri    fyne.URI
	closed bool
}

func (m *memWriter) URI() fyne.URI { return m.uri }
func (m *memWriter) Close() error  { m.closed = true; return nil }

func TestSaveTo(t *testing.T) {
	b := newBoard(t)
	b.MouseDown(mouse(at(b, 5, 5)))
	b.Dragged(&fyne.DragEvent{PointEvent: at(b, 50, 50)})
	b.MouseUp(mouse(at(b, 50, 50)))

	dir := t.TempDir()
	pngOut := &memWriter{uri: storage.NewFileURI(filepath.Join(dir, "drawing.png"))}
	require.NoError(t, b.SaveTo(pngOut))
	assert.True(t, pngOut.closed)
	assert.True(t, bytes.HasPrefix(pngOut.Bytes(), []byte("\x89PNG")))

	pdfOut := &memWriter{uri: storage.NewFileURI(filepath.Join(dir, "drawing.PDF"))}
	require.NoError(t, b.SaveTo(pdfOut))
	assert.True(t, bytes.HasPrefix(pdfOut.Bytes(), []byte("%PDF-")))
}

func greenDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{G: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func hasBackground(b *BoardWidget) func() bool {
	return func() bool {
		hist := b.Studio().History()
		return len(hist) > 0 && hist[len(hist)-1].Mode == state.ActionBackground
	}
}

func TestConfiguredBackgroundDrawsAtStartup(t *testing.T) {
	a := test.NewTempApp(t)
	cfg := smallConfig()
	cfg.BackgroundImage.URL = greenDataURL(t)
	cfg.BackgroundImage.Mode = "aspectFill"

	b, err := NewBoardWidget(cfg, session.StudioConfig{})
	require.NoError(t, err)
	w := NewWindow(a, cfg, b, "")
	t.Cleanup(w.Close)

	assert.Equal(t, cfg.BackgroundImage.URL, w.Toolbar.ImageURL.Text)
	require.Eventually(t, hasBackground(b), 5*time.Second, 10*time.Millisecond)
	assert.Greater(t, b.Studio().Image().RGBAAt(50, 50).G, uint8(200))
}

func TestReloadedBackgroundURLIsDrawn(t *testing.T) {
	b := newBoard(t)
	cfg := smallConfig()
	b.ApplyConfig(cfg)
	assert.Empty(t, b.Studio().History(), "no url, nothing drawn")

	cfg.BackgroundImage.URL = greenDataURL(t)
	b.ApplyConfig(cfg)
	require.Eventually(t, hasBackground(b), 5*time.Second, 10*time.Millisecond)
}

func TestToolbarPositions(t *testing.T) {
	a := test.NewTempApp(t)
	for _, pos := range config.ToolbarPositions {
		t.Run(pos, func(t *testing.T) {
			cfg := smallConfig()
			cfg.UI.Toolbar = pos
			require.NoError(t, cfg.Validate())

			b, err := NewBoardWidget(cfg, session.StudioConfig{})
			require.NoError(t, err)
			w := NewWindow(a, cfg, b, "")
			t.Cleanup(w.Close)

			border, ok := w.Content().(*fyne.Container)
			require.True(t, ok)
			if pos == config.ToolbarBottom {
				assert.NotContains(t, border.Objects, w.Toolbar.CanvasObject)
				return
			}
			assert.Contains(t, border.Objects, w.Toolbar.CanvasObject)
		})
	}
}
