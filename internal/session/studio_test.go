package session

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DrawStudio/internal/compositor"
	"DrawStudio/internal/geometry"
	"DrawStudio/internal/state"
)

func newStudio(t *testing.T, sc *screen, cfg StudioConfig) *Studio {
	t.Helper()
	cfg.Session.Style = Style{Mode: state.ModePencil, Color: "#000000", LineWidth: 4}
	st, err := NewStudio(sc, sc.Context, cfg)
	require.NoError(t, err)
	return st
}

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func dataURL(t *testing.T, w, h int, c color.Color) string {
	t.Helper()
	img := solidImage(w, h, c)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// peerAction returns a pencil stroke stamped by another site.
func peerAction(clock *state.Clock, from, to geometry.Position) state.DrawAction {
	return clock.Stamp(state.DrawAction{
		Mode:      state.ActionPencil,
		LineWidth: 4,
		Color:     "#ff0000",
		Positions: []geometry.Position{from, to},
	})
}

// gatedFetcher blocks until release is closed.
type gatedFetcher struct {
	started chan struct{}
	release chan struct{}
	img     image.Image
}

func (f *gatedFetcher) Fetch(ctx context.Context, _ string, _ bool) (image.Image, error) {
	close(f.started)
	select {
	case <-f.release:
		return f.img, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestStudioSetBackground(t *testing.T) {
	sc := newScreen()
	var commits []state.DrawAction
	st := newStudio(t, sc, StudioConfig{Session: Config{
		OnCommit: func(a state.DrawAction) { commits = append(commits, a) },
	}})

	url := dataURL(t, 10, 10, color.RGBA{G: 255, A: 255})
	require.NoError(t, st.SetBackground(context.Background(), url, compositor.AspectFill, true))

	hist := st.History()
	require.Len(t, hist, 1)
	assert.Equal(t, state.ActionBackground, hist[0].Mode)
	require.NotNil(t, hist[0].Image)
	assert.Equal(t, "aspectFill", hist[0].Image.Mode)
	assert.True(t, hist[0].Image.UseCORS)
	assert.Len(t, commits, 1)

	assert.Greater(t, sc.ResizeTarget().GetPixel(50, 50).G, 0.9)
	assert.False(t, st.Loading())
}

func TestStudioSetBackgroundFailureKeepsCanvas(t *testing.T) {
	sc := newScreen()
	st := newStudio(t, sc, StudioConfig{})

	require.NoError(t, st.Press(geometry.Pointer(15, 15)))
	require.NoError(t, st.Move(geometry.Pointer(60, 60)))
	require.NoError(t, st.Release())
	before := st.Image()

	err := st.SetBackground(context.Background(), "data:image/png;base64,AAAA", compositor.AspectFit, true)
	var drawErr *compositor.DrawLoadError
	require.ErrorAs(t, err, &drawErr)
	assert.Equal(t, 2, drawErr.Attempts)

	assert.Equal(t, before.Pix, st.Image().Pix)
	assert.Len(t, st.History(), 1)
	assert.False(t, st.Loading())
}

func TestStudioIgnoresPressWhileLoading(t *testing.T) {
	sc := newScreen()
	f := &gatedFetcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
		img:     image.NewRGBA(image.Rect(0, 0, 4, 4)),
	}
	st := newStudio(t, sc, StudioConfig{Compositor: compositor.New(compositor.WithFetcher(f))})

	var wg sync.WaitGroup
	wg.Add(1)
	var bgErr error
	go func() {
		defer wg.Done()
		bgErr = st.SetBackground(context.Background(), "http://example.test/bg.png", compositor.AspectFit, false)
	}()
	<-f.started

	assert.True(t, st.Loading())
	require.NoError(t, st.Press(geometry.Pointer(15, 15)))
	assert.False(t, st.Active(), "presses are ignored while loading")

	peer := state.NewClock("peer")
	require.NoError(t, st.Apply(context.Background(), peerAction(peer, geometry.Pos(1, 1), geometry.Pos(9, 9))))
	assert.Empty(t, st.History(), "peer actions wait for the load")

	close(f.release)
	wg.Wait()
	require.NoError(t, bgErr)

	hist := st.History()
	require.Len(t, hist, 2)
	assert.Equal(t, state.ActionBackground, hist[0].Mode)
	assert.Equal(t, "peer", hist[1].Owner)
}

func TestStudioApplyDeduplicates(t *testing.T) {
	sc := newScreen()
	var commits []state.DrawAction
	st := newStudio(t, sc, StudioConfig{Session: Config{
		OnCommit: func(a state.DrawAction) { commits = append(commits, a) },
	}})

	a := peerAction(state.NewClock("peer"), geometry.Pos(10, 10), geometry.Pos(90, 90))
	require.NoError(t, st.Apply(context.Background(), a))
	require.NoError(t, st.Apply(context.Background(), a))

	hist := st.History()
	require.Len(t, hist, 1)
	assert.Equal(t, a.ID, hist[0].ID)
	assert.Empty(t, commits, "peer actions are not re-broadcast")
	assert.Greater(t, sc.ResizeTarget().GetPixel(50, 50).R, 0.5)
}

// switchFetcher fails with err while it is set.
type switchFetcher struct {
	err error
	img image.Image
}

func (f *switchFetcher) Fetch(context.Context, string, bool) (image.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.img, nil
}

func TestStudioApplyRetriesFailedBackground(t *testing.T) {
	sc := newScreen()
	f := &switchFetcher{err: errors.New("network down"), img: solidImage(4, 4, color.RGBA{B: 255, A: 255})}
	st := newStudio(t, sc, StudioConfig{Compositor: compositor.New(compositor.WithFetcher(f))})

	a := state.NewClock("peer").Stamp(state.DrawAction{
		Mode:  state.ActionBackground,
		Image: &state.Image{URL: "http://example.test/bg.png", Mode: string(compositor.AspectFill)},
	})
	require.Error(t, st.Apply(context.Background(), a))
	assert.Empty(t, st.History())
	assert.False(t, st.sess.Actions().Seen(a.ID))
	assert.Empty(t, st.Actions(), "unapplied actions are not offered to other peers")

	f.err = nil
	require.NoError(t, st.Apply(context.Background(), a))
	hist := st.History()
	require.Len(t, hist, 1)
	assert.Equal(t, a.ID, hist[0].ID)
	assert.Greater(t, sc.ResizeTarget().GetPixel(50, 50).B, 0.9)
}

func TestStudioApplyForgetsFailedReplay(t *testing.T) {
	sc := newScreen()
	st := newStudio(t, sc, StudioConfig{})

	a := peerAction(state.NewClock("peer"), geometry.Pos(10, 10), geometry.Pos(90, 90))
	a.Color = "not-a-colour"
	require.Error(t, st.Apply(context.Background(), a))
	assert.Empty(t, st.History())
	assert.False(t, st.sess.Actions().Seen(a.ID))
}

func TestStudioApplyRejectsInvalid(t *testing.T) {
	sc := newScreen()
	st := newStudio(t, sc, StudioConfig{})

	err := st.Apply(context.Background(), state.DrawAction{ID: "x", Mode: state.ActionPen, LineWidth: 2})
	assert.Error(t, err)
	assert.Empty(t, st.History())
}

func TestStudioQueuesPeerActionsDuringStroke(t *testing.T) {
	sc := newScreen()
	st := newStudio(t, sc, StudioConfig{})
	peer := state.NewClock("peer")

	require.NoError(t, st.Press(geometry.Pointer(15, 15)))
	require.NoError(t, st.Move(geometry.Pointer(60, 60)))
	require.NoError(t, st.Apply(context.Background(), peerAction(peer, geometry.Pos(10, 90), geometry.Pos(90, 90))))
	assert.Empty(t, st.History())

	require.NoError(t, st.Release())
	hist := st.History()
	require.Len(t, hist, 2)
	assert.Equal(t, st.Site(), hist[0].Owner)
	assert.Equal(t, "peer", hist[1].Owner)
	assert.Len(t, st.Actions(), 2)
}

func TestStudioApplyReset(t *testing.T) {
	sc := newScreen()
	st := newStudio(t, sc, StudioConfig{})

	require.NoError(t, st.Press(geometry.Pointer(15, 15)))
	require.NoError(t, st.Move(geometry.Pointer(60, 60)))
	require.NoError(t, st.Release())

	reset := state.NewClock("peer").Stamp(state.DrawAction{Mode: state.ActionReset})
	require.NoError(t, st.Apply(context.Background(), reset))
	assert.False(t, painted(sc, 27, 27))

	_, ok := st.Undo()
	require.True(t, ok)
	assert.True(t, painted(sc, 27, 27))
}

func TestStudioOnChange(t *testing.T) {
	sc := newScreen()
	changes := 0
	st := newStudio(t, sc, StudioConfig{OnChange: func() { changes++ }})

	require.NoError(t, st.Press(geometry.Pointer(15, 15)))
	require.NoError(t, st.Move(geometry.Pointer(60, 60)))
	require.NoError(t, st.Release())
	assert.Equal(t, 2, changes)

	st.Undo()
	assert.Equal(t, 3, changes)
	_, ok := st.Undo()
	assert.False(t, ok)
	assert.Equal(t, 3, changes)
}

func TestStudioStyleSetters(t *testing.T) {
	sc := newScreen()
	st := newStudio(t, sc, StudioConfig{})

	require.NoError(t, st.SetMode(state.ModePen))
	require.NoError(t, st.SetColor("rgb(0, 0, 255)"))
	require.NoError(t, st.SetLineWidth(7))
	assert.Equal(t, Style{Mode: state.ModePen, Color: "rgb(0, 0, 255)", LineWidth: 7}, st.Style())

	assert.Error(t, st.SetMode("brush"))
	assert.Error(t, st.SetColor("#12"))
	assert.Error(t, st.SetLineWidth(-1))
	assert.Equal(t, state.ModePen, st.Style().Mode)
}
