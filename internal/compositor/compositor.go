// Package compositor loads background images and draws them into a canvas
// under a fit mode.
//
// A load requested with CORS that fails is retried once without CORS; a
// plain load that fails is final. The canvas is cleared only once a decoded
// image is in hand, so a failed draw leaves it as it was.
package compositor

import (
	"context"
	"image"
	"log/slog"

	"github.com/gogpu/gg"

	"DrawStudio/internal/logging"
)

// Target is the part of a raster drawing context the compositor draws into.
// *gg.Context implements it.
type Target interface {
	Width() int
	Height() int
	Clear()
	DrawImageEx(img *gg.ImageBuf, opts gg.DrawImageOptions)
}

var _ Target = (*gg.Context)(nil)

// Compositor draws background images.
type Compositor struct {
	fetcher Fetcher
	log     *slog.Logger
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithFetcher replaces the default Source.
func WithFetcher(f Fetcher) Option {
	return func(c *Compositor) { c.fetcher = f }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compositor) { c.log = logging.Or(l, "compositor") }
}

// New returns a Compositor loading through a default Source.
func New(opts ...Option) *Compositor {
	c := &Compositor{
		fetcher: &Source{},
		log:     logging.Or(nil, "compositor"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadImage fetches and decodes an image without CORS checks.
func (c *Compositor) LoadImage(ctx context.Context, url string) (image.Image, error) {
	img, err := c.fetcher.Fetch(ctx, url, false)
	if err != nil {
		return nil, &LoadError{URL: url, Cause: err}
	}
	return img, nil
}

// DrawImageFitted loads url, clears t and draws the image centred under mode.
// It blocks until the load finishes or ctx is done.
func (c *Compositor) DrawImageFitted(ctx context.Context, t Target, url string, mode ImageMode, useCORS bool) error {
	img, err := c.Load(ctx, url, useCORS)
	if err != nil {
		return err
	}
	Draw(t, img, mode)
	return nil
}

// Load fetches and decodes url, retrying once without CORS when a CORS load
// fails. Callers that must not hold locks across the fetch load first and
// Draw later.
func (c *Compositor) Load(ctx context.Context, url string, useCORS bool) (image.Image, error) {
	attempts := []bool{useCORS}
	if useCORS {
		attempts = append(attempts, false)
	}

	var lastErr error
	tried := 0
	for i, cors := range attempts {
		tried++
		img, err := c.fetcher.Fetch(ctx, url, cors)
		if err == nil {
			c.log.Debug("image loaded", "url", url, "cors", cors, "attempt", i+1)
			return img, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if i+1 < len(attempts) {
			c.log.Warn("cors image load failed, retrying without cors", "url", url, "err", err)
		}
	}
	return nil, &DrawLoadError{URL: url, Attempts: tried, Cause: lastErr}
}

// Draw clears t and draws img centred under mode.
func Draw(t Target, img image.Image, mode ImageMode) {
	b := img.Bounds()
	p := Fit(float64(t.Width()), float64(t.Height()), float64(b.Dx()), float64(b.Dy()), mode)

	t.Clear()
	t.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:             p.X,
		Y:             p.Y,
		DstWidth:      p.Width,
		DstHeight:     p.Height,
		Interpolation: gg.InterpBilinear,
		Opacity:       1,
		BlendMode:     gg.BlendNormal,
	})
}
