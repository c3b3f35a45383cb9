package compositor

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

// maxImageBytes caps how much of a response body is decoded.
const maxImageBytes = 64 << 20

// Fetcher loads and decodes an image. With cors set it must refuse images
// the serving origin does not share with the requesting one.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, cors bool) (image.Image, error)
}

// Source is the default Fetcher. It understands http(s) URLs, data URLs,
// file URLs and plain file paths.
type Source struct {
	// Client performs HTTP requests. nil means http.DefaultClient.
	Client *http.Client
	// Origin is sent with CORS requests and must be echoed back by the server
	// (or "*"). Empty means "null", the origin of a local document.
	Origin string
}

// Fetch implements Fetcher.
func (s *Source) Fetch(ctx context.Context, rawURL string, cors bool) (image.Image, error) {
	switch {
	case strings.HasPrefix(rawURL, "data:"):
		return decodeDataURL(rawURL)
	case strings.HasPrefix(rawURL, "http://"), strings.HasPrefix(rawURL, "https://"):
		return s.fetchHTTP(ctx, rawURL, cors)
	case strings.HasPrefix(rawURL, "file://"):
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, err
		}
		return decodeFile(u.Path)
	case strings.Contains(rawURL, "://"):
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, rawURL)
	default:
		return decodeFile(rawURL)
	}
}

func (s *Source) origin() string {
	if s.Origin == "" {
		return "null"
	}
	return s.Origin
}

func (s *Source) fetchHTTP(ctx context.Context, rawURL string, cors bool) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")
	if cors {
		req.Header.Set("Origin", s.origin())
		req.Header.Set("Sec-Fetch-Mode", "cors")
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}
	if cors {
		allowed := resp.Header.Get("Access-Control-Allow-Origin")
		if allowed != "*" && allowed != s.origin() {
			return nil, fmt.Errorf("%w: origin %q, allowed %q", ErrCORSRejected, s.origin(), allowed)
		}
	}
	return decode(io.LimitReader(resp.Body, maxImageBytes))
}

func decodeDataURL(rawURL string) (image.Image, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(rawURL, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data url")
	}
	var data []byte
	if strings.HasSuffix(meta, ";base64") {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("data url: %w", err)
		}
		data = b
	} else {
		text, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("data url: %w", err)
		}
		data = []byte(text)
	}
	return decode(bytes.NewReader(data))
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(f)
}

func decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decode image: empty image")
	}
	return img, nil
}
