package compositor

import (
	"errors"
	"fmt"
)

var (
	// ErrBadStatus is the cause of a LoadError for a non-2xx response.
	ErrBadStatus = errors.New("unexpected response status")
	// ErrCORSRejected is returned when a cross-origin load is not allowed by
	// the server's Access-Control-Allow-Origin header.
	ErrCORSRejected = errors.New("cross-origin load not allowed")
	// ErrUnsupportedSource is returned for URL schemes no loader handles.
	ErrUnsupportedSource = errors.New("unsupported image source")
)

// LoadError is returned when an image cannot be fetched or decoded.
type LoadError struct {
	URL   string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("image load failed for %s: %v", e.URL, e.Cause)
}

func (e *LoadError) Unwrap() error { return e.Cause }

// DrawLoadError is the terminal error of DrawImageFitted: every attempt,
// including the retry without CORS, failed.
type DrawLoadError struct {
	URL      string
	Attempts int
	Cause    error
}

func (e *DrawLoadError) Error() string {
	return fmt.Sprintf("failed to load image %s after %d attempt(s): %v", e.URL, e.Attempts, e.Cause)
}

func (e *DrawLoadError) Unwrap() error { return e.Cause }
