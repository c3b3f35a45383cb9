package geometry

import (
	"errors"
	"fmt"
)

// ErrNoCoordinates is returned when an event carries no usable coordinates,
// for example a touch event with an empty touch list.
var ErrNoCoordinates = errors.New("event carries no coordinates")

// InputExtractionError reports which event could not be resolved.
type InputExtractionError struct {
	Kind EventKind
	Err  error
}

func (e *InputExtractionError) Error() string {
	return fmt.Sprintf("resolve %s event: %v", e.Kind, e.Err)
}

func (e *InputExtractionError) Unwrap() error { return e.Err }

// EventKind tells pointer events from touch events.
type EventKind int

const (
	PointerEvent EventKind = iota
	TouchEvent
)

func (k EventKind) String() string {
	switch k {
	case PointerEvent:
		return "pointer"
	case TouchEvent:
		return "touch"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Touch is one contact point of a touch event, in client space.
type Touch struct {
	ClientX, ClientY float64
}

// Event is a pointer or touch input sample in client space.
type Event struct {
	Kind    EventKind
	ClientX float64
	ClientY float64
	Touches []Touch
}

// Pointer builds a pointer event at client coordinates (x, y).
func Pointer(x, y float64) Event {
	return Event{Kind: PointerEvent, ClientX: x, ClientY: y}
}

// TouchAt builds a touch event from its touch points.
func TouchAt(touches ...Touch) Event {
	return Event{Kind: TouchEvent, Touches: touches}
}

// Client returns the client coordinates of the event: the pointer position,
// or the first touch point.
func (e Event) Client() (x, y float64, err error) {
	if e.Kind != TouchEvent {
		return e.ClientX, e.ClientY, nil
	}
	if len(e.Touches) == 0 {
		return 0, 0, &InputExtractionError{Kind: e.Kind, Err: ErrNoCoordinates}
	}
	t := e.Touches[0]
	return t.ClientX, t.ClientY, nil
}
