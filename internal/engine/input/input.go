// Package input translates SDL2 events into viewer events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/anatomy-viewer/internal/gesture"
)

// EventType identifies a viewer event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventResize
	EventKeyDown
	EventWheel
	EventPointerDown
	EventPointerMove
	EventPointerUp
	EventClick
	EventFocusLost
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	X      float64
	Y      float64
	Button gesture.Button
	// DeltaY follows the browser convention: positive scrolls down.
	DeltaY float64
}

// Input handles all input processing.
type Input struct {
	events []Event
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update polls SDL events and converts them to viewer events.
// Returns true if the viewer should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		i.events = Translate(i.events, event)
	}
	for _, e := range i.events {
		if e.Type == EventQuit {
			quit = true
		}
	}
	return quit
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// Translate appends the viewer events for one SDL event to dst. A button
// release yields a pointer-up followed by a click, as a browser would.
func Translate(dst []Event, event sdl.Event) []Event {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		dst = append(dst, Event{Type: EventQuit})

	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_SIZE_CHANGED:
			dst = append(dst, Event{Type: EventResize, Width: int(e.Data1), Height: int(e.Data2)})
		case sdl.WINDOWEVENT_FOCUS_LOST:
			dst = append(dst, Event{Type: EventFocusLost})
		}

	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN && e.Repeat == 0 {
			dst = append(dst, Event{Type: EventKeyDown, Key: e.Keysym.Scancode})
		}

	case *sdl.MouseWheelEvent:
		y := e.Y
		if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
			y = -y
		}
		if y != 0 {
			// SDL reports scrolling away from the user as positive.
			dst = append(dst, Event{Type: EventWheel, DeltaY: float64(-y)})
		}

	case *sdl.MouseMotionEvent:
		dst = append(dst, Event{Type: EventPointerMove, X: float64(e.X), Y: float64(e.Y)})

	case *sdl.MouseButtonEvent:
		btn, ok := button(e.Button)
		if !ok {
			break
		}
		ev := Event{X: float64(e.X), Y: float64(e.Y), Button: btn}
		switch e.Type {
		case sdl.MOUSEBUTTONDOWN:
			ev.Type = EventPointerDown
			dst = append(dst, ev)
		case sdl.MOUSEBUTTONUP:
			ev.Type = EventPointerUp
			dst = append(dst, ev)
			if btn == gesture.ButtonPrimary {
				ev.Type = EventClick
				dst = append(dst, ev)
			}
		}
	}
	return dst
}

func button(b uint8) (gesture.Button, bool) {
	switch b {
	case sdl.BUTTON_LEFT:
		return gesture.ButtonPrimary, true
	case sdl.BUTTON_MIDDLE:
		return gesture.ButtonMiddle, true
	case sdl.BUTTON_RIGHT:
		return gesture.ButtonSecondary, true
	}
	return 0, false
}
