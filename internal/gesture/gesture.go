// Package gesture classifies raw pointer and wheel input into viewport
// gestures: idle, panning, rotating, or a click that may pick a part.
package gesture

import (
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/anatomy-viewer/internal/logger"
	"github.com/Faultbox/anatomy-viewer/internal/viewport"
)

// Mode is the active drag gesture.
type Mode int

const (
	Idle Mode = iota
	Panning
	Rotating
)

func (m Mode) String() string {
	switch m {
	case Panning:
		return "panning"
	case Rotating:
		return "rotating"
	default:
		return "idle"
	}
}

// Button identifies a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

// Point is a cursor position in surface pixels.
type Point = viewport.Vec2

// Capturer leases pointer capture so drags keep receiving move/up events
// outside the drawing surface.
type Capturer interface {
	CapturePointer() error
	ReleasePointer() error
}

// Settings tunes gesture response.
type Settings struct {
	RotateSpeed    float64 // Radians per pixel of pointer velocity
	PanDivisor     float64 // Cursor pixels per pan pixel
	ClickTolerance float64 // Max drift in pixels for a click, per axis
}

// DefaultSettings mirrors the shipped viewer.
func DefaultSettings() Settings {
	return Settings{
		RotateSpeed:    0.01,
		PanDivisor:     2,
		ClickTolerance: 4,
	}
}

// Router is the gesture state machine. It is not safe for concurrent use;
// all calls happen on the UI thread.
type Router struct {
	settings Settings
	view     *viewport.Controller
	capture  Capturer
	log      *zap.Logger

	mode Mode

	// dragStart is the cursor at pointer-down; it survives pointer-up until
	// the following click is classified.
	dragStart *Point
	// panOrigin is the pan offset when Panning began.
	panOrigin Point
	// lastSample is the previous move sample while Rotating.
	lastSample Point
	captured   bool
}

// NewRouter creates a router driving the given controller. capture may be nil.
func NewRouter(s Settings, view *viewport.Controller, capture Capturer) *Router {
	return &Router{
		settings: s,
		view:     view,
		capture:  capture,
		log:      logger.Named("gesture"),
	}
}

// Mode returns the active gesture.
func (r *Router) Mode() Mode { return r.mode }

// Captured reports whether the pointer capture lease is held.
func (r *Router) Captured() bool { return r.captured }

// Wheel zooms one step. Positive deltaY (scroll down) zooms out.
func (r *Router) Wheel(deltaY float64) {
	if deltaY == 0 {
		return
	}
	prev := r.view.Zoom()
	dir := 1
	if deltaY > 0 {
		dir = -1
	}
	next := r.view.StepZoom(dir)
	r.log.Debug("wheel", zap.Float64("delta", deltaY), zap.Float64("prev", prev), zap.Float64("next", next))
}

// Down starts a gesture. Secondary starts rotating; primary starts panning
// only while zoomed in.
func (r *Router) Down(btn Button, p Point) {
	start := p
	r.dragStart = &start
	r.acquire()

	switch {
	case btn == ButtonSecondary:
		r.mode = Rotating
		r.lastSample = p
	case btn == ButtonPrimary && r.view.CanPan():
		r.mode = Panning
		r.panOrigin = r.view.Pan()
	}

	r.log.Debug("pointer down",
		zap.Int("button", int(btn)),
		zap.Float64("x", p.X),
		zap.Float64("y", p.Y),
		zap.Bool("can_pan", r.view.CanPan()),
		zap.Stringer("mode", r.mode),
	)
}

// Move advances the active gesture. Rotation integrates per-sample deltas;
// pan maps the absolute offset from the drag start.
func (r *Router) Move(p Point) {
	switch r.mode {
	case Rotating:
		d := p.Sub(r.lastSample)
		r.lastSample = p
		r.view.Rotate(d.X*r.settings.RotateSpeed, d.Y*r.settings.RotateSpeed)
	case Panning:
		if r.dragStart == nil {
			return
		}
		offset := p.Sub(*r.dragStart).Scale(1 / r.settings.PanDivisor)
		r.view.SetPan(r.panOrigin.Add(offset))
	}
}

// Up ends any gesture and releases pointer capture.
func (r *Router) Up(p Point) {
	if r.mode != Idle {
		r.log.Debug("end drag", zap.Stringer("mode", r.mode))
	}
	r.mode = Idle
	r.panOrigin = Point{}
	r.lastSample = Point{}
	if err := r.release(); err != nil {
		r.log.Debug("pointer release failed", zap.Error(err))
	}
}

// Click reports whether a click at p qualifies as a pick: no drag gesture is
// active and the cursor stayed within tolerance of its pointer-down position.
// The pointer-down record is consumed.
func (r *Router) Click(p Point) bool {
	start := r.dragStart
	r.dragStart = nil

	if r.mode != Idle {
		return false
	}
	if start != nil {
		tol := r.settings.ClickTolerance
		if math.Abs(p.X-start.X) > tol || math.Abs(p.Y-start.Y) > tol {
			r.log.Debug("click suppressed after drag")
			return false
		}
	}
	return true
}

// Cancel drops all gesture state and the capture lease, for teardown and
// focus loss.
func (r *Router) Cancel() error {
	r.mode = Idle
	r.dragStart = nil
	return r.release()
}

func (r *Router) acquire() {
	if r.capture == nil || r.captured {
		return
	}
	if err := r.capture.CapturePointer(); err != nil {
		r.log.Warn("pointer capture failed", zap.Error(err))
		return
	}
	r.captured = true
}

func (r *Router) release() error {
	if r.capture == nil || !r.captured {
		return nil
	}
	r.captured = false
	return r.capture.ReleasePointer()
}
