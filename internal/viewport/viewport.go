// Package viewport owns the zoom, pan and rotation state of the anatomy viewer
// and the camera quantities derived from it.
package viewport

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon guards camera distance against a zero zoom.
const Epsilon = 1e-3

// Vec2 is a screen-space offset in pixels.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v * s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Rotation is the model group orientation in radians.
type Rotation struct {
	Pitch float64 // Around X, clamped to [-π/2, π/2]
	Yaw   float64 // Around Y, unbounded
}

// State is an immutable snapshot of the viewport.
type State struct {
	Zoom     float64
	Pan      Vec2
	Rotation Rotation
}

// DefaultState is the state after mount and after reset.
func DefaultState() State {
	return State{Zoom: 1}
}

// Settings configures the Controller.
type Settings struct {
	ZoomMin      float64
	ZoomMax      float64
	ZoomStep     float64
	BaseDistance float64 // Camera Z at zoom 1
	PanScale     float64 // World units per pan pixel
}

// DefaultSettings mirrors the shipped viewer.
func DefaultSettings() Settings {
	return Settings{
		ZoomMin:      0.8,
		ZoomMax:      2.4,
		ZoomStep:     0.1,
		BaseDistance: 9,
		PanScale:     0.01,
	}
}

// Controller is the single writer of viewport state.
type Controller struct {
	settings Settings
	state    State
}

// NewController creates a controller at the default state.
func NewController(s Settings) *Controller {
	return &Controller{settings: s, state: DefaultState()}
}

// Settings returns the controller configuration.
func (c *Controller) Settings() Settings { return c.settings }

// Snapshot returns a copy of the current state for the render task.
func (c *Controller) Snapshot() State { return c.state }

// Zoom returns the current zoom scalar.
func (c *Controller) Zoom() float64 { return c.state.Zoom }

// CanPan reports whether panning may start (only while zoomed in).
func (c *Controller) CanPan() bool { return c.state.Zoom > 1 }

// Pan returns the current pan offset.
func (c *Controller) Pan() Vec2 { return c.state.Pan }

// StepZoom moves zoom one step in the sign of dir, clamped to the range.
// A zero dir leaves zoom unchanged.
func (c *Controller) StepZoom(dir int) float64 {
	switch {
	case dir > 0:
		c.SetZoom(c.state.Zoom + c.settings.ZoomStep)
	case dir < 0:
		c.SetZoom(c.state.Zoom - c.settings.ZoomStep)
	}
	return c.state.Zoom
}

// SetZoom sets zoom clamped to the configured range.
func (c *Controller) SetZoom(z float64) {
	// Quantize so repeated ±step lands on exact decimal values.
	z = math.Round(z*1e6) / 1e6
	c.state.Zoom = clamp(z, c.settings.ZoomMin, c.settings.ZoomMax)
}

// SetPan sets the pan offset directly.
func (c *Controller) SetPan(p Vec2) {
	c.state.Pan = p
}

// Rotate integrates a rotation delta. Pitch is clamped, yaw is not.
func (c *Controller) Rotate(dYaw, dPitch float64) {
	c.state.Rotation.Yaw += dYaw
	c.state.Rotation.Pitch = clamp(c.state.Rotation.Pitch+dPitch, -math.Pi/2, math.Pi/2)
}

// Reset restores zoom=1, pan=(0,0), rotation=(0,0).
func (c *Controller) Reset() {
	c.state = DefaultState()
}

// CameraDistance returns the camera Z for a state.
func (s Settings) CameraDistance(st State) float32 {
	return float32(s.BaseDistance / math.Max(st.Zoom, Epsilon))
}

// GroupPosition maps the pan offset to the model group position.
// Screen Y grows downward, world Y grows upward.
func (s Settings) GroupPosition(st State) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(st.Pan.X * s.PanScale),
		float32(-st.Pan.Y * s.PanScale),
		0,
	}
}

// GroupRotation returns the model group orientation for a state.
func GroupRotation(st State) mgl32.Quat {
	return mgl32.AnglesToQuat(float32(st.Rotation.Pitch), float32(st.Rotation.Yaw), 0, mgl32.XYZ)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
