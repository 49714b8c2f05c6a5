package gesture

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/Faultbox/anatomy-viewer/internal/viewport"
)

type fakeCapture struct {
	captures int
	releases int
	fail     bool
}

func (f *fakeCapture) CapturePointer() error {
	if f.fail {
		return errors.New("no capture")
	}
	f.captures++
	return nil
}

func (f *fakeCapture) ReleasePointer() error {
	f.releases++
	return nil
}

func newRouter() (*Router, *viewport.Controller, *fakeCapture) {
	view := viewport.NewController(viewport.DefaultSettings())
	capture := &fakeCapture{}
	return NewRouter(DefaultSettings(), view, capture), view, capture
}

func TestWheelDirection(t *testing.T) {
	r, view, _ := newRouter()

	for i := 0; i < 3; i++ {
		r.Wheel(100)
	}
	if math.Abs(view.Zoom()-0.8) > 1e-9 {
		t.Errorf("three zoom-out events: zoom = %v, want 0.8", view.Zoom())
	}

	r.Wheel(-100)
	if math.Abs(view.Zoom()-0.9) > 1e-9 {
		t.Errorf("zoom-in event: zoom = %v, want 0.9", view.Zoom())
	}

	r.Wheel(0)
	if math.Abs(view.Zoom()-0.9) > 1e-9 {
		t.Errorf("zero delta changed zoom to %v", view.Zoom())
	}
}

func TestRightDragRotatesByVelocity(t *testing.T) {
	r, view, _ := newRouter()

	r.Down(ButtonSecondary, Point{X: 10, Y: 10})
	if r.Mode() != Rotating {
		t.Fatalf("mode = %v, want rotating", r.Mode())
	}
	r.Move(Point{X: 110, Y: 10})
	r.Up(Point{X: 110, Y: 10})

	if got := view.Snapshot().Rotation.Yaw; math.Abs(got-1.0) > 1e-9 {
		t.Errorf("yaw after one drag = %v, want 1.0", got)
	}

	r.Down(ButtonSecondary, Point{X: 10, Y: 10})
	r.Move(Point{X: 110, Y: 10})
	r.Up(Point{X: 110, Y: 10})

	if got := view.Snapshot().Rotation.Yaw; math.Abs(got-2.0) > 1e-9 {
		t.Errorf("yaw after two drags = %v, want 2.0", got)
	}
}

func TestRotationIntegratesSamples(t *testing.T) {
	r, view, _ := newRouter()

	r.Down(ButtonSecondary, Point{X: 0, Y: 0})
	// Back and forth sums to zero net motion
	r.Move(Point{X: 50, Y: 0})
	r.Move(Point{X: 0, Y: 0})
	r.Move(Point{X: 30, Y: 20})

	st := view.Snapshot()
	if math.Abs(st.Rotation.Yaw-0.3) > 1e-9 {
		t.Errorf("yaw = %v, want 0.3", st.Rotation.Yaw)
	}
	if math.Abs(st.Rotation.Pitch-0.2) > 1e-9 {
		t.Errorf("pitch = %v, want 0.2", st.Rotation.Pitch)
	}
}

func TestPitchStaysClampedForRandomDrags(t *testing.T) {
	r, view, _ := newRouter()
	rng := rand.New(rand.NewSource(42))

	for drag := 0; drag < 50; drag++ {
		p := Point{X: rng.Float64() * 800, Y: rng.Float64() * 600}
		r.Down(ButtonSecondary, p)
		for i := 0; i < 20; i++ {
			p = Point{X: rng.Float64()*4000 - 2000, Y: rng.Float64()*4000 - 2000}
			r.Move(p)
			pitch := view.Snapshot().Rotation.Pitch
			if pitch < -math.Pi/2 || pitch > math.Pi/2 {
				t.Fatalf("pitch %v escaped [-π/2, π/2]", pitch)
			}
		}
		r.Up(p)
	}
}

func TestLeftDragDoesNotPanAtZoomOne(t *testing.T) {
	r, view, _ := newRouter()

	r.Down(ButtonPrimary, Point{X: 100, Y: 100})
	if r.Mode() != Idle {
		t.Fatalf("mode = %v, want idle", r.Mode())
	}
	r.Move(Point{X: 300, Y: 250})
	r.Up(Point{X: 300, Y: 250})

	if view.Pan() != (viewport.Vec2{}) {
		t.Errorf("pan = %+v, want unchanged", view.Pan())
	}

	// Zoomed out is no different
	r.Wheel(100)
	r.Down(ButtonPrimary, Point{X: 0, Y: 0})
	r.Move(Point{X: 40, Y: 40})
	r.Up(Point{X: 40, Y: 40})
	if view.Pan() != (viewport.Vec2{}) {
		t.Errorf("pan at zoom %v = %+v, want unchanged", view.Zoom(), view.Pan())
	}
}

func TestLeftDragPansFromDragStart(t *testing.T) {
	r, view, _ := newRouter()
	r.Wheel(-1)

	r.Down(ButtonPrimary, Point{X: 100, Y: 100})
	if r.Mode() != Panning {
		t.Fatalf("mode = %v, want panning", r.Mode())
	}
	r.Move(Point{X: 120, Y: 90})
	r.Move(Point{X: 140, Y: 80})
	r.Up(Point{X: 140, Y: 80})

	// Absolute offset from drag start halved, not summed per sample
	if want := (viewport.Vec2{X: 20, Y: -10}); view.Pan() != want {
		t.Errorf("pan = %+v, want %+v", view.Pan(), want)
	}

	// A second drag continues from the previous offset
	r.Down(ButtonPrimary, Point{X: 0, Y: 0})
	r.Move(Point{X: 10, Y: 10})
	r.Up(Point{X: 10, Y: 10})
	if want := (viewport.Vec2{X: 25, Y: -5}); view.Pan() != want {
		t.Errorf("pan = %+v, want %+v", view.Pan(), want)
	}
}

func TestClickClassification(t *testing.T) {
	tests := []struct {
		name string
		down Point
		up   Point
		want bool
	}{
		{"still", Point{X: 50, Y: 50}, Point{X: 50, Y: 50}, true},
		{"within tolerance", Point{X: 50, Y: 50}, Point{X: 54, Y: 46}, true},
		{"drift x", Point{X: 50, Y: 50}, Point{X: 55, Y: 50}, false},
		{"drift y", Point{X: 50, Y: 50}, Point{X: 50, Y: 44.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newRouter()
			r.Down(ButtonPrimary, tt.down)
			r.Move(tt.up)
			r.Up(tt.up)
			if got := r.Click(tt.up); got != tt.want {
				t.Errorf("Click = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClickSuppressedAfterRotateDrag(t *testing.T) {
	r, _, _ := newRouter()
	r.Down(ButtonSecondary, Point{X: 0, Y: 0})
	r.Move(Point{X: 30, Y: 0})
	r.Up(Point{X: 30, Y: 0})

	if r.Click(Point{X: 30, Y: 0}) {
		t.Error("drag should not produce a pick")
	}
}

func TestClickDuringActiveGestureSuppressed(t *testing.T) {
	r, _, _ := newRouter()
	r.Down(ButtonSecondary, Point{X: 0, Y: 0})

	if r.Click(Point{X: 0, Y: 0}) {
		t.Error("click while rotating should be suppressed")
	}
}

func TestClickConsumesDragStart(t *testing.T) {
	r, _, _ := newRouter()
	r.Down(ButtonPrimary, Point{X: 0, Y: 0})
	r.Up(Point{X: 100, Y: 0})
	if r.Click(Point{X: 100, Y: 0}) {
		t.Fatal("drift click should be suppressed")
	}
	// Synthetic click without a press is allowed
	if !r.Click(Point{X: 100, Y: 0}) {
		t.Error("click without a preceding press should qualify")
	}
}

func TestPointerCaptureLease(t *testing.T) {
	r, _, capture := newRouter()

	r.Down(ButtonPrimary, Point{})
	if !r.Captured() || capture.captures != 1 {
		t.Fatalf("expected capture on pointer down, got %+v", capture)
	}
	r.Up(Point{})
	if r.Captured() || capture.releases != 1 {
		t.Fatalf("expected release on pointer up, got %+v", capture)
	}

	r.Down(ButtonSecondary, Point{})
	if err := r.Cancel(); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if r.Captured() || capture.releases != 2 {
		t.Errorf("expected release on cancel, got %+v", capture)
	}
	if r.Mode() != Idle {
		t.Errorf("mode after cancel = %v", r.Mode())
	}
}

func TestCaptureFailureIsNotFatal(t *testing.T) {
	view := viewport.NewController(viewport.DefaultSettings())
	capture := &fakeCapture{fail: true}
	r := NewRouter(DefaultSettings(), view, capture)

	r.Down(ButtonSecondary, Point{})
	r.Move(Point{X: 10})
	if r.Captured() {
		t.Error("capture should not be held after failure")
	}
	if view.Snapshot().Rotation.Yaw == 0 {
		t.Error("rotation should proceed without capture")
	}
	r.Up(Point{X: 10})
	if capture.releases != 0 {
		t.Error("nothing to release after failed capture")
	}
}

func TestNilCapturer(t *testing.T) {
	view := viewport.NewController(viewport.DefaultSettings())
	r := NewRouter(DefaultSettings(), view, nil)
	r.Down(ButtonPrimary, Point{})
	r.Up(Point{})
	r.Cancel()
}
