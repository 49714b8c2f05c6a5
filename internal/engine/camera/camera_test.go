package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestProjectionFollowsAspect(t *testing.T) {
	cam := NewPerspective(60, 1, 0.1, 1000)
	square := cam.ProjectionMatrix()

	cam.SetAspect(2)
	cam.UpdateProjection()
	wide := cam.ProjectionMatrix()

	// X scale halves when the surface doubles in width
	if math.Abs(float64(wide[0]*2-square[0])) > 1e-5 {
		t.Errorf("x scale %v vs %v", wide[0], square[0])
	}
	if wide[5] != square[5] {
		t.Errorf("y scale changed: %v vs %v", wide[5], square[5])
	}
}

func TestSetAspectIgnoresNonPositive(t *testing.T) {
	cam := NewPerspective(60, 1.5, 0.1, 1000)
	cam.SetAspect(0)
	cam.SetAspect(-3)
	if cam.Aspect != 1.5 {
		t.Errorf("aspect = %v, want 1.5", cam.Aspect)
	}
}

func TestViewProjectionCentersTarget(t *testing.T) {
	cam := NewPerspective(60, 1, 0.1, 1000)
	cam.Position = mgl32.Vec3{0, 1.6, 9}
	cam.Target = mgl32.Vec3{0, 1.6, 0}

	clip := cam.ViewProjection().Mul4x1(mgl32.Vec4{0, 1.6, 0, 1})
	ndc := clip.Vec3().Mul(1 / clip.W())
	if math.Abs(float64(ndc.X())) > 1e-5 || math.Abs(float64(ndc.Y())) > 1e-5 {
		t.Errorf("target projects to %v, want screen center", ndc)
	}
}

func TestControlsDampedConverges(t *testing.T) {
	cam := NewPerspective(60, 1, 0.1, 1000)
	ctl := NewControls(cam, true, 6, 60)

	ctl.SetTarget(mgl32.Vec3{0, 3, 0})
	ctl.Update()
	if cam.Target.Y() <= 0 || cam.Target.Y() >= 3 {
		t.Fatalf("first damped frame target = %v, want strictly between", cam.Target)
	}

	for i := 0; i < 600; i++ {
		ctl.Update()
	}
	if math.Abs(float64(cam.Target.Y()-3)) > 1e-3 {
		t.Errorf("target after settling = %v, want ~3", cam.Target)
	}
}

func TestControlsUndampedSnaps(t *testing.T) {
	cam := NewPerspective(60, 1, 0.1, 1000)
	ctl := NewControls(cam, false, 6, 60)

	ctl.SetTarget(mgl32.Vec3{1, 2, 3})
	if cam.Target != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("target = %v, want snapped", cam.Target)
	}
	ctl.Update()
	if ctl.Goal() != cam.Target {
		t.Errorf("goal %v != target %v", ctl.Goal(), cam.Target)
	}
}
