// Package camera provides the perspective camera and damped look-at controls.
package camera

import (
	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl32"
)

// Perspective is a perspective camera looking at Target.
type Perspective struct {
	FOV    float32 // Vertical field of view, degrees
	Aspect float32
	Near   float32
	Far    float32

	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	projection mgl32.Mat4
}

// NewPerspective creates a camera and computes its projection.
func NewPerspective(fov, aspect, near, far float32) *Perspective {
	c := &Perspective{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Up:     mgl32.Vec3{0, 1, 0},
	}
	c.UpdateProjection()
	return c
}

// SetAspect changes the aspect ratio. Call UpdateProjection afterwards.
func (c *Perspective) SetAspect(aspect float32) {
	if aspect > 0 {
		c.Aspect = aspect
	}
}

// UpdateProjection recomputes the projection matrix from FOV/aspect/near/far.
func (c *Perspective) UpdateProjection() {
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	c.projection = mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

// ProjectionMatrix returns the cached projection.
func (c *Perspective) ProjectionMatrix() mgl32.Mat4 {
	return c.projection
}

// ViewMatrix returns the world-to-camera matrix.
func (c *Perspective) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// ViewProjection returns projection * view.
func (c *Perspective) ViewProjection() mgl32.Mat4 {
	return c.projection.Mul4(c.ViewMatrix())
}

// Controls eases the camera's look-at target toward a goal over several frames.
// With damping disabled the target snaps.
type Controls struct {
	camera  *Perspective
	goal    mgl32.Vec3
	damping bool
	spring  harmonica.Spring
	vel     [3]float64
}

// NewControls attaches controls to a camera. frequency is the spring's
// angular frequency; fps is the expected frame rate.
func NewControls(cam *Perspective, damping bool, frequency float64, fps int) *Controls {
	if fps <= 0 {
		fps = 60
	}
	return &Controls{
		camera:  cam,
		goal:    cam.Target,
		damping: damping,
		// Critically damped: settles without overshoot
		spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, 1.0),
	}
}

// SetTarget sets the look-at goal.
func (c *Controls) SetTarget(target mgl32.Vec3) {
	c.goal = target
	if !c.damping {
		c.camera.Target = target
	}
}

// Goal returns the look-at goal.
func (c *Controls) Goal() mgl32.Vec3 {
	return c.goal
}

// Update advances easing by one frame.
func (c *Controls) Update() {
	if !c.damping {
		c.camera.Target = c.goal
		return
	}
	for i := 0; i < 3; i++ {
		pos, vel := c.spring.Update(float64(c.camera.Target[i]), c.vel[i], float64(c.goal[i]))
		c.camera.Target[i] = float32(pos)
		c.vel[i] = vel
	}
}

// Dispose detaches the controls from the camera.
func (c *Controls) Dispose() {
	c.vel = [3]float64{}
	c.camera = &Perspective{}
}
