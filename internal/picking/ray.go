// Package picking provides ray casting against the scene graph.
package picking

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/anatomy-viewer/internal/scene"
)

// triangleEpsilon rejects rays parallel to a triangle's plane.
const triangleEpsilon = 1e-7

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3 // Normalized direction
}

// Rect is the drawing surface's bounding rectangle in client pixels.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// ToNDC maps a client-space cursor position to normalized device coordinates
// relative to rect. ok is false for a zero-sized rect.
func ToNDC(x, y float64, rect Rect) (ndc mgl32.Vec2, ok bool) {
	if rect.Width <= 0 || rect.Height <= 0 {
		return ndc, false
	}
	ndc[0] = float32((x-rect.X)/rect.Width*2 - 1)
	ndc[1] = float32(-((y-rect.Y)/rect.Height)*2 + 1) // Flip Y
	return ndc, true
}

// ScreenToRay unprojects an NDC point to a world-space ray.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(ndc mgl32.Vec2, invViewProj mgl32.Mat4) Ray {
	nearWorld := invViewProj.Mul4x1(mgl32.Vec4{ndc[0], ndc[1], -1, 1})
	farWorld := invViewProj.Mul4x1(mgl32.Vec4{ndc[0], ndc[1], 1, 1})

	// Perspective divide
	near := nearWorld.Vec3()
	if nearWorld[3] != 0 {
		near = near.Mul(1 / nearWorld[3])
	}
	far := farWorld.Vec3()
	if farWorld[3] != 0 {
		far = far.Mul(1 / farWorld[3])
	}

	dir := far.Sub(near)
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return Ray{Origin: near, Direction: dir}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box scene.Box) (t float32, hit bool) {
	if box.IsEmpty() {
		return 0, false
	}
	tmin := float32(-math.MaxFloat32)
	tmax := float32(math.MaxFloat32)

	for axis := 0; axis < 3; axis++ {
		if r.Direction[axis] == 0 {
			if r.Origin[axis] < box.Min[axis] || r.Origin[axis] > box.Max[axis] {
				return 0, false
			}
			continue
		}
		t1 := (box.Min[axis] - r.Origin[axis]) / r.Direction[axis]
		t2 := (box.Max[axis] - r.Origin[axis]) / r.Direction[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectTriangle runs the Möller–Trumbore test against triangle abc.
// Triangles wound clockwise as seen from the ray are skipped unless
// doubleSided is set.
func (r Ray) IntersectTriangle(a, b, c mgl32.Vec3, doubleSided bool) (t float32, hit bool) {
	edge1 := b.Sub(a)
	edge2 := c.Sub(a)
	p := r.Direction.Cross(edge2)
	det := edge1.Dot(p)

	if doubleSided {
		if det > -triangleEpsilon && det < triangleEpsilon {
			return 0, false
		}
	} else if det < triangleEpsilon {
		return 0, false
	}

	inv := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(edge1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = edge2.Dot(q) * inv
	if t <= triangleEpsilon {
		return 0, false
	}
	return t, true
}
