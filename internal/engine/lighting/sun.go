// Package lighting provides the viewer's light rig.
package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/anatomy-viewer/internal/scene"
)

// SunDirection converts longitude/latitude angles to a light direction vector.
// Longitude is rotation around Y axis (0-360), latitude is elevation from horizon (0-90).
// Returns a normalized direction vector pointing towards the sun.
func SunDirection(longitude, latitude float32) mgl32.Vec3 {
	lonRad := float64(mgl32.DegToRad(longitude))
	latRad := float64(mgl32.DegToRad(latitude))

	// Spherical to Cartesian conversion
	x := float32(math.Cos(latRad) * math.Sin(lonRad))
	y := float32(math.Sin(latRad))
	z := float32(math.Cos(latRad) * math.Cos(lonRad))

	return mgl32.Vec3{x, y, z}
}

// Ambient lights every surface evenly.
type Ambient struct {
	Color     scene.Color
	Intensity float32
}

// Directional is a distant light that casts shadows.
type Directional struct {
	Color     scene.Color
	Intensity float32
	// Direction points from the scene toward the light.
	Direction   mgl32.Vec3
	CastShadows bool
	// ShadowExtent is the half-size of the square the shadow map covers.
	ShadowExtent float32
}

// Rig is the full set of lights in the scene.
type Rig struct {
	Ambient     Ambient
	Directional Directional
}

// NewRig builds a rig from hex colors and sun angles.
func NewRig(ambientHex string, ambient float32, sunHex string, sun float32, longitude, latitude float32) (Rig, error) {
	ac, err := scene.ParseHex(ambientHex)
	if err != nil {
		return Rig{}, err
	}
	sc, err := scene.ParseHex(sunHex)
	if err != nil {
		return Rig{}, err
	}
	return Rig{
		Ambient: Ambient{Color: ac, Intensity: ambient},
		Directional: Directional{
			Color:        sc,
			Intensity:    sun,
			Direction:    SunDirection(longitude, latitude),
			CastShadows:  true,
			ShadowExtent: 10,
		},
	}, nil
}

// LightSpace returns the orthographic view-projection for the directional
// shadow map, sized to enclose bounds. An empty box falls back to a square of
// ShadowExtent around the origin.
func (d Directional) LightSpace(bounds scene.Box) mgl32.Mat4 {
	center := bounds.Center()
	radius := bounds.Size().Len() / 2
	if bounds.IsEmpty() || radius == 0 {
		radius = d.ShadowExtent
	}
	if radius <= 0 {
		radius = 10
	}

	dir := d.Direction.Normalize()
	eye := center.Add(dir.Mul(radius * 2))
	up := mgl32.Vec3{0, 1, 0}
	// Nearly vertical light needs another up vector
	if math.Abs(float64(dir.Y())) > 0.99 {
		up = mgl32.Vec3{0, 0, 1}
	}
	view := mgl32.LookAtV(eye, center, up)
	proj := mgl32.Ortho(-radius, radius, -radius, radius, 0.1, radius*4)
	return proj.Mul4(view)
}
