package scene

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Color is a linear RGB color in [0, 1].
type Color struct {
	R, G, B float32
}

// ParseHex parses "#RRGGBB" or "RRGGBB".
func ParseHex(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return Color{}, fmt.Errorf("color %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return Color{
		R: float32((v>>16)&0xff) / 255,
		G: float32((v>>8)&0xff) / 255,
		B: float32(v&0xff) / 255,
	}, nil
}

// MustHex is ParseHex for compile-time constants.
func MustHex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats the color as #RRGGBB.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", to8(c.R), to8(c.G), to8(c.B))
}

// Vec3 returns the color as a vector for shader uniforms.
func (c Color) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{c.R, c.G, c.B}
}

func to8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Material is a flat-colored surface description.
type Material struct {
	resource

	Name        string
	Color       Color
	Opacity     float32
	DoubleSided bool
	DepthWrite  bool
	// ShadowOnly marks a shadow catcher: it only darkens where shadows land.
	ShadowOnly bool
}

// NewMaterial creates an opaque single-sided material.
func NewMaterial(name string, c Color) *Material {
	return &Material{Name: name, Color: c, Opacity: 1, DepthWrite: true}
}

// Clone returns an independent copy. Dispose callbacks are not copied.
func (m *Material) Clone() *Material {
	return &Material{
		Name:        m.Name,
		Color:       m.Color,
		Opacity:     m.Opacity,
		DoubleSided: m.DoubleSided,
		DepthWrite:  m.DepthWrite,
		ShadowOnly:  m.ShadowOnly,
	}
}
