package app

import (
	"github.com/Faultbox/anatomy-viewer/internal/engine/camera"
	"github.com/Faultbox/anatomy-viewer/internal/engine/lighting"
	"github.com/Faultbox/anatomy-viewer/internal/scene"
)

// drawTarget is the part of renderer.Renderer the viewer drives.
type drawTarget interface {
	SetSize(width, height int)
	Render(root *scene.Node, cam *camera.Perspective, rig lighting.Rig, background scene.Color)
	ShowBounds(b *scene.Box)
	Dispose() error
}

// surface sizes the renderer in drawable pixels while the viewer works in
// window coordinates, so pointer picking stays correct on high-DPI displays.
type surface struct {
	target   drawTarget
	drawable func() (int, int)
}

func (s *surface) SetSize(width, height int) {
	if dw, dh := s.drawable(); dw > 0 && dh > 0 {
		width, height = dw, dh
	}
	s.target.SetSize(width, height)
}

func (s *surface) Render(root *scene.Node, cam *camera.Perspective, rig lighting.Rig, background scene.Color) {
	s.target.Render(root, cam, rig, background)
}

func (s *surface) ShowBounds(b *scene.Box) { s.target.ShowBounds(b) }

func (s *surface) Dispose() error { return s.target.Dispose() }
