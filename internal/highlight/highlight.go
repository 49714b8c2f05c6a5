// Package highlight keeps exactly one picked part colored as selected.
package highlight

import (
	"github.com/Faultbox/anatomy-viewer/internal/scene"
)

// Manager recolors part meshes on every pick.
type Manager struct {
	neutral  scene.Color
	selected scene.Color
	current  *scene.Node
}

// NewManager creates a manager with the given tones.
func NewManager(neutral, selected scene.Color) *Manager {
	return &Manager{neutral: neutral, selected: selected}
}

// Select resets every mesh under root to the neutral tone, then colors picked
// as selected. A nil picked clears the selection.
func (m *Manager) Select(root, picked *scene.Node) {
	if root != nil {
		for _, n := range root.Meshes() {
			if n.Mesh.Material != nil {
				n.Mesh.Material.Color = m.neutral
			}
		}
	}
	m.current = nil
	if picked == nil || !picked.IsMesh() || picked.Mesh.Material == nil {
		return
	}
	picked.Mesh.Material.Color = m.selected
	m.current = picked
}

// Selected returns the highlighted mesh, or nil.
func (m *Manager) Selected() *scene.Node {
	return m.current
}
