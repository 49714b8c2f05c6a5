package asset

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/anatomy-viewer/internal/logger"
	"github.com/Faultbox/anatomy-viewer/internal/parts"
	"github.com/Faultbox/anatomy-viewer/internal/scene"
)

// ErrAttached is returned when Normalize is given a root that already has a parent.
var ErrAttached = errors.New("asset root is attached to a parent")

// Options controls normalization.
type Options struct {
	Scale   float32 // Uniform scale applied to the whole asset
	Neutral scene.Color
}

// Model is a loaded, normalized asset.
type Model struct {
	Root *scene.Node
	// Parts maps each part name to its first mesh.
	Parts map[string]*scene.Node
	// Names lists part names in traversal order without duplicates.
	Names []string
	// Bounds is the asset's bounding box after recentering, in root parent space.
	Bounds scene.Box
	// Target is the look-at point at the vertical midpoint of the model.
	Target mgl32.Vec3
}

// Meshes returns every renderable node of the model.
func (m *Model) Meshes() []*scene.Node {
	if m == nil || m.Root == nil {
		return nil
	}
	return m.Root.Meshes()
}

// Dispose releases the whole asset.
func (m *Model) Dispose() {
	if m != nil && m.Root != nil {
		m.Root.Dispose()
	}
}

// Normalize prepares a freshly loaded asset for display: part names and
// per-mesh materials are assigned, the asset is scaled, centered on X/Z and
// regrounded so its lowest point sits at y = 0. root must not have a parent.
func Normalize(root *scene.Node, opts Options) (*Model, error) {
	if root == nil {
		return nil, ErrNoMeshes
	}
	if root.Parent() != nil {
		return nil, ErrAttached
	}
	log := logger.Named("asset")

	m := &Model{Root: root, Parts: make(map[string]*scene.Node)}
	for i, n := range root.Meshes() {
		name := n.Mesh.PartName
		if name == "" {
			name = n.Name
		}
		if name == "" {
			name = fmt.Sprintf("mesh_%d", i)
		}
		n.Mesh.PartName = name
		if _, ok := m.Parts[name]; !ok {
			m.Parts[name] = n
			m.Names = append(m.Names, name)
		}

		var mat *scene.Material
		if n.Mesh.Material != nil {
			mat = n.Mesh.Material.Clone()
		} else {
			mat = scene.NewMaterial(name, opts.Neutral)
		}
		mat.Color = opts.Neutral
		mat.DoubleSided = true
		mat.DepthWrite = true
		n.Mesh.Material = mat
		n.Mesh.CastShadow = true
		n.Mesh.ReceiveShadow = true
	}
	if len(m.Parts) == 0 {
		return nil, ErrNoMeshes
	}

	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	root.Scale = mgl32.Vec3{scale, scale, scale}

	box := scene.BoxFromObject(root)
	if box.IsEmpty() {
		return nil, ErrNoMeshes
	}
	center := box.Center()
	root.Position = root.Position.Sub(mgl32.Vec3{center.X(), box.Min.Y(), center.Z()})

	m.Bounds = scene.BoxFromObject(root)
	m.Target = mgl32.Vec3{0, m.Bounds.Size().Y() / 2, 0}

	size := m.Bounds.Size()
	log.Debug("model normalized",
		zap.Strings("parts", m.Names),
		zap.Float32("scale", scale),
		zap.Float32s("size", size[:]),
		zap.Float32s("target", m.Target[:]))

	if missing := parts.Missing(m.Names); len(missing) > 0 {
		log.Warn("registered parts not found in asset", zap.Strings("parts", missing))
	}
	return m, nil
}
