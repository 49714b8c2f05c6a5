// Package scene is the minimal scene graph the viewer renders and picks
// against: transform nodes, meshes, geometry, materials and bounding boxes.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Node is a transform in the scene graph. A node carrying a Mesh is renderable.
type Node struct {
	Name     string
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
	// Matrix, when set, replaces the position/rotation/scale local transform.
	Matrix  *mgl32.Mat4
	Visible bool
	Mesh    *Mesh

	parent   *Node
	children []*Node
}

// Mesh binds geometry to a material on a node.
type Mesh struct {
	Geometry      *Geometry
	Material      *Material
	CastShadow    bool
	ReceiveShadow bool
	// PartName is the stable name recorded at load time for picking.
	PartName string
}

// NewNode creates an empty transform node with identity transform.
func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
		Visible:  true,
	}
}

// NewMesh creates a renderable node.
func NewMesh(name string, geo *Geometry, mat *Material) *Node {
	n := NewNode(name)
	n.Mesh = &Mesh{Geometry: geo, Material: mat}
	return n
}

// IsMesh reports whether the node is renderable.
func (n *Node) IsMesh() bool {
	return n.Mesh != nil && n.Mesh.Geometry != nil
}

// Parent returns the parent node or nil.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the direct children. The slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// Add attaches child to n, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child from n.
func (n *Node) Remove(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// Traverse visits n and all descendants depth-first, parents before children.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// Meshes returns all renderable nodes under n, including n.
func (n *Node) Meshes() []*Node {
	var out []*Node
	n.Traverse(func(c *Node) {
		if c.IsMesh() {
			out = append(out, c)
		}
	})
	return out
}

// ResetTransform snaps the node to identity transform.
func (n *Node) ResetTransform() {
	n.Position = mgl32.Vec3{}
	n.Rotation = mgl32.QuatIdent()
	n.Scale = mgl32.Vec3{1, 1, 1}
	n.Matrix = nil
}

// LocalMatrix returns T * R * S (or the explicit Matrix).
func (n *Node) LocalMatrix() mgl32.Mat4 {
	if n.Matrix != nil {
		return *n.Matrix
	}
	t := mgl32.Translate3D(n.Position.X(), n.Position.Y(), n.Position.Z())
	r := n.Rotation.Normalize().Mat4()
	s := mgl32.Scale3D(n.Scale.X(), n.Scale.Y(), n.Scale.Z())
	return t.Mul4(r).Mul4(s)
}

// WorldMatrix composes local matrices from the root down to n.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.LocalMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

// Dispose releases geometry and material buffers of every mesh under n.
// Safe to call more than once.
func (n *Node) Dispose() {
	n.Traverse(func(c *Node) {
		if c.Mesh == nil {
			return
		}
		if c.Mesh.Geometry != nil {
			c.Mesh.Geometry.Dispose()
		}
		if c.Mesh.Material != nil {
			c.Mesh.Material.Dispose()
		}
	})
}
