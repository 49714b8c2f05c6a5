package picking

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/anatomy-viewer/internal/scene"
)

// Hit is the nearest intersection of a ray with a mesh.
type Hit struct {
	Node     *scene.Node
	Distance float32
	Point    mgl32.Vec3
}

// PartName returns the name recorded on the hit mesh at load time, falling
// back to the node name.
func (h Hit) PartName() string {
	if h.Node == nil {
		return ""
	}
	if h.Node.Mesh != nil && h.Node.Mesh.PartName != "" {
		return h.Node.Mesh.PartName
	}
	return h.Node.Name
}

// Pick intersects the ray with every visible mesh under root and returns the
// nearest hit. Nodes outside root are never considered.
func Pick(ray Ray, root *scene.Node) (Hit, bool) {
	best := Hit{Distance: float32(math.MaxFloat32)}
	found := false
	if root == nil {
		return best, false
	}

	var walk func(n *scene.Node)
	walk = func(n *scene.Node) {
		if !n.Visible {
			return
		}
		if n.IsMesh() && !n.Mesh.Geometry.Disposed() {
			if t, ok := intersectMesh(ray, n, best.Distance); ok {
				best = Hit{Node: n, Distance: t, Point: ray.At(t)}
				found = true
			}
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(root)
	return best, found
}

// intersectMesh returns the nearest world-space hit closer than limit.
func intersectMesh(ray Ray, n *scene.Node, limit float32) (float32, bool) {
	world := n.WorldMatrix()
	geo := n.Mesh.Geometry

	if _, ok := ray.IntersectAABB(geo.BoundingBox().Transform(world)); !ok {
		return 0, false
	}

	doubleSided := n.Mesh.Material != nil && n.Mesh.Material.DoubleSided
	// Mirroring transforms flip winding.
	flip := world.Det() < 0

	nearest, found := limit, false
	for i := 0; i < geo.TriangleCount(); i++ {
		a, b, c, ok := geo.Triangle(i)
		if !ok {
			continue
		}
		a = mgl32.TransformCoordinate(a, world)
		b = mgl32.TransformCoordinate(b, world)
		c = mgl32.TransformCoordinate(c, world)
		if flip {
			b, c = c, b
		}
		if t, ok := ray.IntersectTriangle(a, b, c, doubleSided); ok && t < nearest {
			nearest, found = t, true
		}
	}
	return nearest, found
}
