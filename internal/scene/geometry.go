package scene

import "github.com/go-gl/mathgl/mgl32"

// Geometry is an indexed triangle list in local space.
type Geometry struct {
	resource

	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Indices   []uint32

	bounds *Box
}

// NewGeometry creates geometry, generating sequential indices when none are
// given and flat-accumulated normals when none are given.
func NewGeometry(positions []mgl32.Vec3, normals []mgl32.Vec3, indices []uint32) *Geometry {
	g := &Geometry{Positions: positions, Normals: normals, Indices: indices}
	if len(g.Indices) == 0 {
		g.Indices = make([]uint32, len(positions))
		for i := range g.Indices {
			g.Indices[i] = uint32(i)
		}
	}
	if len(g.Normals) != len(g.Positions) {
		g.ComputeNormals()
	}
	return g
}

// TriangleCount returns the number of complete triangles.
func (g *Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// Triangle returns the local-space corners of triangle i. ok is false when an
// index is out of range.
func (g *Geometry) Triangle(i int) (a, b, c mgl32.Vec3, ok bool) {
	i0, i1, i2 := g.Indices[i*3], g.Indices[i*3+1], g.Indices[i*3+2]
	n := uint32(len(g.Positions))
	if i0 >= n || i1 >= n || i2 >= n {
		return a, b, c, false
	}
	return g.Positions[i0], g.Positions[i1], g.Positions[i2], true
}

// BoundingBox returns the local-space bounds, computed once.
func (g *Geometry) BoundingBox() Box {
	if g.bounds == nil {
		b := EmptyBox()
		for _, p := range g.Positions {
			b = b.ExpandByPoint(p)
		}
		g.bounds = &b
	}
	return *g.bounds
}

// ComputeNormals rebuilds per-vertex normals by summing face normals.
func (g *Geometry) ComputeNormals() {
	normals := make([]mgl32.Vec3, len(g.Positions))
	for i := 0; i < g.TriangleCount(); i++ {
		a, b, c, ok := g.Triangle(i)
		if !ok {
			continue
		}
		fn := b.Sub(a).Cross(c.Sub(a))
		for _, idx := range g.Indices[i*3 : i*3+3] {
			normals[idx] = normals[idx].Add(fn)
		}
	}
	for i, n := range normals {
		if n.Len() > 0 {
			normals[i] = n.Normalize()
		} else {
			normals[i] = mgl32.Vec3{0, 1, 0}
		}
	}
	g.Normals = normals
}

// NewPlaneXZ creates a width×depth quad lying on y=0 facing +Y.
func NewPlaneXZ(width, depth float32) *Geometry {
	hw, hd := width/2, depth/2
	positions := []mgl32.Vec3{
		{-hw, 0, -hd},
		{hw, 0, -hd},
		{hw, 0, hd},
		{-hw, 0, hd},
	}
	up := mgl32.Vec3{0, 1, 0}
	normals := []mgl32.Vec3{up, up, up, up}
	return NewGeometry(positions, normals, []uint32{0, 2, 1, 0, 3, 2})
}

// NewBox creates an axis-aligned box geometry centered at the origin.
func NewBox(w, h, d float32) *Geometry {
	x, y, z := w/2, h/2, d/2
	positions := []mgl32.Vec3{
		{-x, -y, -z}, {x, -y, -z}, {x, y, -z}, {-x, y, -z},
		{-x, -y, z}, {x, -y, z}, {x, y, z}, {-x, y, z},
	}
	indices := []uint32{
		0, 2, 1, 0, 3, 2, // back
		4, 5, 6, 4, 6, 7, // front
		0, 1, 5, 0, 5, 4, // bottom
		3, 6, 2, 3, 7, 6, // top
		0, 4, 7, 0, 7, 3, // left
		1, 2, 6, 1, 6, 5, // right
	}
	return NewGeometry(positions, nil, indices)
}
