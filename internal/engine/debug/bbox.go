// Package debug provides debug visualization and capture utilities.
package debug

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/anatomy-viewer/internal/scene"
)

// BoxWireframeVertexCount is the number of vertices for a box wireframe (12 edges × 2).
const BoxWireframeVertexCount = 24

// boxEdges indexes Box.Corners pairwise.
var boxEdges = [12][2]int{
	// Bottom face
	{0, 1}, {1, 5}, {5, 4}, {4, 0},
	// Top face
	{2, 3}, {3, 7}, {7, 6}, {6, 2},
	// Vertical edges
	{0, 2}, {1, 3}, {5, 7}, {4, 6},
}

// BoxWireframe returns line-list vertices outlining b grown by padding on
// every side, as [x, y, z] per vertex. An empty box yields nil.
func BoxWireframe(b scene.Box, padding float32) []float32 {
	if b.IsEmpty() {
		return nil
	}
	pad := mgl32.Vec3{padding, padding, padding}
	b = scene.Box{Min: b.Min.Sub(pad), Max: b.Max.Add(pad)}

	corners := b.Corners()
	out := make([]float32, 0, BoxWireframeVertexCount*3)
	for _, e := range boxEdges {
		a, c := corners[e[0]], corners[e[1]]
		out = append(out, a[0], a[1], a[2], c[0], c[1], c[2])
	}
	return out
}
