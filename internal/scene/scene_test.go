package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func approx(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-4 }

func TestAddReparents(t *testing.T) {
	a := NewNode("a")
	b := NewNode("b")
	child := NewNode("child")

	a.Add(child)
	b.Add(child)

	if child.Parent() != b {
		t.Errorf("parent = %v, want b", child.Parent())
	}
	if len(a.Children()) != 0 {
		t.Errorf("a still has %d children", len(a.Children()))
	}
	if len(b.Children()) != 1 {
		t.Errorf("b has %d children, want 1", len(b.Children()))
	}
}

func TestWorldMatrixComposesParents(t *testing.T) {
	root := NewNode("root")
	root.Position = mgl32.Vec3{1, 0, 0}
	root.Scale = mgl32.Vec3{2, 2, 2}

	child := NewNode("child")
	child.Position = mgl32.Vec3{0, 1, 0}
	root.Add(child)

	got := mgl32.TransformCoordinate(mgl32.Vec3{0, 0, 0}, child.WorldMatrix())
	want := mgl32.Vec3{1, 2, 0}
	if !got.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("world origin = %v, want %v", got, want)
	}
}

func TestWorldMatrixRotation(t *testing.T) {
	n := NewNode("n")
	n.Rotation = mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 1, 0})

	got := mgl32.TransformCoordinate(mgl32.Vec3{1, 0, 0}, n.WorldMatrix())
	want := mgl32.Vec3{0, 0, -1}
	if !approx(got.X(), want.X()) || !approx(got.Y(), want.Y()) || !approx(got.Z(), want.Z()) {
		t.Errorf("rotated = %v, want %v", got, want)
	}
}

func TestBoxFromObject(t *testing.T) {
	root := NewNode("root")
	mesh := NewMesh("cube", NewBox(2, 4, 6), NewMaterial("m", Color{}))
	mesh.Position = mgl32.Vec3{10, 0, 0}
	root.Add(mesh)
	root.Scale = mgl32.Vec3{0.5, 0.5, 0.5}

	box := BoxFromObject(root)
	if !box.Min.ApproxEqualThreshold(mgl32.Vec3{4.5, -1, -1.5}, 1e-5) {
		t.Errorf("min = %v", box.Min)
	}
	if !box.Max.ApproxEqualThreshold(mgl32.Vec3{5.5, 1, 1.5}, 1e-5) {
		t.Errorf("max = %v", box.Max)
	}
	if !box.Center().ApproxEqualThreshold(mgl32.Vec3{5, 0, 0}, 1e-5) {
		t.Errorf("center = %v", box.Center())
	}
	if !box.Size().ApproxEqualThreshold(mgl32.Vec3{1, 2, 3}, 1e-5) {
		t.Errorf("size = %v", box.Size())
	}
}

func TestEmptyBox(t *testing.T) {
	box := BoxFromObject(NewNode("empty"))
	if !box.IsEmpty() {
		t.Fatal("expected empty box")
	}
	if box.Size() != (mgl32.Vec3{}) || box.Center() != (mgl32.Vec3{}) {
		t.Errorf("empty box size/center = %v/%v", box.Size(), box.Center())
	}
	u := box.Union(Box{Min: mgl32.Vec3{1, 1, 1}, Max: mgl32.Vec3{2, 2, 2}})
	if u.IsEmpty() || u.Min != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("union = %+v", u)
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"#ffffff", Color{1, 1, 1}, false},
		{"000000", Color{0, 0, 0}, false},
		{"#9AA3AF", Color{154.0 / 255, 163.0 / 255, 175.0 / 255}, false},
		{"#fff", Color{}, true},
		{"#gggggg", Color{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHex(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && (!approx(got.R, tt.want.R) || !approx(got.G, tt.want.G) || !approx(got.B, tt.want.B)) {
			t.Errorf("ParseHex(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}

	if hex := MustHex("#9A5F61").Hex(); hex != "#9A5F61" {
		t.Errorf("Hex round trip = %s", hex)
	}
}

func TestMaterialCloneIsIndependent(t *testing.T) {
	shared := NewMaterial("skin", MustHex("#ffffff"))
	released := 0
	shared.OnDispose(func() { released++ })

	clone := shared.Clone()
	clone.Color = MustHex("#000000")
	clone.Dispose()

	if shared.Color != MustHex("#ffffff") {
		t.Error("clone mutated the original color")
	}
	if released != 0 {
		t.Error("disposing the clone released the original")
	}
}

func TestDisposeWalksAllMeshes(t *testing.T) {
	root := NewNode("root")
	group := NewNode("group")
	root.Add(group)

	var released []string
	for _, name := range []string{"a", "b"} {
		geo := NewBox(1, 1, 1)
		mat := NewMaterial(name, Color{})
		n := name
		geo.OnDispose(func() { released = append(released, n+".geo") })
		mat.OnDispose(func() { released = append(released, n+".mat") })
		group.Add(NewMesh(name, geo, mat))
	}

	root.Dispose()
	root.Dispose()

	if len(released) != 4 {
		t.Fatalf("released %v, want 4 entries exactly once", released)
	}
	for _, m := range root.Meshes() {
		if !m.Mesh.Geometry.Disposed() || !m.Mesh.Material.Disposed() {
			t.Errorf("%s not disposed", m.Name)
		}
	}
}

func TestGeometryDefaults(t *testing.T) {
	geo := NewGeometry([]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, nil, nil)
	if geo.TriangleCount() != 1 {
		t.Fatalf("triangles = %d", geo.TriangleCount())
	}
	if len(geo.Normals) != 3 {
		t.Fatalf("normals = %d", len(geo.Normals))
	}
	if !geo.Normals[0].ApproxEqual(mgl32.Vec3{0, 0, 1}) {
		t.Errorf("normal = %v, want +Z", geo.Normals[0])
	}
}

func TestPlaneFacesUp(t *testing.T) {
	plane := NewPlaneXZ(200, 200)
	box := plane.BoundingBox()
	if box.Size() != (mgl32.Vec3{200, 0, 200}) {
		t.Errorf("plane size = %v", box.Size())
	}
	for i := 0; i < plane.TriangleCount(); i++ {
		a, b, c, _ := plane.Triangle(i)
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Y() <= 0 {
			t.Errorf("triangle %d winds downward: %v", i, n)
		}
	}
}

func TestResetTransform(t *testing.T) {
	n := NewNode("group")
	n.Position = mgl32.Vec3{1, 2, 3}
	n.Rotation = mgl32.QuatRotate(1, mgl32.Vec3{1, 0, 0})
	n.ResetTransform()

	if n.WorldMatrix() != mgl32.Ident4() {
		t.Errorf("matrix after reset = %v", n.WorldMatrix())
	}
}
