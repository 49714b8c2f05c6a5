// Package asset loads the anatomical model and normalizes it for display.
package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/anatomy-viewer/internal/logger"
	"github.com/Faultbox/anatomy-viewer/internal/scene"
)

var (
	// ErrNoScene is returned when the document has no scene to instantiate.
	ErrNoScene = errors.New("asset has no scene")
	// ErrNoMeshes is returned when the scene contains no triangle meshes.
	ErrNoMeshes = errors.New("asset has no meshes")
)

// ProgressFunc receives bytes read so far and the total, or -1 when unknown.
type ProgressFunc func(loaded, total int64)

// Load reads a glTF or GLB asset from a filesystem path or http(s) URL and
// builds a scene graph from its default scene.
func Load(ctx context.Context, ref string, progress ProgressFunc) (*scene.Node, error) {
	log := logger.Named("asset")

	doc, err := decode(ctx, ref, progress)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ref, err)
	}

	root, err := build(doc)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ref, err)
	}
	log.Info("asset loaded",
		zap.String("ref", ref),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("meshes", len(root.Meshes())))
	return root, nil
}

func decode(ctx context.Context, ref string, progress ProgressFunc) (*gltf.Document, error) {
	if isURL(ref) {
		return decodeURL(ctx, ref, progress)
	}
	return decodeFile(ctx, ref, progress)
}

func isURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func decodeFile(ctx context.Context, path string, progress ProgressFunc) (*gltf.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	total := int64(-1)
	if info, err := f.Stat(); err == nil {
		total = info.Size()
	}

	doc := new(gltf.Document)
	r := newProgressReader(ctx, f, total, progress)
	if err := gltf.NewDecoderFS(r, os.DirFS(filepath.Dir(path))).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return doc, nil
}

func decodeURL(ctx context.Context, url string, progress ProgressFunc) (*gltf.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: %s", resp.Status)
	}

	// External buffers cannot be resolved relative to a URL, so only
	// self-contained assets (GLB or embedded data URIs) load this way.
	data, err := io.ReadAll(newProgressReader(ctx, resp.Body, resp.ContentLength, progress))
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return doc, nil
}

// progressReader reports cumulative reads and stops early on cancellation.
type progressReader struct {
	ctx      context.Context
	r        io.Reader
	loaded   int64
	total    int64
	progress ProgressFunc
}

func newProgressReader(ctx context.Context, r io.Reader, total int64, progress ProgressFunc) *progressReader {
	return &progressReader{ctx: ctx, r: r, total: total, progress: progress}
}

func (p *progressReader) Read(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		if p.progress != nil {
			p.progress(p.loaded, p.total)
		}
	}
	return n, err
}

// builder converts a decoded document into scene nodes.
type builder struct {
	doc       *gltf.Document
	materials map[int]*scene.Material
	fallback  *scene.Material
	meshes    int
}

func build(doc *gltf.Document) (*scene.Node, error) {
	if len(doc.Scenes) == 0 {
		return nil, ErrNoScene
	}
	idx := 0
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		idx = *doc.Scene
	}
	sc := doc.Scenes[idx]

	b := &builder{doc: doc, materials: make(map[int]*scene.Material)}
	root := scene.NewNode(sc.Name)
	for _, ni := range sc.Nodes {
		child, err := b.node(ni, 0)
		if err != nil {
			return nil, err
		}
		root.Add(child)
	}
	if b.meshes == 0 {
		return nil, ErrNoMeshes
	}
	return root, nil
}

// maxDepth bounds node recursion so a cyclic document cannot overflow the stack.
const maxDepth = 64

func (b *builder) node(index, depth int) (*scene.Node, error) {
	if index < 0 || index >= len(b.doc.Nodes) {
		return nil, fmt.Errorf("node %d out of range", index)
	}
	if depth > maxDepth {
		return nil, fmt.Errorf("node %d: hierarchy deeper than %d", index, maxDepth)
	}
	gn := b.doc.Nodes[index]

	n := scene.NewNode(gn.Name)
	if m := gn.MatrixOrDefault(); m != gltf.DefaultMatrix {
		var mat mgl32.Mat4
		for i, v := range m {
			mat[i] = float32(v)
		}
		n.Matrix = &mat
	} else {
		t, r, s := gn.TranslationOrDefault(), gn.RotationOrDefault(), gn.ScaleOrDefault()
		n.Position = mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])}
		n.Rotation = mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
		n.Scale = mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])}
	}

	if gn.Mesh != nil {
		if err := b.attachMesh(n, *gn.Mesh); err != nil {
			return nil, fmt.Errorf("node %q: %w", gn.Name, err)
		}
	}

	for _, ci := range gn.Children {
		child, err := b.node(ci, depth+1)
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

// attachMesh turns the node into a mesh, or gives it one child mesh per
// primitive when there are several. Every primitive carries the part name.
func (b *builder) attachMesh(n *scene.Node, meshIndex int) error {
	if meshIndex < 0 || meshIndex >= len(b.doc.Meshes) {
		return fmt.Errorf("mesh %d out of range", meshIndex)
	}
	gm := b.doc.Meshes[meshIndex]

	name := n.Name
	if name == "" {
		name = gm.Name
	}
	if name == "" {
		name = fmt.Sprintf("mesh_%d", meshIndex)
	}
	n.Name = name

	var prims []*gltf.Primitive
	for _, p := range gm.Primitives {
		if p.Mode == gltf.PrimitiveTriangles {
			prims = append(prims, p)
		}
	}

	for i, p := range prims {
		geo, err := b.geometry(p)
		if err != nil {
			return fmt.Errorf("primitive %d: %w", i, err)
		}
		mesh := &scene.Mesh{Geometry: geo, Material: b.material(p.Material), PartName: name}
		if len(prims) == 1 {
			n.Mesh = mesh
			continue
		}
		child := scene.NewNode(name)
		child.Mesh = mesh
		n.Add(child)
	}
	b.meshes += len(prims)
	return nil
}

func (b *builder) geometry(p *gltf.Primitive) (*scene.Geometry, error) {
	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return nil, errors.New("missing POSITION attribute")
	}
	raw, err := modeler.ReadPosition(b.doc, b.doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	positions := make([]mgl32.Vec3, len(raw))
	for i, v := range raw {
		positions[i] = mgl32.Vec3(v)
	}

	var normals []mgl32.Vec3
	if ni, ok := p.Attributes[gltf.NORMAL]; ok {
		rawN, err := modeler.ReadNormal(b.doc, b.doc.Accessors[ni], nil)
		if err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
		normals = make([]mgl32.Vec3, len(rawN))
		for i, v := range rawN {
			normals[i] = mgl32.Vec3(v)
		}
	}

	var indices []uint32
	if p.Indices != nil {
		indices, err = modeler.ReadIndices(b.doc, b.doc.Accessors[*p.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}
	return scene.NewGeometry(positions, normals, indices), nil
}

// material returns one shared instance per document material, as the source
// asset does. The normalizer clones them per mesh.
func (b *builder) material(index *int) *scene.Material {
	if index == nil || *index < 0 || *index >= len(b.doc.Materials) {
		if b.fallback == nil {
			b.fallback = scene.NewMaterial("default", scene.Color{R: 1, G: 1, B: 1})
		}
		return b.fallback
	}
	if m, ok := b.materials[*index]; ok {
		return m
	}

	gm := b.doc.Materials[*index]
	c := scene.Color{R: 1, G: 1, B: 1}
	opacity := float32(1)
	if pbr := gm.PBRMetallicRoughness; pbr != nil && pbr.BaseColorFactor != nil {
		f := *pbr.BaseColorFactor
		c = scene.Color{R: float32(f[0]), G: float32(f[1]), B: float32(f[2])}
		opacity = float32(f[3])
	}
	m := scene.NewMaterial(gm.Name, c)
	m.Opacity = opacity
	m.DoubleSided = gm.DoubleSided
	b.materials[*index] = m
	return m
}
