// Package renderer draws the scene graph with OpenGL.
package renderer

import (
	"fmt"
	"sort"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/anatomy-viewer/internal/engine/camera"
	"github.com/Faultbox/anatomy-viewer/internal/engine/debug"
	"github.com/Faultbox/anatomy-viewer/internal/engine/lighting"
	"github.com/Faultbox/anatomy-viewer/internal/engine/shader"
	"github.com/Faultbox/anatomy-viewer/internal/logger"
	"github.com/Faultbox/anatomy-viewer/internal/scene"
)

// Config holds renderer configuration.
type Config struct {
	Width            int
	Height           int
	ShadowResolution int32
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config Config
	log    *zap.Logger

	meshProgram  *shader.Program
	depthProgram *shader.Program
	lineProgram  *shader.Program
	shadow       *shadowMap

	meshes map[*scene.Geometry]*gpuMesh

	boundsVAO, boundsVBO uint32
	bounds               *scene.Box
}

// drawItem is a visible mesh with its world transform.
type drawItem struct {
	node  *scene.Node
	world mgl32.Mat4
	mesh  *gpuMesh
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
		log:    logger.Named("renderer"),
		meshes: make(map[*scene.Geometry]*gpuMesh),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Enable(gl.MULTISAMPLE)

	var err error
	if r.meshProgram, err = shader.New("mesh", meshVertexShader, meshFragmentShader); err != nil {
		return nil, err
	}
	if r.depthProgram, err = shader.New("depth", depthVertexShader, depthFragmentShader); err != nil {
		r.Dispose()
		return nil, err
	}
	if r.lineProgram, err = shader.New("line", lineVertexShader, lineFragmentShader); err != nil {
		r.Dispose()
		return nil, err
	}
	if r.shadow, err = newShadowMap(cfg.ShadowResolution); err != nil {
		// Shadows are cosmetic; render without them.
		r.log.Warn("shadows disabled", zap.Error(err))
	}

	r.SetSize(cfg.Width, cfg.Height)
	return r, nil
}

// SetSize resizes the drawing surface viewport.
func (r *Renderer) SetSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// ShowBounds sets the debug bounding box, or hides it when b is nil.
func (r *Renderer) ShowBounds(b *scene.Box) {
	r.bounds = b
	if b == nil {
		return
	}
	verts := debug.BoxWireframe(*b, 0.02)
	if len(verts) == 0 {
		r.bounds = nil
		return
	}
	if r.boundsVAO == 0 {
		gl.GenVertexArrays(1, &r.boundsVAO)
		gl.GenBuffers(1, &r.boundsVBO)
	}
	gl.BindVertexArray(r.boundsVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.boundsVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, unsafe.Pointer(&verts[0]), gl.DYNAMIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)
}

// Render draws one frame of root as seen by cam.
func (r *Renderer) Render(root *scene.Node, cam *camera.Perspective, rig lighting.Rig, background scene.Color) {
	items, casters := r.collect(root)

	lightSpace := rig.Directional.LightSpace(casters)
	shadows := r.shadow != nil && rig.Directional.CastShadows
	if shadows {
		r.shadowPass(items, lightSpace)
	}

	gl.ClearColor(background.R, background.G, background.B, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	p := r.meshProgram
	p.Use()
	p.SetMat4("uView", cam.ViewMatrix())
	p.SetMat4("uProjection", cam.ProjectionMatrix())
	p.SetMat4("uLightSpace", lightSpace)
	p.SetVec3("uAmbient", rig.Ambient.Color.Vec3().Mul(rig.Ambient.Intensity))
	p.SetVec3("uLightColor", rig.Directional.Color.Vec3().Mul(rig.Directional.Intensity))
	p.SetVec3("uLightDir", rig.Directional.Direction)
	p.SetInt("uShadowMap", 0)
	if r.shadow != nil {
		r.shadow.bindTexture(gl.TEXTURE0)
	}

	for _, it := range items {
		mat := it.node.Mesh.Material
		if mat.DoubleSided {
			gl.Disable(gl.CULL_FACE)
		} else {
			gl.Enable(gl.CULL_FACE)
			gl.CullFace(gl.BACK)
		}
		gl.DepthMask(mat.DepthWrite && !mat.ShadowOnly)

		p.SetMat4("uModel", it.world)
		p.SetVec3("uColor", mat.Color.Vec3())
		p.SetFloat("uOpacity", mat.Opacity)
		p.SetInt("uReceiveShadow", boolInt(shadows && it.node.Mesh.ReceiveShadow))
		p.SetInt("uShadowOnly", boolInt(mat.ShadowOnly))
		it.mesh.draw()
	}
	gl.DepthMask(true)

	if r.bounds != nil && r.boundsVAO != 0 {
		r.lineProgram.Use()
		r.lineProgram.SetMat4("uViewProjection", cam.ViewProjection())
		r.lineProgram.SetVec3("uColor", mgl32.Vec3{0.9, 0.2, 0.2})
		gl.BindVertexArray(r.boundsVAO)
		gl.DrawArrays(gl.LINES, 0, debug.BoxWireframeVertexCount)
		gl.BindVertexArray(0)
	}
}

// collect gathers visible meshes, uploading any not yet on the GPU, and
// returns the bounds of the shadow casters. Shadow-only surfaces draw last so
// they blend over the cleared background.
func (r *Renderer) collect(root *scene.Node) ([]drawItem, scene.Box) {
	var items []drawItem
	casters := scene.EmptyBox()

	var walk func(n *scene.Node, parent mgl32.Mat4)
	walk = func(n *scene.Node, parent mgl32.Mat4) {
		if !n.Visible {
			return
		}
		world := parent.Mul4(n.LocalMatrix())
		if n.IsMesh() && n.Mesh.Material != nil && !n.Mesh.Geometry.Disposed() {
			items = append(items, drawItem{node: n, world: world, mesh: r.gpuMesh(n.Mesh.Geometry)})
			if n.Mesh.CastShadow {
				casters = casters.Union(n.Mesh.Geometry.BoundingBox().Transform(world))
			}
		}
		for _, c := range n.Children() {
			walk(c, world)
		}
	}
	if root != nil {
		walk(root, mgl32.Ident4())
	}

	sort.SliceStable(items, func(i, j int) bool {
		return !items[i].node.Mesh.Material.ShadowOnly && items[j].node.Mesh.Material.ShadowOnly
	})
	return items, casters
}

func (r *Renderer) gpuMesh(g *scene.Geometry) *gpuMesh {
	if m, ok := r.meshes[g]; ok {
		return m
	}
	m := uploadMesh(g)
	r.meshes[g] = m
	g.OnDispose(func() {
		m.delete()
		delete(r.meshes, g)
	})
	return m
}

func (r *Renderer) shadowPass(items []drawItem, lightSpace mgl32.Mat4) {
	r.shadow.bind()
	r.depthProgram.Use()
	r.depthProgram.SetMat4("uLightSpace", lightSpace)
	for _, it := range items {
		if !it.node.Mesh.CastShadow || it.node.Mesh.Material.ShadowOnly {
			continue
		}
		r.depthProgram.SetMat4("uModel", it.world)
		it.mesh.draw()
	}
	r.shadow.unbind()
}

// ReadPixels reads the back buffer as bottom-up RGBA.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	if len(pixels) == 0 {
		return pixels, w, h
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels, w, h
}

// Dispose releases every GPU resource. Geometry disposed afterwards finds its
// buffers already gone.
func (r *Renderer) Dispose() error {
	r.log.Info("closing renderer", zap.Int("meshes", len(r.meshes)))
	for g, m := range r.meshes {
		m.delete()
		delete(r.meshes, g)
	}
	if r.boundsVAO != 0 {
		gl.DeleteVertexArrays(1, &r.boundsVAO)
		gl.DeleteBuffers(1, &r.boundsVBO)
		r.boundsVAO, r.boundsVBO = 0, 0
	}
	if r.shadow != nil {
		r.shadow.destroy()
		r.shadow = nil
	}
	for _, p := range []*shader.Program{r.meshProgram, r.depthProgram, r.lineProgram} {
		if p != nil {
			p.Delete()
		}
	}
	return nil
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
