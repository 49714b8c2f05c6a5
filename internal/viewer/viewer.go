// Package viewer is the interactive anatomy viewport: it owns the scene, the
// camera and the zoom/pan/rotate state, routes pointer input, picks parts and
// hands them to the dashboard.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/anatomy-viewer/internal/asset"
	"github.com/Faultbox/anatomy-viewer/internal/config"
	"github.com/Faultbox/anatomy-viewer/internal/dispatch"
	"github.com/Faultbox/anatomy-viewer/internal/engine/camera"
	"github.com/Faultbox/anatomy-viewer/internal/engine/lighting"
	"github.com/Faultbox/anatomy-viewer/internal/gesture"
	"github.com/Faultbox/anatomy-viewer/internal/highlight"
	"github.com/Faultbox/anatomy-viewer/internal/logger"
	"github.com/Faultbox/anatomy-viewer/internal/picking"
	"github.com/Faultbox/anatomy-viewer/internal/scene"
	"github.com/Faultbox/anatomy-viewer/internal/viewport"
)

// ErrMounted is returned by a second Mount.
var ErrMounted = errors.New("viewer already mounted")

// groundSize is the edge of the shadow-catching ground plane.
const groundSize = 200

// groundOpacity is how dark a full shadow on the ground gets.
const groundOpacity = 0.35

// taskQueueSize bounds callbacks posted from other goroutines between frames.
const taskQueueSize = 64

// Renderer draws the scene. Implementations own GPU resources.
type Renderer interface {
	SetSize(width, height int)
	Render(root *scene.Node, cam *camera.Perspective, rig lighting.Rig, background scene.Color)
	Dispose() error
}

// boundsRenderer is implemented by renderers that can outline the model.
type boundsRenderer interface {
	ShowBounds(b *scene.Box)
}

// Loader fetches the model asset.
type Loader func(ctx context.Context, ref string, progress asset.ProgressFunc) (*scene.Node, error)

// Deps are the viewer's collaborators. Only Renderer is required.
type Deps struct {
	Renderer Renderer
	Capturer gesture.Capturer
	Handler  dispatch.PartHandler
	Loader   Loader       // Defaults to asset.Load
	SetTitle func(string) // Receives the window title when the label changes
}

// Viewer is not safe for concurrent use except for Post. Every other method
// runs on the UI thread, the same thread that calls Frame.
type Viewer struct {
	cfg *config.Config
	log *zap.Logger

	view       *viewport.Controller
	router     *gesture.Router
	highlight  *highlight.Manager
	dispatcher *dispatch.Dispatcher
	renderer   Renderer
	capturer   gesture.Capturer
	loader     Loader
	setTitle   func(string)

	root       *scene.Node
	group      *scene.Node
	ground     *scene.Node
	camera     *camera.Perspective
	controls   *camera.Controls
	rig        lighting.Rig
	background scene.Color
	neutral    scene.Color
	model      *asset.Model

	rect         picking.Rect
	title, focus string

	tasks  chan func()
	done   chan struct{}
	cancel context.CancelFunc
	// postMu orders Post against the final drain in Close.
	postMu   sync.Mutex
	shutdown bool

	mounted bool
	closed  bool
	loadErr error
}

// New creates an unmounted viewer.
func New(cfg *config.Config, deps Deps) (*Viewer, error) {
	if deps.Renderer == nil {
		return nil, errors.New("viewer: renderer is required")
	}
	if cfg == nil {
		cfg = config.Default()
	}

	neutral, err := scene.ParseHex(cfg.Colors.Neutral)
	if err != nil {
		return nil, fmt.Errorf("neutral color: %w", err)
	}
	selected, err := scene.ParseHex(cfg.Colors.Selected)
	if err != nil {
		return nil, fmt.Errorf("selected color: %w", err)
	}
	background, err := scene.ParseHex(cfg.Graphics.Background)
	if err != nil {
		return nil, fmt.Errorf("background color: %w", err)
	}
	l := cfg.Lighting
	rig, err := lighting.NewRig(l.AmbientColor, l.AmbientIntensity, l.DirectionalColor, l.DirectionalIntensity,
		l.SunLongitude, l.SunLatitude)
	if err != nil {
		return nil, fmt.Errorf("lighting: %w", err)
	}

	view := viewport.NewController(viewport.Settings{
		ZoomMin:      cfg.Zoom.Min,
		ZoomMax:      cfg.Zoom.Max,
		ZoomStep:     cfg.Zoom.Step,
		BaseDistance: float64(cfg.Camera.BaseDistance),
		PanScale:     cfg.Gesture.PanScale,
	})
	router := gesture.NewRouter(gesture.Settings{
		RotateSpeed:    cfg.Gesture.RotateSpeed,
		PanDivisor:     cfg.Gesture.PanDivisor,
		ClickTolerance: cfg.Gesture.ClickTolerance,
	}, view, deps.Capturer)

	loader := deps.Loader
	if loader == nil {
		loader = asset.Load
	}

	return &Viewer{
		cfg:        cfg,
		log:        logger.Named("viewer"),
		view:       view,
		router:     router,
		highlight:  highlight.NewManager(neutral, selected),
		dispatcher: dispatch.New(deps.Handler),
		renderer:   deps.Renderer,
		capturer:   deps.Capturer,
		loader:     loader,
		setTitle:   deps.SetTitle,
		rig:        rig,
		background: background,
		neutral:    neutral,
		title:      cfg.Viewer.Title,
		focus:      cfg.Viewer.Focus,
		tasks:      make(chan func(), taskQueueSize),
		done:       make(chan struct{}),
	}, nil
}

// Mount builds the scene with an empty model group, sizes it to the host and
// starts loading the model in the background. The scene renders immediately.
func (v *Viewer) Mount(ctx context.Context, width, height int) error {
	if v.mounted {
		return ErrMounted
	}
	v.mounted = true
	v.log.Debug("init", zap.Int("width", width), zap.Int("height", height))

	v.root = scene.NewNode("scene")

	shadowMat := scene.NewMaterial("ground", scene.Color{})
	shadowMat.ShadowOnly = true
	shadowMat.Opacity = groundOpacity
	v.ground = scene.NewMesh("ground", scene.NewPlaneXZ(groundSize, groundSize), shadowMat)
	v.ground.Mesh.ReceiveShadow = true
	v.root.Add(v.ground)

	v.group = scene.NewNode("model")
	v.root.Add(v.group)

	cc := v.cfg.Camera
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	v.camera = camera.NewPerspective(cc.FOV, aspect, cc.Near, cc.Far)
	v.camera.Position = mgl32.Vec3{0, cc.Height, cc.BaseDistance}
	v.controls = camera.NewControls(v.camera, cc.Damping, cc.DampingFrequency, 60)
	v.Resize(width, height)
	v.applyLabel()

	ref := v.cfg.Viewer.Model
	if ref == "" {
		v.log.Warn("no model configured; viewer stays empty")
		return nil
	}

	loadCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	go v.load(loadCtx, ref)
	return nil
}

// load runs off the UI thread and posts its result back to it. Close does
// not wait for it: a loader that never returns leaves only this goroutine.
func (v *Viewer) load(ctx context.Context, ref string) {
	lastPct := -1
	root, err := v.loader(ctx, ref, func(loaded, total int64) {
		if total <= 0 {
			return
		}
		if pct := int(loaded * 100 / total); pct/10 != lastPct/10 {
			lastPct = pct
			v.log.Debug("loading model", zap.Int("percent", pct), zap.Int64("loaded", loaded), zap.Int64("total", total))
		}
	})
	if !v.Post(func() { v.attach(root, err) }) && root != nil {
		// Closed before the result could be delivered.
		root.Dispose()
	}
}

// attach installs a loaded asset. Runs on the UI thread.
func (v *Viewer) attach(root *scene.Node, err error) {
	if v.closed {
		if root != nil {
			root.Dispose()
		}
		return
	}
	if err == nil {
		var m *asset.Model
		m, err = asset.Normalize(root, asset.Options{Scale: v.cfg.Viewer.ModelScale, Neutral: v.neutral})
		if err == nil {
			v.model = m
			v.group.Add(m.Root)
			v.controls.SetTarget(m.Target)
			if br, ok := v.renderer.(boundsRenderer); ok && v.cfg.Viewer.ShowBounds {
				b := m.Bounds
				br.ShowBounds(&b)
			}
			v.log.Info("model ready",
				zap.Int("parts", len(m.Names)),
				zap.Int("meshes", len(m.Meshes())),
				zap.Float32("height", m.Bounds.Size().Y()))
			return
		}
		root.Dispose()
	}
	v.loadErr = err
	v.log.Error("model load failed; viewer stays interactive without parts", zap.Error(err))
}

// Post schedules fn to run on the UI thread at the start of the next frame.
// It is safe to call from any goroutine and reports false once the viewer
// has closed.
func (v *Viewer) Post(fn func()) bool {
	v.postMu.Lock()
	defer v.postMu.Unlock()
	if v.shutdown {
		return false
	}
	select {
	case v.tasks <- fn:
		return true
	case <-v.done:
		return false
	}
}

func (v *Viewer) drain() {
	for {
		select {
		case fn := <-v.tasks:
			fn()
		default:
			return
		}
	}
}

// Frame runs one tick of the render loop: pending callbacks, the current
// viewport snapshot applied to the scene, camera easing, draw.
func (v *Viewer) Frame() {
	if !v.mounted || v.closed {
		return
	}
	v.drain()
	v.apply(v.view.Snapshot())
	v.controls.Update()
	v.renderer.Render(v.root, v.camera, v.rig, v.background)
}

// apply writes a viewport snapshot into the scene.
func (v *Viewer) apply(st viewport.State) {
	s := v.view.Settings()
	v.group.Position = s.GroupPosition(st)
	v.group.Rotation = viewport.GroupRotation(st)
	v.camera.Position[2] = s.CameraDistance(st)
}

// Wheel zooms one step; positive deltaY zooms out.
func (v *Viewer) Wheel(deltaY float64) {
	v.router.Wheel(deltaY)
}

// PointerDown starts a gesture at surface pixel (x, y).
func (v *Viewer) PointerDown(btn gesture.Button, x, y float64) {
	v.router.Down(btn, gesture.Point{X: x, Y: y})
}

// PointerMove advances the active gesture.
func (v *Viewer) PointerMove(x, y float64) {
	v.router.Move(gesture.Point{X: x, Y: y})
}

// PointerUp ends the active gesture.
func (v *Viewer) PointerUp(x, y float64) {
	v.router.Up(gesture.Point{X: x, Y: y})
}

// CancelGesture abandons a drag, e.g. when the window loses focus.
func (v *Viewer) CancelGesture() {
	if err := v.router.Cancel(); err != nil {
		v.log.Debug("pointer release failed", zap.Error(err))
	}
}

// Click picks the part under (x, y) if the click was not the end of a drag.
// A hit highlights the part and dispatches it; ok is false when nothing was
// picked.
func (v *Viewer) Click(x, y float64) (result dispatch.PickResult, ok bool) {
	if !v.mounted || v.closed {
		return result, false
	}
	if !v.router.Click(gesture.Point{X: x, Y: y}) {
		return result, false
	}

	ndc, ok := picking.ToNDC(x, y, v.rect)
	if !ok {
		return result, false
	}
	// Pick against the state the user sees, including input since the last frame.
	v.apply(v.view.Snapshot())
	ray := picking.ScreenToRay(ndc, v.camera.ViewProjection().Inv())

	hit, ok := picking.Pick(ray, v.group)
	if !ok {
		v.log.Debug("click missed", zap.Float64("x", x), zap.Float64("y", y))
		return result, false
	}

	result = dispatch.Resolve(hit.PartName(), hit.Node)
	v.log.Debug("clicked part",
		zap.String("part", result.PartName),
		zap.Bool("mapped", result.HasID),
		zap.Float32("distance", hit.Distance))

	v.highlight.Select(v.group, hit.Node)
	v.dispatcher.Dispatch(result)
	return result, true
}

// Resize matches the camera and drawing surface to the host. A zero-sized
// host is ignored.
func (v *Viewer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		v.log.Debug("ignoring zero-sized resize", zap.Int("width", width), zap.Int("height", height))
		return
	}
	v.rect = picking.Rect{Width: float64(width), Height: float64(height)}
	if v.camera != nil {
		v.camera.SetAspect(float32(width) / float32(height))
		v.camera.UpdateProjection()
	}
	v.renderer.SetSize(width, height)
	v.log.Debug("resize", zap.Int("width", width), zap.Int("height", height))
}

// ResetView restores zoom, pan and rotation and snaps the model group back
// at once. The highlighted part is kept.
func (v *Viewer) ResetView() {
	v.view.Reset()
	if v.group != nil {
		v.group.ResetTransform()
		v.apply(v.view.Snapshot())
	}
	v.log.Debug("view reset")
}

// ZoomIn steps zoom in.
func (v *Viewer) ZoomIn() {
	v.view.StepZoom(1)
}

// ZoomOut steps zoom out.
func (v *Viewer) ZoomOut() {
	v.view.StepZoom(-1)
}

// SetLabel updates the title and focus shown with the viewer.
func (v *Viewer) SetLabel(title, focus string) {
	v.title, v.focus = title, focus
	v.applyLabel()
}

// Label returns the displayed caption.
func (v *Viewer) Label() string {
	switch {
	case v.title == "":
		return v.focus
	case v.focus == "":
		return v.title
	}
	return v.title + " — " + v.focus
}

func (v *Viewer) applyLabel() {
	if v.setTitle != nil {
		v.setTitle(v.Label())
	}
}

// Snapshot returns the current viewport state.
func (v *Viewer) Snapshot() viewport.State { return v.view.Snapshot() }

// Model returns the loaded model, or nil while loading or after a failure.
func (v *Viewer) Model() *asset.Model { return v.model }

// LoadErr returns the load failure, if any.
func (v *Viewer) LoadErr() error { return v.loadErr }

// Selected returns the highlighted mesh, or nil.
func (v *Viewer) Selected() *scene.Node { return v.highlight.Selected() }

// Camera returns the scene camera. Nil before Mount.
func (v *Viewer) Camera() *camera.Perspective { return v.camera }

// Group returns the model group. Nil before Mount.
func (v *Viewer) Group() *scene.Node { return v.group }
