// Package app runs the desktop viewer: window, renderer, input loop and the
// optional dashboard bridge around a viewer.Viewer.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/anatomy-viewer/internal/bridge"
	"github.com/Faultbox/anatomy-viewer/internal/config"
	"github.com/Faultbox/anatomy-viewer/internal/dispatch"
	"github.com/Faultbox/anatomy-viewer/internal/engine/debug"
	"github.com/Faultbox/anatomy-viewer/internal/engine/input"
	"github.com/Faultbox/anatomy-viewer/internal/engine/renderer"
	"github.com/Faultbox/anatomy-viewer/internal/engine/window"
	"github.com/Faultbox/anatomy-viewer/internal/logger"
	"github.com/Faultbox/anatomy-viewer/internal/viewer"
)

const (
	screenshotDir    = "screenshots"
	screenshotPrefix = "viewer"
	msaaSamples      = 4
)

// App is the viewer process.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	viewer   *viewer.Viewer
	hub      *bridge.Hub
	shots    *debug.ScreenshotCapture

	cancel context.CancelFunc
	errs   chan error
}

// New creates the window, renderer and viewer. Nothing is loaded until Run.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		cfg:   cfg,
		log:   logger.Named("app"),
		input: input.New(),
		shots: debug.NewScreenshotCapture(screenshotDir, screenshotPrefix),
		errs:  make(chan error, 1),
	}
	a.log.Info("initializing viewer",
		zap.String("title", cfg.Viewer.Title),
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	var err error
	a.window, err = window.New(window.Config{
		Title:      cfg.Viewer.Title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
		Samples:    msaaSamples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer needs the GL context the window just created.
	dw, dh := a.window.DrawableSize()
	a.renderer, err = renderer.New(renderer.Config{Width: dw, Height: dh})
	if err != nil {
		_ = a.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	var handler dispatch.PartHandler = logHandler(a.log)
	if cfg.Bridge.Enabled {
		a.hub = bridge.NewHub()
		handler = a.hub
	}

	a.viewer, err = viewer.New(cfg, viewer.Deps{
		Renderer: &surface{target: a.renderer, drawable: a.window.DrawableSize},
		Capturer: a.window,
		Handler:  handler,
		SetTitle: a.window.SetTitle,
	})
	if err != nil {
		_ = a.renderer.Dispose()
		_ = a.window.Close()
		return nil, fmt.Errorf("failed to create viewer: %w", err)
	}

	if a.hub != nil {
		v := a.viewer
		a.hub.OnLabel(func(title, focus string) {
			v.Post(func() { v.SetLabel(title, focus) })
		})
	}
	return a, nil
}

// Run mounts the viewer and drives frames until the window closes, Escape is
// pressed or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	if a.hub != nil {
		go func() {
			if err := a.hub.Serve(ctx, a.cfg.Bridge.Listen); err != nil {
				a.errs <- err
			}
		}()
	}

	w, h := a.window.GetSize()
	if err := a.viewer.Mount(ctx, w, h); err != nil {
		return fmt.Errorf("mount viewer: %w", err)
	}

	a.running = true
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	a.log.Info("starting render loop")
	for a.running {
		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		select {
		case <-ctx.Done():
			a.running = false
			continue
		case err := <-a.errs:
			return err
		default:
		}

		if a.input.Update() {
			a.running = false
			break
		}
		for _, event := range a.input.Events() {
			a.handle(event)
		}

		a.viewer.Frame()
		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			a.log.Debug("fps", zap.Int("count", frameCount), zap.Duration("dt", dt))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

// handle routes one input event. Runs on the UI thread.
func (a *App) handle(e input.Event) {
	v := a.viewer
	switch e.Type {
	case input.EventResize:
		v.Resize(e.Width, e.Height)
	case input.EventFocusLost:
		v.CancelGesture()
	case input.EventWheel:
		v.Wheel(e.DeltaY)
	case input.EventPointerDown:
		v.PointerDown(e.Button, e.X, e.Y)
	case input.EventPointerMove:
		v.PointerMove(e.X, e.Y)
	case input.EventPointerUp:
		v.PointerUp(e.X, e.Y)
	case input.EventClick:
		v.Click(e.X, e.Y)
	case input.EventKeyDown:
		a.key(keyAction(e.Key))
	}
}

func (a *App) key(act action) {
	switch act {
	case actionQuit:
		a.running = false
	case actionReset:
		a.viewer.ResetView()
	case actionZoomIn:
		a.viewer.ZoomIn()
	case actionZoomOut:
		a.viewer.ZoomOut()
	case actionScreenshot:
		a.screenshot()
	}
}

func (a *App) screenshot() {
	pixels, w, h := a.renderer.ReadPixels()
	path, err := a.shots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		a.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("path", path))
}

// Close releases everything in reverse order of creation.
func (a *App) Close() error {
	a.log.Info("closing viewer")
	if a.cancel != nil {
		a.cancel()
	}

	var err error
	if a.viewer != nil {
		err = multierr.Append(err, a.viewer.Close())
	}
	if a.hub != nil {
		err = multierr.Append(err, a.hub.Close())
	}
	if a.window != nil {
		err = multierr.Append(err, a.window.Close())
	}
	return err
}

// action is what a key does.
type action int

const (
	actionNone action = iota
	actionQuit
	actionReset
	actionZoomIn
	actionZoomOut
	actionScreenshot
)

func keyAction(key sdl.Scancode) action {
	switch key {
	case sdl.SCANCODE_ESCAPE:
		return actionQuit
	case sdl.SCANCODE_R, sdl.SCANCODE_HOME:
		return actionReset
	case sdl.SCANCODE_EQUALS, sdl.SCANCODE_KP_PLUS:
		return actionZoomIn
	case sdl.SCANCODE_MINUS, sdl.SCANCODE_KP_MINUS:
		return actionZoomOut
	case sdl.SCANCODE_F12:
		return actionScreenshot
	}
	return actionNone
}

// logHandler stands in for the dashboard when the bridge is off.
func logHandler(log *zap.Logger) dispatch.Funcs {
	return dispatch.Funcs{
		Info: func(id int) error {
			log.Info("part info requested", zap.Int("part_id", id))
			return nil
		},
		Media: func(query string, id int) error {
			log.Info("part media requested", zap.String("query", query), zap.Int("part_id", id))
			return nil
		},
	}
}
