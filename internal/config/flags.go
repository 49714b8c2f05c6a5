package config

import "github.com/spf13/pflag"

// Flags holds command-line overrides. Zero values mean "not set".
type Flags struct {
	Config     string
	Debug      bool
	Model      string
	Title      string
	Focus      string
	Bridge     string
	Windowed   bool
	Fullscreen bool
	Width      int
	Height     int
}

// Register binds the override flags to a flag set (typically a cobra command's).
func (f *Flags) Register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.Config, "config", "c", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVarP(&f.Model, "model", "m", "", "Model path or URL (.glb/.gltf)")
	fs.StringVar(&f.Title, "title", "", "Viewer title label")
	fs.StringVar(&f.Focus, "focus", "", "Viewer focus label")
	fs.StringVar(&f.Bridge, "bridge", "", "Enable the dashboard bridge on this address")
	fs.BoolVar(&f.Windowed, "windowed", false, "Run in windowed mode")
	fs.BoolVar(&f.Fullscreen, "fullscreen", false, "Run in fullscreen mode")
	fs.IntVar(&f.Width, "width", 0, "Window width")
	fs.IntVar(&f.Height, "height", 0, "Window height")
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Model != "" {
		cfg.Viewer.Model = f.Model
	}
	if f.Title != "" {
		cfg.Viewer.Title = f.Title
	}
	if f.Focus != "" {
		cfg.Viewer.Focus = f.Focus
	}
	if f.Bridge != "" {
		cfg.Bridge.Enabled = true
		cfg.Bridge.Listen = f.Bridge
	}
	if f.Windowed {
		cfg.Graphics.Fullscreen = false
	}
	if f.Fullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if f.Width > 0 {
		cfg.Graphics.Width = f.Width
	}
	if f.Height > 0 {
		cfg.Graphics.Height = f.Height
	}
}
