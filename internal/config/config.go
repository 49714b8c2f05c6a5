// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Camera   CameraConfig   `yaml:"camera"`
	Zoom     ZoomConfig     `yaml:"zoom"`
	Gesture  GestureConfig  `yaml:"gesture"`
	Colors   ColorConfig    `yaml:"colors"`
	Lighting LightingConfig `yaml:"lighting"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds window and drawing surface settings.
type GraphicsConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	Background string `yaml:"background"`
}

// ViewerConfig holds what the viewer shows.
type ViewerConfig struct {
	Title      string  `yaml:"title"`
	Focus      string  `yaml:"focus"`
	Model      string  `yaml:"model"` // Filesystem path or http(s) URL of a .glb/.gltf asset
	ModelScale float32 `yaml:"model_scale"`
	ShowBounds bool    `yaml:"show_bounds"`
}

// CameraConfig holds perspective camera and control settings.
type CameraConfig struct {
	FOV              float32 `yaml:"fov"` // Degrees
	Near             float32 `yaml:"near"`
	Far              float32 `yaml:"far"`
	BaseDistance     float32 `yaml:"base_distance"` // Camera Z at zoom 1
	Height           float32 `yaml:"height"`
	Damping          bool    `yaml:"damping"`
	DampingFrequency float64 `yaml:"damping_frequency"`
}

// ZoomConfig holds the zoom scalar range.
type ZoomConfig struct {
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Step float64 `yaml:"step"`
}

// GestureConfig holds pointer gesture tuning.
type GestureConfig struct {
	RotateSpeed    float64 `yaml:"rotate_speed"`    // Radians per pixel
	PanDivisor     float64 `yaml:"pan_divisor"`     // Cursor pixels per pan pixel
	PanScale       float64 `yaml:"pan_scale"`       // World units per pan pixel
	ClickTolerance float64 `yaml:"click_tolerance"` // Max pixels a click may drift
}

// ColorConfig holds highlight colors as #RRGGBB.
type ColorConfig struct {
	Neutral  string `yaml:"neutral"`
	Selected string `yaml:"selected"`
}

// LightingConfig holds the light rig.
type LightingConfig struct {
	AmbientColor         string  `yaml:"ambient_color"`
	AmbientIntensity     float32 `yaml:"ambient_intensity"`
	DirectionalColor     string  `yaml:"directional_color"`
	DirectionalIntensity float32 `yaml:"directional_intensity"`
	SunLongitude         float32 `yaml:"sun_longitude"` // Degrees around Y
	SunLatitude          float32 `yaml:"sun_latitude"`  // Degrees above horizon
}

// BridgeConfig holds the dashboard relay settings.
type BridgeConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      960,
			Height:     640,
			Fullscreen: false,
			VSync:      true,
			Background: "#ffffff",
		},
		Viewer: ViewerConfig{
			Title:      "3D Viewer",
			Model:      "models/QK7.glb",
			ModelScale: 3.0,
		},
		Camera: CameraConfig{
			FOV:              60,
			Near:             0.1,
			Far:              1000,
			BaseDistance:     9,
			Height:           1.6,
			Damping:          true,
			DampingFrequency: 6.0,
		},
		Zoom: ZoomConfig{
			Min:  0.8,
			Max:  2.4,
			Step: 0.1,
		},
		Gesture: GestureConfig{
			RotateSpeed:    0.01,
			PanDivisor:     2,
			PanScale:       0.01,
			ClickTolerance: 4,
		},
		Colors: ColorConfig{
			Neutral:  "#9AA3AF",
			Selected: "#9A5F61",
		},
		Lighting: LightingConfig{
			AmbientColor:         "#d8d8d8",
			AmbientIntensity:     0.6,
			DirectionalColor:     "#ffffff",
			DirectionalIntensity: 1.0,
			SunLongitude:         30,
			SunLatitude:          50,
		},
		Bridge: BridgeConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8090",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
