package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/msalah0e/ontoview/internal/layout"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid configuration")

// Config holds ontoview configuration.
type Config struct {
	Sample    string          `toml:"sample"`
	Layout    LayoutConfig    `toml:"layout"`
	Camera    CameraConfig    `toml:"camera"`
	Viewport  ViewportConfig  `toml:"viewport"`
	Assistant AssistantConfig `toml:"assistant"`
	Server    ServerConfig    `toml:"server"`
	Store     StoreConfig     `toml:"store"`
	UI        UIConfig        `toml:"ui"`
}

// LayoutConfig tunes the force simulation.
type LayoutConfig struct {
	LinkDistance    float64 `toml:"link_distance" validate:"gt=0"`
	Charge          float64 `toml:"charge" validate:"lte=0"`
	CollideRadius   float64 `toml:"collide_radius" validate:"gte=0"`
	CenterStrength  float64 `toml:"center_strength" validate:"gte=0,lte=1"`
	VelocityDecay   float64 `toml:"velocity_decay" validate:"gt=0,lt=1"`
	AlphaMin        float64 `toml:"alpha_min" validate:"gt=0,lt=1"`
	AlphaDecay      float64 `toml:"alpha_decay" validate:"gt=0,lt=1"`
	DragAlphaTarget float64 `toml:"drag_alpha_target" validate:"gte=0,lte=1"`
	TickIntervalMS  int     `toml:"tick_interval_ms" validate:"gt=0"`
}

// CameraConfig sets zoom limits and the zoom-to-node animation.
type CameraConfig struct {
	MinScale        float64 `toml:"min_scale" validate:"gt=0"`
	MaxScale        float64 `toml:"max_scale" validate:"gtfield=MinScale"`
	FocusScale      float64 `toml:"focus_scale" validate:"gt=0"`
	TransitionMS    int     `toml:"transition_ms" validate:"gte=0"`
	FrameIntervalMS int     `toml:"frame_interval_ms" validate:"gt=0"`
}

// ViewportConfig is the initial viewport size for headless layouts.
type ViewportConfig struct {
	Width  float64 `toml:"width" validate:"gt=0"`
	Height float64 `toml:"height" validate:"gt=0"`
}

// AssistantConfig selects the reasoning assistant backend.
type AssistantConfig struct {
	Backend    string `toml:"backend" validate:"oneof=stub gemini"`
	Model      string `toml:"model"`
	Endpoint   string `toml:"endpoint" validate:"omitempty,url"`
	APIKeyEnv  string `toml:"api_key_env"`
	MaxContext int    `toml:"max_context" validate:"gte=0"`
	TimeoutS   int    `toml:"timeout_s" validate:"gt=0"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Port           int      `toml:"port" validate:"gte=0,lte=65535"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// StoreConfig controls layout persistence.
type StoreConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// UIConfig controls display options.
type UIConfig struct {
	Color bool `toml:"color"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Layout: LayoutConfig{
			LinkDistance:    150,
			Charge:          -400,
			CollideRadius:   40,
			CenterStrength:  1,
			VelocityDecay:   0.4,
			AlphaMin:        0.001,
			AlphaDecay:      1 - math.Pow(0.001, 1.0/300),
			DragAlphaTarget: 0.3,
			TickIntervalMS:  16,
		},
		Camera: CameraConfig{
			MinScale:        0.1,
			MaxScale:        4,
			FocusScale:      1.5,
			TransitionMS:    1000,
			FrameIntervalMS: 16,
		},
		Viewport: ViewportConfig{Width: 800, Height: 600},
		Assistant: AssistantConfig{
			Backend:    "stub",
			Model:      "gemini-2.5-flash",
			Endpoint:   "https://generativelanguage.googleapis.com/v1beta",
			APIKeyEnv:  "GEMINI_API_KEY",
			MaxContext: 60000,
			TimeoutS:   60,
		},
		Server: ServerConfig{Port: 8765, AllowedOrigins: []string{"*"}},
		Store:  StoreConfig{Enabled: true},
		UI:     UIConfig{Color: true},
	}
}

// ConfigDir returns the ontoview config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "ontoview")
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// StorePath returns the layout database location.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(ConfigDir(), "layouts.db")
}

// Load reads the config file, falling back to defaults for anything missing.
func Load() *Config {
	cfg := Default()
	data, err := os.ReadFile(Path())
	if err != nil {
		return cfg
	}
	_ = toml.Unmarshal(data, cfg)
	return cfg
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(Path()); err == nil {
		return nil
	}
	return Save(Default())
}

var validate = validator.New()

// Validate checks every setting against its allowed range.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed %q", ErrInvalid, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// LayoutParams converts the layout section into simulation parameters.
func (c *Config) LayoutParams() layout.Params {
	l := c.Layout
	return layout.Params{
		LinkDistance:    l.LinkDistance,
		Charge:          l.Charge,
		CollideRadius:   l.CollideRadius,
		CenterStrength:  l.CenterStrength,
		VelocityDecay:   l.VelocityDecay,
		AlphaMin:        l.AlphaMin,
		AlphaDecay:      l.AlphaDecay,
		DragAlphaTarget: l.DragAlphaTarget,
	}
}

// CameraParams converts the camera section.
func (c *Config) CameraParams() layout.CameraParams {
	return layout.CameraParams{
		MinScale:   c.Camera.MinScale,
		MaxScale:   c.Camera.MaxScale,
		FocusScale: c.Camera.FocusScale,
		Transition: time.Duration(c.Camera.TransitionMS) * time.Millisecond,
	}
}

// ViewportSize returns the configured viewport.
func (c *Config) ViewportSize() layout.Size {
	return layout.Size{Width: c.Viewport.Width, Height: c.Viewport.Height}
}

// TickInterval is the physics tick period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Layout.TickIntervalMS) * time.Millisecond
}

// FrameInterval is the camera frame period.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.Camera.FrameIntervalMS) * time.Millisecond
}
