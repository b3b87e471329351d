// Package config loads daemon settings from defaults, an optional YAML file,
// a .env file and the environment, in that order of precedence (lowest first).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/yuletide/internal/scene"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "YULETIDE_"

// Tracker modes.
const (
	TrackerCamera = "camera"
	TrackerPush   = "push"
)

// Config holds the application configuration.
type Config struct {
	DataDir    string         `yaml:"data_dir" env:"DATA_DIR"`
	PluginsDir string         `yaml:"plugins_dir" env:"PLUGINS_DIR"`
	Server     ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Log        LogConfig      `yaml:"log" envPrefix:"LOG_"`
	Camera     CameraConfig   `yaml:"camera" envPrefix:"CAMERA_"`
	Tracker    TrackerConfig  `yaml:"tracker" envPrefix:"TRACKER_"`
	Scene      SceneConfig    `yaml:"scene" envPrefix:"SCENE_"`
	Greeting   GreetingConfig `yaml:"greeting" envPrefix:"GREETING_"`
	Audio      AudioConfig    `yaml:"audio" envPrefix:"AUDIO_"`
	Tray       TrayConfig     `yaml:"tray" envPrefix:"TRAY_"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr      string `yaml:"addr" env:"ADDR"`
	StaticDir string `yaml:"static_dir" env:"STATIC_DIR"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Path  string `yaml:"path" env:"PATH"`
	Level string `yaml:"level" env:"LEVEL"`
	Dev   bool   `yaml:"dev" env:"DEV"`
}

// CameraConfig holds webcam capture settings.
type CameraConfig struct {
	DeviceID int `yaml:"device_id" env:"DEVICE_ID"`
	// MotionThreshold is the percentage of changed pixels that wakes the tracker.
	MotionThreshold float64       `yaml:"motion_threshold" env:"MOTION_THRESHOLD"`
	IdleFPS         int           `yaml:"idle_fps" env:"IDLE_FPS"`
	ActiveFPS       int           `yaml:"active_fps" env:"ACTIVE_FPS"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
}

// TrackerConfig selects where landmarks come from.
type TrackerConfig struct {
	// Mode is "camera" (local webcam + MediaPipe) or "push" (browser tracker
	// streams landmarks over a websocket).
	Mode          string  `yaml:"mode" env:"MODE"`
	ScriptPath    string  `yaml:"script_path" env:"SCRIPT_PATH"`
	MinConfidence float64 `yaml:"min_confidence" env:"MIN_CONFIDENCE"`
}

// SceneConfig holds render loop settings.
type SceneConfig struct {
	TickRate   int           `yaml:"tick_rate" env:"TICK_RATE"`
	LightCount int           `yaml:"light_count" env:"LIGHT_COUNT"`
	Themes     []scene.Theme `yaml:"themes" env:"-"`
}

// GreetingConfig holds Gemini settings.
type GreetingConfig struct {
	APIKey   string        `yaml:"api_key" env:"API_KEY"`
	Model    string        `yaml:"model" env:"MODEL"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
}

// AudioConfig holds sound cue settings.
type AudioConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Volume is a base-2 gain offset; 0 plays cues at their natural level.
	Volume float64 `yaml:"volume" env:"VOLUME"`
}

// TrayConfig holds system tray settings.
type TrayConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	dataDir := ".yuletide"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".yuletide")
	}

	return &Config{
		DataDir: dataDir,
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
		Camera: CameraConfig{
			MotionThreshold: 1.0,
			IdleFPS:         5,
			ActiveFPS:       15,
			IdleTimeout:     2 * time.Second,
		},
		Tracker: TrackerConfig{
			Mode:          TrackerCamera,
			MinConfidence: 0.7,
		},
		Scene: SceneConfig{
			TickRate:   60,
			LightCount: scene.DefaultLightCount,
		},
		Greeting: GreetingConfig{
			Model:    "gemini-2.0-flash",
			Timeout:  10 * time.Second,
			CacheTTL: time.Hour,
		},
		Audio: AudioConfig{
			Enabled: true,
		},
		Tray: TrayConfig{
			Enabled: true,
		},
	}
}

// Load builds the configuration. path may be empty or name a missing file,
// in which case only defaults and the environment apply. A .env file next
// to path, or in the working directory, seeds variables that are not
// already set.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dotenvs := []string{".env"}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("read config file: %w", err)
		}
		dotenvs = append([]string{filepath.Join(filepath.Dir(path), ".env")}, dotenvs...)
	}

	for _, p := range dotenvs {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Greeting.APIKey == "" {
		cfg.Greeting.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	cfg.deriveDataPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// deriveDataPaths places unset plugin and log paths under the final DataDir.
func (c *Config) deriveDataPaths() {
	if c.PluginsDir == "" {
		c.PluginsDir = filepath.Join(c.DataDir, "plugins")
	}
	if c.Log.Path == "" {
		c.Log.Path = filepath.Join(c.DataDir, "logs", "yuletide.log")
	}
}

// Validate rejects settings the daemon cannot run with.
func (c *Config) Validate() error {
	switch c.Tracker.Mode {
	case TrackerCamera, TrackerPush:
	default:
		return fmt.Errorf("tracker.mode %q: must be %q or %q", c.Tracker.Mode, TrackerCamera, TrackerPush)
	}
	if c.Scene.TickRate <= 0 {
		return fmt.Errorf("scene.tick_rate must be positive, got %d", c.Scene.TickRate)
	}
	if c.Scene.LightCount <= 0 {
		return fmt.Errorf("scene.light_count must be positive, got %d", c.Scene.LightCount)
	}
	if c.Camera.IdleFPS <= 0 || c.Camera.ActiveFPS <= 0 {
		return fmt.Errorf("camera fps must be positive, got idle=%d active=%d", c.Camera.IdleFPS, c.Camera.ActiveFPS)
	}
	for i, th := range c.Scene.Themes {
		if len(th.Palette) == 0 {
			return fmt.Errorf("scene.themes[%d] %q has an empty palette", i, th.Name)
		}
	}
	return nil
}

// TickInterval is the render tick period.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.Scene.TickRate)
}

// DBPath is the sqlite database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "yuletide.db")
}
