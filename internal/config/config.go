// Package config loads runtime settings from defaults, an optional config
// file and ORRERY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/camera"
	"github.com/litescript/ls-orrery/internal/engine"
	"github.com/litescript/ls-orrery/internal/logging"
)

// EnvPrefix prefixes environment overrides, e.g. ORRERY_SIM_SPEED=2.
const EnvPrefix = "ORRERY"

const (
	MinFPS     = 1
	MaxFPS     = 120
	DefaultFPS = 30
)

// ErrConfig wraps every load and validation failure.
var ErrConfig = errors.New("config")

type Sim struct {
	Speed         float64 `mapstructure:"speed"`
	SpeedStep     float64 `mapstructure:"speed_step"`
	MaxFrameDelta float64 `mapstructure:"max_frame_delta"`
	LockOnSelect  bool    `mapstructure:"lock_on_select"`
	HistorySize   int     `mapstructure:"history_size"`
	Seed          int64   `mapstructure:"seed"`
}

type Camera struct {
	Mode            string  `mapstructure:"mode"`
	FovDeg          float64 `mapstructure:"fov_deg"`
	CellAspect      float64 `mapstructure:"cell_aspect"`
	MinDistance     float64 `mapstructure:"min_distance"`
	MaxDistance     float64 `mapstructure:"max_distance"`
	Damping         float64 `mapstructure:"damping"`
	AutoRotateSpeed float64 `mapstructure:"auto_rotate_speed"`
}

type Labels struct {
	Visible bool    `mapstructure:"visible"`
	Offset  float64 `mapstructure:"offset"`
}

type Stars struct {
	Visible bool    `mapstructure:"visible"`
	Count   int     `mapstructure:"count"`
	Radius  float64 `mapstructure:"radius"`
}

type Asteroids struct {
	Count       int     `mapstructure:"count"`
	InnerRadius float64 `mapstructure:"inner_radius"`
	OuterRadius float64 `mapstructure:"outer_radius"`
	MaxSpeed    float64 `mapstructure:"max_speed"`
}

type Render struct {
	FPS    int  `mapstructure:"fps"`
	Guides bool `mapstructure:"guides"`
	Color  bool `mapstructure:"color"`
}

type Log struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type Metrics struct {
	Addr string `mapstructure:"addr"` // Empty disables the HTTP side channel
}

// Config is the full set of runtime settings.
type Config struct {
	Sim       Sim                `mapstructure:"sim"`
	Camera    Camera             `mapstructure:"camera"`
	Labels    Labels             `mapstructure:"labels"`
	Stars     Stars              `mapstructure:"stars"`
	Asteroids Asteroids          `mapstructure:"asteroids"`
	Render    Render             `mapstructure:"render"`
	Log       Log                `mapstructure:"log"`
	Metrics   Metrics            `mapstructure:"metrics"`
	Bodies    []bodies.Descriptor `mapstructure:"bodies"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	eng := engine.DefaultOptions()
	cam := eng.Camera
	sc := eng.Scene

	v.SetDefault("sim.speed", eng.Speed)
	v.SetDefault("sim.speed_step", eng.SpeedStep)
	v.SetDefault("sim.max_frame_delta", eng.MaxFrameDelta)
	v.SetDefault("sim.lock_on_select", eng.LockOnSelect)
	v.SetDefault("sim.history_size", eng.HistorySize)
	v.SetDefault("sim.seed", sc.Seed)

	v.SetDefault("camera.mode", camera.ModeOrbit.String())
	v.SetDefault("camera.fov_deg", cam.FovY*180/math.Pi)
	v.SetDefault("camera.cell_aspect", cam.CellAspect)
	v.SetDefault("camera.min_distance", cam.MinDistance)
	v.SetDefault("camera.max_distance", cam.MaxDistance)
	v.SetDefault("camera.damping", cam.Damping)
	v.SetDefault("camera.auto_rotate_speed", cam.AutoRotateSpeed)

	v.SetDefault("labels.visible", eng.ShowLabels)
	v.SetDefault("labels.offset", eng.LabelOffset)

	v.SetDefault("stars.visible", eng.ShowStarfield)
	v.SetDefault("stars.count", sc.Starfield.Count)
	v.SetDefault("stars.radius", sc.Starfield.Radius)

	v.SetDefault("asteroids.count", sc.Asteroids.Count)
	v.SetDefault("asteroids.inner_radius", sc.Asteroids.InnerRadius)
	v.SetDefault("asteroids.outer_radius", sc.Asteroids.OuterRadius)
	v.SetDefault("asteroids.max_speed", sc.Asteroids.MaxSpeed)

	v.SetDefault("render.fps", DefaultFPS)
	v.SetDefault("render.guides", eng.ShowGuides)
	v.SetDefault("render.color", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("metrics.addr", "")
}

// New returns a viper instance with defaults and environment overrides but
// no config file. Callers may bind flags to it before calling Decode.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (toml, yaml or json, by extension) over the defaults. An
// empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrConfig, path, err)
		}
	}
	cfg, err := Decode(v)
	if err != nil {
		return nil, err
	}
	cfg.File = v.ConfigFileUsed()
	return cfg, nil
}

// Decode unmarshals v and clamps out-of-range values.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrConfig, err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// normalize clamps values into range and rejects settings that cannot be
// clamped into something meaningful.
func (c *Config) normalize() error {
	c.Sim.Speed = engine.ClampSpeed(c.Sim.Speed)
	if c.Sim.SpeedStep <= 0 {
		c.Sim.SpeedStep = engine.DefaultStep
	}
	if c.Sim.MaxFrameDelta <= 0 {
		c.Sim.MaxFrameDelta = engine.DefaultMaxFrameDelta
	}

	if c.Render.FPS < MinFPS {
		c.Render.FPS = MinFPS
	} else if c.Render.FPS > MaxFPS {
		c.Render.FPS = MaxFPS
	}

	c.Camera.FovDeg = clampFloat(c.Camera.FovDeg, 10, 120)
	c.Camera.Damping = clampFloat(c.Camera.Damping, 0.01, 1)
	if c.Camera.CellAspect <= 0 {
		c.Camera.CellAspect = camera.DefaultOptions().CellAspect
	}
	if c.Camera.MinDistance <= 0 || c.Camera.MaxDistance < c.Camera.MinDistance {
		return fmt.Errorf("%w: camera distance bounds [%g, %g] are invalid",
			ErrConfig, c.Camera.MinDistance, c.Camera.MaxDistance)
	}
	if _, ok := camera.ParseMode(c.Camera.Mode); !ok {
		return fmt.Errorf("%w: unknown camera mode %q", ErrConfig, c.Camera.Mode)
	}

	if c.Stars.Count < 0 {
		c.Stars.Count = 0
	}
	if c.Asteroids.Count < 0 {
		c.Asteroids.Count = 0
	}
	if c.Asteroids.Count > 0 && c.Asteroids.OuterRadius <= c.Asteroids.InnerRadius {
		return fmt.Errorf("%w: asteroid shell [%g, %g] is empty",
			ErrConfig, c.Asteroids.InnerRadius, c.Asteroids.OuterRadius)
	}
	if c.Labels.Offset < 0 {
		c.Labels.Offset = 0
	}
	return nil
}

// Registry builds the body registry: the configured bodies, or the built-in
// catalog when none are configured.
func (c *Config) Registry() (*bodies.Registry, error) {
	if len(c.Bodies) == 0 {
		return bodies.NewRegistry(bodies.DefaultDescriptors())
	}
	reg, err := bodies.NewRegistry(c.Bodies)
	if err != nil {
		return nil, fmt.Errorf("%w: bodies: %w", ErrConfig, err)
	}
	return reg, nil
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Log.Level)
}

// InitialMode returns the configured starting camera mode.
func (c *Config) InitialMode() camera.Mode {
	m, _ := camera.ParseMode(c.Camera.Mode)
	return m
}

// EngineOptions maps the config onto engine options. Renderer, metrics and
// logger are left for the caller to attach.
func (c *Config) EngineOptions() engine.Options {
	opts := engine.DefaultOptions()

	opts.Speed = c.Sim.Speed
	opts.SpeedStep = c.Sim.SpeedStep
	opts.MaxFrameDelta = c.Sim.MaxFrameDelta
	opts.LockOnSelect = c.Sim.LockOnSelect
	opts.HistorySize = c.Sim.HistorySize

	opts.Camera.FovY = c.Camera.FovDeg * math.Pi / 180
	opts.Camera.CellAspect = c.Camera.CellAspect
	opts.Camera.MinDistance = c.Camera.MinDistance
	opts.Camera.MaxDistance = c.Camera.MaxDistance
	opts.Camera.Damping = c.Camera.Damping
	opts.Camera.AutoRotateSpeed = c.Camera.AutoRotateSpeed

	opts.ShowLabels = c.Labels.Visible
	opts.LabelOffset = c.Labels.Offset
	opts.ShowGuides = c.Render.Guides
	opts.ShowStarfield = c.Stars.Visible

	opts.Scene.Seed = c.Sim.Seed
	opts.Scene.Starfield.Count = c.Stars.Count
	opts.Scene.Starfield.Radius = c.Stars.Radius
	opts.Scene.Asteroids.Count = c.Asteroids.Count
	opts.Scene.Asteroids.InnerRadius = c.Asteroids.InnerRadius
	opts.Scene.Asteroids.OuterRadius = c.Asteroids.OuterRadius
	opts.Scene.Asteroids.MaxSpeed = c.Asteroids.MaxSpeed
	return opts
}
