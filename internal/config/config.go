package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/sandsim/internal/sand"
	"github.com/san-kum/sandsim/internal/sim"
)

const (
	DefaultDt        = 1.0 / 60
	DefaultDuration  = 10.0
	DefaultCellSize  = 5.0
	DefaultFallSpeed = 120.0
	DefaultRadius    = 2
	DefaultSleep     = 2
	DefaultHeight    = 720.0
)

type Config struct {
	Scene      string          `yaml:"scene"`
	Grid       GridConfig      `yaml:"grid"`
	Brush      BrushConfig     `yaml:"brush"`
	TieBreak   string          `yaml:"tie_break"`
	Floor      string          `yaml:"floor"`
	SleepAfter int             `yaml:"sleep_after"`
	Viewport   ViewportConfig  `yaml:"viewport"`
	Dt         float64         `yaml:"dt"`
	Duration   float64         `yaml:"duration"`
	Seed       int64           `yaml:"seed"`
	Emitters   []EmitterConfig `yaml:"emitters,omitempty"`
}

type GridConfig struct {
	CellSize  float64 `yaml:"cell_size"`
	FallSpeed float64 `yaml:"fall_speed"`
}

type BrushConfig struct {
	Pattern string `yaml:"pattern"`
	Radius  int    `yaml:"radius"`
}

type ViewportConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type EmitterConfig struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Jitter float64 `yaml:"jitter"`
	Rate   float64 `yaml:"rate"`
	Brush  bool    `yaml:"brush"`
	Kind   string  `yaml:"kind,omitempty"`
	Start  float64 `yaml:"start"`
	Stop   float64 `yaml:"stop"`
}

func DefaultConfig() *Config {
	return &Config{
		Scene: "empty",
		Grid: GridConfig{
			CellSize:  DefaultCellSize,
			FallSpeed: DefaultFallSpeed,
		},
		Brush: BrushConfig{
			Pattern: "single",
			Radius:  DefaultRadius,
		},
		TieBreak:   "left",
		Floor:      "clamp",
		SleepAfter: DefaultSleep,
		Viewport:   ViewportConfig{Height: DefaultHeight},
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy so presets can be overridden safely.
func (c *Config) Clone() *Config {
	out := *c
	out.Emitters = append([]EmitterConfig(nil), c.Emitters...)
	return &out
}

func (c *Config) Validate() error {
	if !(c.Dt > 0) || math.IsInf(c.Dt, 1) {
		return fmt.Errorf("dt must be positive and finite, got %f", c.Dt)
	}
	if !(c.Duration > 0) || math.IsInf(c.Duration, 1) {
		return fmt.Errorf("duration must be positive and finite, got %f", c.Duration)
	}
	engine, err := c.EngineConfig()
	if err != nil {
		return err
	}
	if err := engine.Validate(); err != nil {
		return err
	}
	_, err = c.SimEmitters()
	return err
}

// EngineConfig translates the file settings into engine parameters.
func (c *Config) EngineConfig() (sand.Config, error) {
	brush, err := sand.ParseBrush(c.Brush.Pattern)
	if err != nil {
		return sand.Config{}, err
	}
	tie, err := sand.ParseTieBreak(c.TieBreak)
	if err != nil {
		return sand.Config{}, err
	}
	floor, err := sand.ParseFloor(c.Floor)
	if err != nil {
		return sand.Config{}, err
	}
	return sand.Config{
		CellSize:    float32(c.Grid.CellSize),
		FallSpeed:   float32(c.Grid.FallSpeed),
		BrushRadius: int32(c.Brush.Radius),
		Brush:       brush,
		TieBreak:    tie,
		Floor:       floor,
		SleepAfter:  c.SleepAfter,
		Width:       float32(c.Viewport.Width),
		Height:      float32(c.Viewport.Height),
	}, nil
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{Dt: c.Dt, Duration: c.Duration, Seed: c.Seed}
}

// SimEmitters converts the configured emitters. An empty kind means sand.
func (c *Config) SimEmitters() ([]sim.Emitter, error) {
	out := make([]sim.Emitter, 0, len(c.Emitters))
	for i, ec := range c.Emitters {
		kind := sand.KindSand
		switch ec.Kind {
		case "", "sand":
		case "stone":
			kind = sand.KindStone
		default:
			return nil, fmt.Errorf("emitter %d: unknown kind %q", i, ec.Kind)
		}
		if ec.Rate < 0 {
			return nil, fmt.Errorf("emitter %d: rate must not be negative, got %f", i, ec.Rate)
		}
		out = append(out, sim.Emitter{
			Pos:    sand.Vec2{X: float32(ec.X), Y: float32(ec.Y)},
			Jitter: float32(ec.Jitter),
			Rate:   ec.Rate,
			Brush:  ec.Brush,
			Kind:   kind,
			Start:  ec.Start,
			Stop:   ec.Stop,
		})
	}
	return out, nil
}
