package experiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"

	"github.com/san-kum/sandsim/internal/config"
	"github.com/san-kum/sandsim/internal/metrics"
	"github.com/san-kum/sandsim/internal/sand"
	"github.com/san-kum/sandsim/internal/scene"
	"github.com/san-kum/sandsim/internal/sim"
	"github.com/san-kum/sandsim/internal/storage"
)

// Experiment ties a configuration to a populated engine and the runner
// driving it.
type Experiment struct {
	cfg    *config.Config
	logger *slog.Logger
	scene  scene.Scene
	runner *sim.Runner
}

func New(cfg *config.Config, logger *slog.Logger) *Experiment {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Experiment{cfg: cfg, logger: logger}
}

// Setup validates the configuration, builds the engine, lays out the scene
// and registers emitters and the default metrics.
func (x *Experiment) Setup() error {
	if err := x.cfg.Validate(); err != nil {
		return err
	}
	sc, err := scene.Get(x.cfg.Scene)
	if err != nil {
		return err
	}
	runner, err := build(x.cfg, sc, x.cfg.Seed, x.logger)
	if err != nil {
		return err
	}
	x.scene = sc
	x.runner = runner
	x.logger.Info("experiment ready",
		"scene", sc.Name(),
		"particles", runner.Engine().Len(),
		"emitters", len(runner.Emitters()),
	)
	return nil
}

func build(cfg *config.Config, sc scene.Scene, seed int64, logger *slog.Logger) (*sim.Runner, error) {
	engCfg, err := cfg.EngineConfig()
	if err != nil {
		return nil, err
	}
	engine, err := sand.New(engCfg, sand.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	runner := sim.New(engine)
	for _, em := range sc.Setup(engine, rand.New(rand.NewSource(seed))) {
		runner.AddEmitter(em)
	}
	extra, err := cfg.SimEmitters()
	if err != nil {
		return nil, err
	}
	for _, em := range extra {
		runner.AddEmitter(em)
	}
	for _, m := range metrics.Defaults() {
		runner.AddMetric(m)
	}
	return runner, nil
}

// Factory returns a sim.Factory building independent runners of cfg, one
// per seed.
func Factory(cfg *config.Config, logger *slog.Logger) (sim.Factory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sc, err := scene.Get(cfg.Scene)
	if err != nil {
		return nil, err
	}
	return func(seed int64) (*sim.Runner, error) {
		return build(cfg, sc, seed, logger)
	}, nil
}

func (x *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if x.runner == nil {
		return nil, fmt.Errorf("experiment: %w", sim.ErrNotSetup)
	}
	return x.runner.Run(ctx, x.cfg.SimConfig())
}

// Reset rebuilds the engine from scratch, keeping the configuration. Brush
// and tie-break changes made on the running engine carry over.
func (x *Experiment) Reset() error {
	if x.scene == nil {
		return fmt.Errorf("experiment: %w", sim.ErrNotSetup)
	}
	runner, err := build(x.cfg, x.scene, x.cfg.Seed, x.logger)
	if err != nil {
		return err
	}
	if prev := x.Engine(); prev != nil {
		cur := prev.Config()
		runner.Engine().SetBrush(cur.Brush)
		runner.Engine().SetTieBreak(cur.TieBreak)
	}
	runner.Reset(x.cfg.Seed)
	x.runner = runner
	return nil
}

func (x *Experiment) Config() *config.Config { return x.cfg }
func (x *Experiment) Runner() *sim.Runner    { return x.runner }

func (x *Experiment) Engine() *sand.Engine {
	if x.runner == nil {
		return nil
	}
	return x.runner.Engine()
}

// Metadata describes the experiment for the run store.
func (x *Experiment) Metadata(preset string) storage.RunMetadata {
	return storage.RunMetadata{
		Scene:     x.cfg.Scene,
		Preset:    preset,
		Seed:      x.cfg.Seed,
		Dt:        x.cfg.Dt,
		Duration:  x.cfg.Duration,
		CellSize:  x.cfg.Grid.CellSize,
		FallSpeed: x.cfg.Grid.FallSpeed,
		TieBreak:  x.cfg.TieBreak,
		Floor:     x.cfg.Floor,
		Width:     x.cfg.Viewport.Width,
		Height:    x.cfg.Viewport.Height,
	}
}
