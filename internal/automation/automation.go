package automation

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/sandsim/internal/config"
	"github.com/san-kum/sandsim/internal/ctxlog"
	"github.com/san-kum/sandsim/internal/experiment"
	"github.com/san-kum/sandsim/internal/sim"
	"github.com/san-kum/sandsim/internal/storage"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (or the defaults) and applies the
// non-zero overrides.
type ScenarioStep struct {
	Preset    string                 `yaml:"preset"`
	Scene     string                 `yaml:"scene"`
	CellSize  float64                `yaml:"cell_size"`
	FallSpeed float64                `yaml:"fall_speed"`
	TieBreak  string                 `yaml:"tie_break"`
	Floor     string                 `yaml:"floor"`
	Duration  float64                `yaml:"duration"`
	Dt        float64                `yaml:"dt"`
	Seed      int64                  `yaml:"seed"`
	Emitters  []config.EmitterConfig `yaml:"emitters"`
	SaveAs    string                 `yaml:"save_as"`
}

// StepResult pairs a step's result with the run ID it was saved under.
type StepResult struct {
	Step   int
	RunID  string
	Result *sim.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}

	return &scenario, nil
}

// Config resolves the step into a full configuration.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}
	if s.Scene != "" {
		cfg.Scene = s.Scene
	}
	if s.CellSize != 0 {
		cfg.Grid.CellSize = s.CellSize
	}
	if s.FallSpeed != 0 {
		cfg.Grid.FallSpeed = s.FallSpeed
	}
	if s.TieBreak != "" {
		cfg.TieBreak = s.TieBreak
	}
	if s.Floor != "" {
		cfg.Floor = s.Floor
	}
	if s.Duration != 0 {
		cfg.Duration = s.Duration
	}
	if s.Dt != 0 {
		cfg.Dt = s.Dt
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	if len(s.Emitters) > 0 {
		cfg.Emitters = append(cfg.Emitters, s.Emitters...)
	}
	return cfg, nil
}

// RunScenario executes the steps in order. Steps with SaveAs set are
// written to store when it is non-nil.
func RunScenario(ctx context.Context, scenario *Scenario, store *storage.Store) ([]StepResult, error) {
	log := ctxlog.FromContext(ctx)
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		log.Info("running step", "step", i+1, "of", len(scenario.Steps), "scene", cfg.Scene, "preset", step.Preset)

		exp := experiment.New(cfg, log)
		if err := exp.Setup(); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Step: i + 1, Result: result}
		if step.SaveAs != "" && store != nil {
			meta := exp.Metadata(step.Preset)
			runID, err := store.Save(meta, result)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			sr.RunID = runID
			log.Info("step saved", "step", i+1, "name", step.SaveAs, "run_id", runID)
		}
		results = append(results, sr)
	}

	return results, nil
}

// ParameterSweep runs one configuration across a range of values of a
// single engine parameter.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

type SweepResult struct {
	ParamValue float64
	Particles  int
	PileHeight float64
	SettleTime float64
}

var sweepable = map[string]func(*config.Config, float64){
	"cell_size":   func(c *config.Config, v float64) { c.Grid.CellSize = v },
	"fall_speed":  func(c *config.Config, v float64) { c.Grid.FallSpeed = v },
	"sleep_after": func(c *config.Config, v float64) { c.SleepAfter = int(v) },
}

func RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	set, ok := sweepable[sweep.ParamName]
	if !ok {
		return nil, fmt.Errorf("parameter %s cannot be swept", sweep.ParamName)
	}
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}

	log := ctxlog.FromContext(ctx)
	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep
		cfg := sweep.Base.Clone()
		set(cfg, paramVal)

		exp := experiment.New(cfg, log)
		if err := exp.Setup(); err != nil {
			return nil, fmt.Errorf("%s=%.4f: %w", sweep.ParamName, paramVal, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}

		results = append(results, SweepResult{
			ParamValue: paramVal,
			Particles:  len(result.Final),
			PileHeight: result.Metrics["pile_height"],
			SettleTime: result.Metrics["settle_time"],
		})
		log.Info("sweep step", "step", i+1, "of", sweep.NumSteps, sweep.ParamName, paramVal)
	}

	return results, nil
}

// TrialStats summarises an ensemble of seeds.
type TrialStats struct {
	Runs          int
	MeanPile      float64
	MeanSettle    float64
	StillMoving   int
	MeanParticles float64
}

// RunTrials runs cfg once per seed in parallel and aggregates the metrics.
func RunTrials(ctx context.Context, cfg *config.Config, trials int) (*TrialStats, error) {
	factory, err := experiment.Factory(cfg, nil)
	if err != nil {
		return nil, err
	}
	results, err := sim.NewEnsemble(factory, trials, cfg.Seed).Run(ctx, cfg.SimConfig())
	if err != nil {
		return nil, err
	}

	stats := &TrialStats{Runs: len(results)}
	settled := 0
	for _, r := range results {
		stats.MeanPile += r.Metrics["pile_height"]
		stats.MeanParticles += float64(len(r.Final))
		if st := r.Metrics["settle_time"]; st < 0 {
			stats.StillMoving++
		} else {
			stats.MeanSettle += st
			settled++
		}
	}
	if stats.Runs > 0 {
		stats.MeanPile /= float64(stats.Runs)
		stats.MeanParticles /= float64(stats.Runs)
	}
	if settled > 0 {
		stats.MeanSettle /= float64(settled)
	}
	return stats, nil
}
