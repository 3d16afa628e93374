package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/sandsim/internal/ctxlog"
	"github.com/san-kum/sandsim/internal/sand"
)

// Runner drives a sand engine at a fixed time step, feeding it from
// emitters and reporting each tick to metrics and observers.
type Runner struct {
	engine    *sand.Engine
	emitters  []*Emitter
	metrics   []Metric
	observers []Observer

	rng *rand.Rand
	t   float64
}

func New(engine *sand.Engine) *Runner {
	return &Runner{
		engine:    engine,
		emitters:  make([]*Emitter, 0),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		rng:       rand.New(rand.NewSource(0)),
	}
}

func (r *Runner) AddEmitter(em Emitter)  { r.emitters = append(r.emitters, &em) }
func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func (r *Runner) Engine() *sand.Engine { return r.engine }
func (r *Runner) Time() float64        { return r.t }

func (r *Runner) Emitters() []Emitter {
	out := make([]Emitter, len(r.emitters))
	for i, em := range r.emitters {
		out[i] = *em
	}
	return out
}

// Reset rewinds the clock and reseeds the emitters' jitter source. The
// engine's particles are left alone.
func (r *Runner) Reset(seed int64) {
	r.t = 0
	r.rng = rand.New(rand.NewSource(seed))
	for _, em := range r.emitters {
		em.reset()
	}
	for _, m := range r.metrics {
		m.Reset()
	}
}

// Step advances the clock by dt: emitters fire, the engine ticks, metrics
// and observers see the result.
func (r *Runner) Step(dt float64) Frame {
	spawned := 0
	for _, em := range r.emitters {
		spawned += em.emit(r.engine, r.rng, r.t, dt)
	}
	r.engine.Advance(float32(dt))
	r.t += dt

	st := r.engine.Stats()
	f := Frame{
		Time:      r.t,
		Particles: st.Particles,
		Moving:    st.Moving,
		Sleeping:  st.Sleeping,
		Spawned:   spawned,
		Despawned: st.Despawned,
	}
	for _, m := range r.metrics {
		m.Observe(r.engine, r.t)
	}
	for _, obs := range r.observers {
		obs.OnStep(f)
	}
	return f
}

func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if r.engine == nil {
		return nil, ErrNotSetup
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log := ctxlog.FromContext(ctx)
	steps := stepCount(cfg)
	result := &Result{
		Frames:  make([]Frame, 0, steps),
		Metrics: make(map[string]float64),
	}
	r.Reset(cfg.Seed)
	log.Debug("run started", "steps", steps, "dt", cfg.Dt, "seed", cfg.Seed, "emitters", len(r.emitters))

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			r.finish(result)
			return result, ctx.Err()
		default:
		}

		f := r.Step(cfg.Dt)
		result.Frames = append(result.Frames, f)
		result.Spawned += f.Spawned
		result.StepsTaken++
	}

	r.finish(result)
	log.Debug("run finished", "steps", result.StepsTaken, "particles", len(result.Final))
	return result, nil
}

func (r *Runner) finish(result *Result) {
	result.Final = r.engine.Snapshot()
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

// RunWithCallback steps until the duration elapses, the context is done or
// callback returns false.
func (r *Runner) RunWithCallback(ctx context.Context, cfg Config, callback func(Frame) bool) error {
	if r.engine == nil {
		return ErrNotSetup
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	r.Reset(cfg.Seed)
	steps := stepCount(cfg)
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(r.Step(cfg.Dt)) {
			return nil
		}
	}
	return nil
}

func validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}

func stepCount(cfg Config) int {
	return int(math.Round(cfg.Duration / cfg.Dt))
}
