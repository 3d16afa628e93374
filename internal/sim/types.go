package sim

import "github.com/san-kum/sandsim/internal/sand"

// Metric accumulates a single number over a run. Observe is called after
// every tick with the engine in its post-tick state.
type Metric interface {
	Name() string
	Observe(e *sand.Engine, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(f Frame)
}

type Config struct {
	Dt       float64
	Duration float64
	Seed     int64
}

// Frame summarises one tick.
type Frame struct {
	Time      float64
	Particles int
	Moving    int
	Sleeping  int
	Spawned   int
	Despawned int
}

type Result struct {
	Frames     []Frame
	Final      []sand.Particle
	Metrics    map[string]float64
	StepsTaken int
	Spawned    int
}
