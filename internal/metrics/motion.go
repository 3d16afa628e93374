package metrics

import (
	"github.com/san-kum/sandsim/internal/sand"
	"github.com/san-kum/sandsim/internal/sim"
)

// MovingFraction is the mean share of sand particles that moved per tick,
// over the ticks that had any sand.
type MovingFraction struct {
	name    string
	sum     float64
	samples int
}

func NewMovingFraction() *MovingFraction {
	return &MovingFraction{name: "moving_fraction"}
}

func (m *MovingFraction) Name() string { return m.name }

func (m *MovingFraction) Observe(e *sand.Engine, t float64) {
	st := e.Stats()
	if st.Sand == 0 {
		return
	}
	m.sum += float64(st.Moving) / float64(st.Sand)
	m.samples++
}

func (m *MovingFraction) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MovingFraction) Reset() {
	m.sum = 0
	m.samples = 0
}

// SettleTime is the time of the first tick, after the last spawn, in which
// no particle moved. It is -1 while the sand has not come to rest since
// then. Spawns are counted from the change in particle count between
// observations.
type SettleTime struct {
	name      string
	particles int
	settled   float64
}

func NewSettleTime() *SettleTime {
	return &SettleTime{name: "settle_time", settled: -1}
}

func (s *SettleTime) Name() string { return s.name }

func (s *SettleTime) Observe(e *sand.Engine, t float64) {
	st := e.Stats()
	spawned := st.Particles - s.particles + st.Despawned
	s.particles = st.Particles

	if spawned > 0 || st.Moving > 0 {
		s.settled = -1
	}
	if st.Moving == 0 && s.settled < 0 {
		s.settled = t
	}
}

func (s *SettleTime) Value() float64 { return s.settled }

func (s *SettleTime) Reset() {
	s.particles = 0
	s.settled = -1
}

// Defaults returns a fresh instance of every metric.
func Defaults() []sim.Metric {
	return []sim.Metric{
		NewParticleCount(),
		NewMovingFraction(),
		NewPileHeight(),
		NewSettleTime(),
	}
}
