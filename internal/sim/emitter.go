package sim

import (
	"math/rand"

	"github.com/san-kum/sandsim/internal/sand"
)

// Emitter is a scripted spawn source. Rate is in spawn attempts per second;
// each attempt lands within Jitter world units left or right of Pos.
// Attempts into occupied cells are dropped, not retried.
type Emitter struct {
	Pos    sand.Vec2
	Jitter float32
	Rate   float64
	Brush  bool
	Kind   sand.Kind
	Start  float64
	// Stop of zero keeps the emitter running for the whole run.
	Stop float64

	acc float64
}

func (em *Emitter) active(t float64) bool {
	return t >= em.Start && (em.Stop <= 0 || t < em.Stop)
}

// emit fires the attempts due in [t, t+dt) and returns how many particles
// were created.
func (em *Emitter) emit(e *sand.Engine, rng *rand.Rand, t, dt float64) int {
	if !em.active(t) || em.Rate <= 0 {
		return 0
	}
	em.acc += em.Rate * dt
	n := int(em.acc)
	em.acc -= float64(n)

	spawned := 0
	for i := 0; i < n; i++ {
		pos := em.Pos
		if em.Jitter > 0 {
			pos.X += (rng.Float32()*2 - 1) * em.Jitter
		}
		switch {
		case em.Brush && em.Kind == sand.KindSand:
			spawned += e.Brush(pos, nil)
		default:
			if _, ok := e.SpawnKind(pos, em.Kind); ok {
				spawned++
			}
		}
	}
	return spawned
}

func (em *Emitter) reset() {
	em.acc = 0
}
