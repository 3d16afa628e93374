package sand

// Stats describes the engine after the last tick.
type Stats struct {
	Tick      uint64
	Particles int
	Sand      int
	Stone     int
	// Moving counts particles whose position changed during the tick.
	Moving    int
	Sleeping  int
	Despawned int
}

func (e *Engine) collectStats(moving, despawned int) {
	s := Stats{
		Tick:      e.tick,
		Particles: len(e.particles),
		Moving:    moving,
		Despawned: despawned,
	}
	for i := range e.particles {
		p := &e.particles[i]
		switch p.Kind {
		case KindStone:
			s.Stone++
		default:
			s.Sand++
		}
		if p.asleep {
			s.Sleeping++
		}
	}
	e.stats = s
}
