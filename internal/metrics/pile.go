package metrics

import (
	"github.com/san-kum/sandsim/internal/sand"
)

// ParticleCount reports the number of live particles at the last
// observation.
type ParticleCount struct {
	name  string
	count int
}

func NewParticleCount() *ParticleCount {
	return &ParticleCount{name: "particles"}
}

func (p *ParticleCount) Name() string { return p.name }

func (p *ParticleCount) Observe(e *sand.Engine, t float64) {
	p.count = e.Len()
}

func (p *ParticleCount) Value() float64 { return float64(p.count) }
func (p *ParticleCount) Reset()         { p.count = 0 }

// PileHeight reports the height, in cells above the floor, of the highest
// sand particle at the last observation. A particle resting on the floor
// counts as one cell.
type PileHeight struct {
	name   string
	height float64
}

func NewPileHeight() *PileHeight {
	return &PileHeight{name: "pile_height"}
}

func (p *PileHeight) Name() string { return p.name }

func (p *PileHeight) Observe(e *sand.Engine, t float64) {
	p.height = Height(e)
}

func (p *PileHeight) Value() float64 { return p.height }
func (p *PileHeight) Reset()         { p.height = 0 }

// Height measures the current pile of e in cells.
func Height(e *sand.Engine) float64 {
	floor := e.FloorY()
	size := e.Grid().Size()
	best := 0.0
	for p := range e.Particles() {
		if p.Kind != sand.KindSand {
			continue
		}
		h := float64((p.Pos.Y-floor)/size) + 1
		if h > best {
			best = h
		}
	}
	return best
}
