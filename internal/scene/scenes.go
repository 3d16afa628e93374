package scene

import (
	"math/rand"

	"github.com/aquilax/go-perlin"

	"github.com/san-kum/sandsim/internal/sand"
	"github.com/san-kum/sandsim/internal/sim"
)

type Empty struct{}

func (Empty) Name() string        { return "empty" }
func (Empty) Description() string { return "nothing but the floor" }

func (Empty) Setup(e *sand.Engine, rng *rand.Rand) []sim.Emitter { return nil }

// Hourglass builds a stone funnel in the upper half of the view with a
// two-cell throat and pours sand into it.
type Hourglass struct{}

func (Hourglass) Name() string        { return "hourglass" }
func (Hourglass) Description() string { return "stone funnel fed from above" }

func (Hourglass) Setup(e *sand.Engine, rng *rand.Rand) []sim.Emitter {
	f := frameOf(e)
	throat := f.floorRow + f.rows()/3
	arms := min(f.rows()/3, f.cols()/2-2)
	for k := int32(0); k < arms; k++ {
		e.SpawnKind(f.at(1+k, throat+k), sand.KindStone)
		e.SpawnKind(f.at(-2-k, throat+k), sand.KindStone)
	}

	top := f.at(0, throat+arms+2)
	return []sim.Emitter{{
		Pos:    top,
		Jitter: float32(arms) * f.grid.Size() / 2,
		Rate:   90,
		Stop:   6,
	}}
}

// Pyramid stacks a settled pyramid of sand on the floor.
type Pyramid struct{}

func (Pyramid) Name() string        { return "pyramid" }
func (Pyramid) Description() string { return "pre-stacked sand pyramid" }

func (Pyramid) Setup(e *sand.Engine, rng *rand.Rand) []sim.Emitter {
	f := frameOf(e)
	half := min(f.cols()/2-1, f.rows()-1)
	for level := int32(0); level <= half; level++ {
		for col := -half + level; col <= half-level; col++ {
			e.TrySpawn(f.at(col, f.floorRow+level), nil)
		}
	}
	return nil
}

// Dunes lays a stone terrain shaped by 1D Perlin noise and sprinkles sand
// over it.
type Dunes struct{}

func (Dunes) Name() string        { return "dunes" }
func (Dunes) Description() string { return "perlin-noise stone terrain under light sand" }

func (Dunes) Setup(e *sand.Engine, rng *rand.Rand) []sim.Emitter {
	f := frameOf(e)
	noise := perlin.NewPerlin(2, 2, 3, rng.Int63())
	amp := float64(f.rows()) / 4
	for col := f.minCol; col <= f.maxCol; col++ {
		h := int32((noise.Noise1D(float64(col)/24) + 1) * amp)
		for row := f.floorRow; row < f.floorRow+h; row++ {
			e.SpawnKind(f.at(col, row), sand.KindStone)
		}
	}

	width := float32(f.cols()) * f.grid.Size()
	return []sim.Emitter{{
		Pos:    f.at((f.minCol+f.maxCol)/2, f.topRow),
		Jitter: width / 2,
		Rate:   40,
		Stop:   8,
	}}
}

// Rain spreads emitters evenly across the top row.
type Rain struct{}

func (Rain) Name() string        { return "rain" }
func (Rain) Description() string { return "empty world with sand raining across the top" }

func (Rain) Setup(e *sand.Engine, rng *rand.Rand) []sim.Emitter {
	f := frameOf(e)
	const drops = 8
	span := f.cols() / drops
	if span < 1 {
		span = 1
	}
	emitters := make([]sim.Emitter, 0, drops)
	for i := int32(0); i < drops; i++ {
		col := f.minCol + span*i + span/2
		if col > f.maxCol {
			break
		}
		emitters = append(emitters, sim.Emitter{
			Pos:    f.at(col, f.topRow),
			Jitter: float32(span) * f.grid.Size() / 2,
			Rate:   12,
			Start:  rng.Float64() / 2,
		})
	}
	return emitters
}
