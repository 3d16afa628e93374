package sand_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/sandsim/internal/sand"
)

const frame = float32(1.0 / 60.0)

// coarse returns a 10-unit lattice whose floor rests at y=-95.
func coarse() sand.Config {
	cfg := sand.DefaultConfig()
	cfg.CellSize = 10
	cfg.FallSpeed = 120
	cfg.Height = 200
	cfg.SleepAfter = 0
	return cfg
}

func spawn(e *sand.Engine, x, y float32) sand.ParticleID {
	GinkgoHelper()
	id, ok := e.TrySpawn(sand.Vec2{X: x, Y: y}, nil)
	Expect(ok).To(BeTrue(), "spawn at (%v, %v)", x, y)
	return id
}

func position(e *sand.Engine, id sand.ParticleID) sand.Vec2 {
	GinkgoHelper()
	p, ok := e.Get(id)
	Expect(ok).To(BeTrue(), "particle %d", id)
	return p.Pos
}

func expectInvariants(e *sand.Engine) {
	GinkgoHelper()
	seen := make(map[sand.Cell]sand.ParticleID, e.Len())
	for p := range e.Particles() {
		c := e.Grid().CellOf(p.Pos)
		prev, dup := seen[c]
		Expect(dup).To(BeFalse(), "particles %d and %d share cell %v", prev, p.ID, c)
		seen[c] = p.ID
		Expect(p.Pos.Y).To(BeNumerically(">=", e.FloorY()))
	}
}

// scripted runs a seeded spawn-and-advance script and calls each after
// every tick.
func scripted(cfg sand.Config, seed int64, ticks int, each func(*sand.Engine)) *sand.Engine {
	e := sand.MustNew(cfg)
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < 300; i++ {
		e.TrySpawn(sand.Vec2{X: rng.Float32()*200 - 100, Y: rng.Float32()*400 - 95}, nil)
	}
	for i := 0; i < 40; i++ {
		e.SpawnKind(sand.Vec2{X: rng.Float32()*200 - 100, Y: rng.Float32()*100 - 95}, sand.KindStone)
	}
	for t := 0; t < ticks; t++ {
		if t < ticks/2 {
			for k := 0; k < 3; k++ {
				e.TrySpawn(sand.Vec2{X: rng.Float32()*60 - 30, Y: 300}, nil)
			}
		}
		e.Advance(frame * (0.5 + rng.Float32()))
		if each != nil {
			each(e)
		}
	}
	return e
}

var _ = Describe("Engine", func() {
	Describe("construction", func() {
		DescribeTable("rejects invalid configs",
			func(mutate func(*sand.Config)) {
				cfg := sand.DefaultConfig()
				mutate(&cfg)
				_, err := sand.New(cfg)
				Expect(err).To(MatchError(sand.ErrInvalidConfig))
				Expect(func() { sand.MustNew(cfg) }).To(Panic())
			},
			Entry("zero cell size", func(c *sand.Config) { c.CellSize = 0 }),
			Entry("negative fall speed", func(c *sand.Config) { c.FallSpeed = -1 }),
			Entry("negative brush radius", func(c *sand.Config) { c.BrushRadius = -1 }),
			Entry("negative sleep", func(c *sand.Config) { c.SleepAfter = -3 }),
			Entry("negative width", func(c *sand.Config) { c.Width = -10 }),
			Entry("zero height", func(c *sand.Config) { c.Height = 0 }),
			Entry("unknown tie-break", func(c *sand.Config) { c.TieBreak = 9 }),
			Entry("unknown floor mode", func(c *sand.Config) { c.Floor = 7 }),
			Entry("infinite fall speed", func(c *sand.Config) { c.FallSpeed = float32(math.Inf(1)) }),
			Entry("NaN fall speed", func(c *sand.Config) { c.FallSpeed = float32(math.NaN()) }),
			Entry("infinite cell size", func(c *sand.Config) { c.CellSize = float32(math.Inf(1)) }),
			Entry("infinite width", func(c *sand.Config) { c.Width = float32(math.Inf(1)) }),
			Entry("NaN width", func(c *sand.Config) { c.Width = float32(math.NaN()) }),
			Entry("infinite height", func(c *sand.Config) { c.Height = float32(math.Inf(1)) }),
			Entry("height past the coordinate range", func(c *sand.Config) { c.Height = 1e9 }),
			Entry("height spanning too many cells", func(c *sand.Config) { c.CellSize = 1e-9 }),
		)

		It("places the floor on the lattice", func() {
			e := sand.MustNew(sand.DefaultConfig())
			Expect(e.FloorY()).To(Equal(float32(-357)))
			Expect(sand.MustNew(coarse()).FloorY()).To(Equal(float32(-95)))
		})
	})

	Describe("spawning", func() {
		var e *sand.Engine

		BeforeEach(func() {
			e = sand.MustNew(sand.DefaultConfig())
		})

		It("snaps the particle to its cell anchor", func() {
			id := spawn(e, 0, 100)
			Expect(position(e, id)).To(Equal(sand.Vec2{X: 3, Y: 103}))
		})

		It("ignores a spawn into an occupied cell", func() {
			spawn(e, 0, 100)
			_, ok := e.TrySpawn(sand.Vec2{X: 0, Y: 100}, nil)
			Expect(ok).To(BeFalse())
			_, ok = e.TrySpawn(sand.Vec2{X: 1, Y: 101}, nil)
			Expect(ok).To(BeFalse())
			Expect(e.Len()).To(Equal(1))
		})

		It("refuses positions outside the coordinate range", func() {
			_, ok := e.TrySpawn(sand.Vec2{X: 2e10, Y: 0}, nil)
			Expect(ok).To(BeFalse())
			_, ok = e.TrySpawn(sand.Vec2{X: 0, Y: float32(math.NaN())}, nil)
			Expect(ok).To(BeFalse())
			_, ok = e.SpawnKind(sand.Vec2{X: -2e10, Y: 0}, sand.KindStone)
			Expect(ok).To(BeFalse())
			Expect(e.Brush(sand.Vec2{X: 0, Y: 3e10}, nil)).To(Equal(0))
			Expect(e.Len()).To(BeZero())

			id, ok := e.TrySpawn(sand.Vec2{X: -3e6, Y: 0}, nil)
			Expect(ok).To(BeTrue())
			Expect(position(e, id).X).To(Equal(float32(-3e6 + 3)))
		})

		It("keeps a zero tick a no-op at the fastest valid speed", func() {
			cfg := sand.DefaultConfig()
			cfg.FallSpeed = math.MaxFloat32
			e := sand.MustNew(cfg)
			id := spawn(e, 0, 100)
			e.Advance(0)
			Expect(position(e, id)).To(Equal(sand.Vec2{X: 3, Y: 103}))
		})

		It("honours the column filter", func() {
			skipZero := func(col int32) bool { return col == 0 }
			_, ok := e.TrySpawn(sand.Vec2{X: 2, Y: 50}, skipZero)
			Expect(ok).To(BeFalse())
			_, ok = e.TrySpawn(sand.Vec2{X: 7, Y: 50}, skipZero)
			Expect(ok).To(BeTrue())
		})

		It("refuses cells below the floor", func() {
			_, ok := e.TrySpawn(sand.Vec2{X: 0, Y: -400}, nil)
			Expect(ok).To(BeFalse())
			_, ok = e.TrySpawn(sand.Vec2{X: 0, Y: e.FloorY()}, nil)
			Expect(ok).To(BeTrue())
		})

		It("hands out increasing ids", func() {
			a := spawn(e, 0, 0)
			b := spawn(e, 20, 0)
			Expect(b).To(BeNumerically(">", a))
		})

		Context("with the plus brush", func() {
			BeforeEach(func() {
				cfg := sand.DefaultConfig()
				cfg.Brush = sand.BrushPlus
				cfg.BrushRadius = 2
				e = sand.MustNew(cfg)
			})

			It("spawns the centre and four arms", func() {
				Expect(e.Brush(sand.Vec2{X: 0, Y: 0}, nil)).To(Equal(5))
				Expect(e.Occupied(sand.Vec2{X: 10, Y: 0})).To(BeTrue())
				Expect(e.Occupied(sand.Vec2{X: -10, Y: 0})).To(BeTrue())
				Expect(e.Occupied(sand.Vec2{X: 0, Y: 10})).To(BeTrue())
				Expect(e.Occupied(sand.Vec2{X: 0, Y: -10})).To(BeTrue())
			})

			It("checks every cell on its own", func() {
				spawn(e, 10, 0)
				Expect(e.Brush(sand.Vec2{X: 0, Y: 0}, nil)).To(Equal(4))
				Expect(e.Brush(sand.Vec2{X: 0, Y: 0}, nil)).To(Equal(0))
			})
		})

		It("spawns a single cell with the single brush", func() {
			Expect(e.Brush(sand.Vec2{X: 0, Y: 0}, nil)).To(Equal(1))
			Expect(e.Len()).To(Equal(1))
		})
	})

	Describe("falling", func() {
		It("drops exactly fall speed times dt", func() {
			e := sand.MustNew(sand.DefaultConfig())
			id := spawn(e, 0, 100)
			e.Advance(0.5)
			Expect(position(e, id)).To(Equal(sand.Vec2{X: 3, Y: 43}))
			e.Advance(0.5)
			Expect(position(e, id)).To(Equal(sand.Vec2{X: 3, Y: -17}))
		})

		It("treats zero and negative dt as a no-op", func() {
			e := sand.MustNew(coarse())
			spawn(e, 0, 50)
			spawn(e, 30, 0)
			before := e.Snapshot()
			e.Advance(0)
			e.Advance(-1)
			Expect(e.Snapshot()).To(Equal(before))
		})

		It("clamps to the floor", func() {
			e := sand.MustNew(coarse())
			id := spawn(e, 0, 0)
			e.Advance(10)
			Expect(position(e, id)).To(Equal(sand.Vec2{X: 5, Y: -95}))
			e.Advance(10)
			Expect(position(e, id)).To(Equal(sand.Vec2{X: 5, Y: -95}))
		})
	})

	Describe("stacking", func() {
		var e *sand.Engine

		BeforeEach(func() {
			e = sand.MustNew(coarse())
		})

		It("rests one cell above a blocked pile", func() {
			base := spawn(e, 0, -95)
			left := spawn(e, -10, -95)
			right := spawn(e, 10, -95)
			top := spawn(e, 0, 50)

			for i := 0; i < 200; i++ {
				e.Advance(frame)
				expectInvariants(e)
			}

			Expect(position(e, top)).To(Equal(sand.Vec2{X: 5, Y: -85}))
			Expect(position(e, base)).To(Equal(sand.Vec2{X: 5, Y: -95}))
			Expect(position(e, left)).To(Equal(sand.Vec2{X: -5, Y: -95}))
			Expect(position(e, right)).To(Equal(sand.Vec2{X: 15, Y: -95}))
		})

		It("slides left when both diagonals are free", func() {
			spawn(e, 0, -95)
			top := spawn(e, 0, -85)

			e.Advance(frame)
			p := position(e, top)
			Expect(p.X).To(Equal(float32(-5)))
			Expect(p.Y).To(BeNumerically("<", -85))
			Expect(p.Y).To(BeNumerically(">", -95))

			e.Advance(frame)
			q := position(e, top)
			Expect(q.X).To(Equal(float32(-5)))
			Expect(q.Y).To(BeNumerically("<", p.Y))

			for i := 0; i < 100; i++ {
				e.Advance(frame)
			}
			Expect(position(e, top)).To(Equal(sand.Vec2{X: -5, Y: -95}))
		})

		It("slides right when the left diagonal is taken", func() {
			spawn(e, 0, -95)
			spawn(e, -10, -95)
			top := spawn(e, 0, -85)

			e.Advance(frame)
			Expect(position(e, top).X).To(Equal(float32(15)))
		})

		It("follows a right-hand tie-break", func() {
			cfg := coarse()
			cfg.TieBreak = sand.PreferRight
			e = sand.MustNew(cfg)
			spawn(e, 0, -95)
			top := spawn(e, 0, -85)

			e.Advance(frame)
			Expect(position(e, top).X).To(Equal(float32(15)))
		})

		It("never slides out of a bounded viewport", func() {
			cfg := coarse()
			cfg.Width = 100
			e = sand.MustNew(cfg)

			_, ok := e.TrySpawn(sand.Vec2{X: 50, Y: 0}, nil)
			Expect(ok).To(BeFalse())
			spawn(e, -50, -95)
			top := spawn(e, -50, -85)

			e.Advance(frame)
			Expect(position(e, top).X).To(Equal(float32(-35)))
		})

		It("stacks on stone without moving it", func() {
			for _, x := range []float32{-10, 0, 10} {
				_, ok := e.SpawnKind(sand.Vec2{X: x, Y: -95}, sand.KindStone)
				Expect(ok).To(BeTrue())
			}
			wall, ok := e.SpawnKind(sand.Vec2{X: 40, Y: 0}, sand.KindStone)
			Expect(ok).To(BeTrue())
			top := spawn(e, 0, 30)

			for i := 0; i < 120; i++ {
				e.Advance(frame)
			}
			Expect(position(e, top)).To(Equal(sand.Vec2{X: 5, Y: -85}))
			Expect(position(e, wall)).To(Equal(sand.Vec2{X: 45, Y: 5}))
			Expect(e.Stats().Stone).To(Equal(4))
		})

		It("resolves a column of simultaneous landings without overlap", func() {
			ids := make([]sand.ParticleID, 0, 10)
			for row := 0; row < 10; row++ {
				ids = append(ids, spawn(e, 0, float32(row*10)))
			}
			for i := 0; i < 600; i++ {
				e.Advance(frame)
				expectInvariants(e)
			}
			Expect(e.Len()).To(Equal(10))
			Expect(e.Stats().Moving).To(Equal(0))
		})
	})

	Describe("floor despawn", func() {
		It("removes sand falling through the floor", func() {
			cfg := coarse()
			cfg.Floor = sand.FloorDespawn
			e := sand.MustNew(cfg)
			gone := spawn(e, 0, 0)
			kept := spawn(e, 40, 200)

			e.Advance(1)
			_, ok := e.Get(gone)
			Expect(ok).To(BeFalse())
			Expect(e.Len()).To(Equal(1))
			Expect(e.Stats().Despawned).To(Equal(1))
			Expect(position(e, kept)).To(Equal(sand.Vec2{X: 45, Y: 85}))
		})
	})

	Describe("viewport", func() {
		It("moves the floor and wakes resting sand", func() {
			cfg := coarse()
			cfg.SleepAfter = 1
			e := sand.MustNew(cfg)
			id := spawn(e, 0, -95)
			e.Advance(frame)
			e.Advance(frame)
			Expect(e.Stats().Sleeping).To(Equal(1))

			e.SetViewport(0, 400)
			Expect(e.FloorY()).To(Equal(float32(-195)))
			for i := 0; i < 120; i++ {
				e.Advance(frame)
			}
			Expect(position(e, id)).To(Equal(sand.Vec2{X: 5, Y: -195}))
		})
	})

	Describe("determinism", func() {
		It("reproduces a run bit for bit", func() {
			cfg := coarse()
			cfg.Width = 200
			a := scripted(cfg, 7, 300, expectInvariants).Snapshot()
			b := scripted(cfg, 7, 300, nil).Snapshot()
			Expect(a).To(Equal(b))
		})

		DescribeTable("sleeping never changes positions",
			func(tie sand.TieBreak) {
				awake := coarse()
				awake.Width = 200
				awake.TieBreak = tie
				asleep := awake
				asleep.SleepAfter = 2

				var frames [][]sand.Particle
				scripted(awake, 11, 400, func(e *sand.Engine) {
					frames = append(frames, e.Snapshot())
				})
				tick := 0
				e := scripted(asleep, 11, 400, func(e *sand.Engine) {
					Expect(e.Snapshot()).To(Equal(frames[tick]), "tick %d", tick)
					tick++
				})
				Expect(e.Stats().Sleeping).To(BeNumerically(">", 0))
			},
			Entry("prefer left", sand.PreferLeft),
			Entry("alternate", sand.Alternate),
		)
	})

	It("resets to an empty world", func() {
		e := sand.MustNew(coarse())
		spawn(e, 0, 0)
		e.Reset()
		Expect(e.Len()).To(BeZero())
		Expect(e.Occupied(sand.Vec2{X: 0, Y: 0})).To(BeFalse())
		spawn(e, 0, 0)
	})
})
