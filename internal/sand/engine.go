package sand

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math"

	"github.com/kamstrup/intmap"
)

// Kind distinguishes moving sand from static obstacles.
type Kind uint8

const (
	KindSand Kind = iota
	KindStone
)

func (k Kind) String() string {
	switch k {
	case KindSand:
		return "sand"
	case KindStone:
		return "stone"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParticleID identifies a particle for its whole lifetime. IDs are handed
// out in spawn order starting at 1 and never reused by an engine.
type ParticleID uint64

// Particle is the observable state of one particle.
type Particle struct {
	ID   ParticleID
	Kind Kind
	Pos  Vec2
}

type particle struct {
	Particle
	cell   Cell
	idle   int
	asleep bool
}

// Engine owns the particle set and its occupancy index.
type Engine struct {
	cfg    Config
	grid   Grid
	height float32
	floorY float32
	// lowest row a spawn may target
	floorRow       int32
	minCol, maxCol int32
	bounded        bool

	particles []particle
	slots     *intmap.Map[ParticleID, int]
	index     *occupancy
	nextID    ParticleID
	tick      uint64
	stats     Stats

	logger *slog.Logger

	// per-tick scratch, reused across ticks
	proposals []proposal
	order     []int
	committed []bool
	claimed   *intmap.Map[uint64, struct{}]
	moved     []move
}

type Option func(*Engine)

// WithLogger sets the logger used for lifecycle events. The tick path
// never logs.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:     cfg,
		grid:    NewGrid(cfg.CellSize),
		slots:   intmap.New[ParticleID, int](256),
		index:   newOccupancy(256),
		claimed: intmap.New[uint64, struct{}](256),
		nextID:  1,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.applyViewport(cfg.Width, cfg.Height)
	e.logger.Debug("sand engine created",
		"cell_size", cfg.CellSize,
		"fall_speed", cfg.FallSpeed,
		"tie_break", cfg.TieBreak.String(),
		"floor", cfg.Floor.String(),
		"floor_y", e.floorY,
	)
	return e, nil
}

// MustNew is like New but panics on an invalid configuration.
func MustNew(cfg Config, opts ...Option) *Engine {
	e, err := New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Engine) Config() Config { return e.cfg }
func (e *Engine) Grid() Grid     { return e.grid }
func (e *Engine) Len() int       { return len(e.particles) }
func (e *Engine) Tick() uint64   { return e.tick }
func (e *Engine) Stats() Stats   { return e.stats }

// FloorY is the resting Y of particles on the floor.
func (e *Engine) FloorY() float32 { return e.floorY }

// Viewport returns the current viewport size.
func (e *Engine) Viewport() (width, height float32) { return e.cfg.Width, e.height }

// SetViewport moves the floor and the column bounds. A non-positive or
// out of range height keeps the current one; an invalid width unbounds the
// columns. All sleeping particles are woken.
func (e *Engine) SetViewport(width, height float32) {
	if !(height > 0) || !extent(height, e.grid.size) {
		height = e.height
	}
	if !(width >= 0) || !extent(width, e.grid.size) {
		width = 0
	}
	if width == e.cfg.Width && height == e.height {
		return
	}
	e.applyViewport(width, height)
	for i := range e.particles {
		e.particles[i].wake()
	}
	e.logger.Debug("sand viewport changed", "width", width, "height", height, "floor_y", e.floorY)
}

func (e *Engine) applyViewport(width, height float32) {
	e.cfg.Width = width
	e.height = height
	e.floorRow = e.grid.floorRow(height)
	e.floorY = e.grid.rowY(e.floorRow)
	e.bounded = width > 0
	if e.bounded {
		half := float64(width / 2)
		size := float64(e.grid.size)
		e.minCol = int32(math.Floor(-half / size))
		e.maxCol = int32(math.Ceil(half/size)) - 1
	}
}

// SetTieBreak changes the slide policy for subsequent ticks.
func (e *Engine) SetTieBreak(t TieBreak) {
	if int(t) < len(tieNames) {
		e.cfg.TieBreak = t
	}
}

// SetBrush changes the pattern used by Brush.
func (e *Engine) SetBrush(b BrushPattern) {
	if int(b) < len(brushNames) {
		e.cfg.Brush = b
	}
}

// Occupied reports whether the cell containing pos holds a particle.
func (e *Engine) Occupied(pos Vec2) bool {
	return e.index.occupied(e.grid.CellOf(pos))
}

// Occupant returns the particle holding cell c.
func (e *Engine) Occupant(c Cell) (Particle, bool) {
	id, ok := e.index.occupant(c)
	if !ok {
		return Particle{}, false
	}
	return e.Get(id)
}

func (e *Engine) Get(id ParticleID) (Particle, bool) {
	i, ok := e.slots.Get(id)
	if !ok {
		return Particle{}, false
	}
	return e.particles[i].Particle, true
}

// Particles iterates the live particles in spawn order.
func (e *Engine) Particles() iter.Seq[Particle] {
	return func(yield func(Particle) bool) {
		for i := range e.particles {
			if !yield(e.particles[i].Particle) {
				return
			}
		}
	}
}

// Snapshot copies the live particles in spawn order.
func (e *Engine) Snapshot() []Particle {
	out := make([]Particle, len(e.particles))
	for i := range e.particles {
		out[i] = e.particles[i].Particle
	}
	return out
}

// Reset removes every particle. The tick counter and id sequence keep
// running.
func (e *Engine) Reset() {
	e.particles = e.particles[:0]
	e.slots.Clear()
	e.index.reset()
	e.stats = Stats{Tick: e.tick}
	e.logger.Debug("sand engine reset", "tick", e.tick)
}

func (e *Engine) inBounds(c Cell) bool {
	return !e.bounded || (c.Col >= e.minCol && c.Col <= e.maxCol)
}

// free reports whether a particle may enter c: inside the bounds and
// unoccupied at the start of the tick.
func (e *Engine) free(c Cell) bool {
	return e.inBounds(c) && !e.index.occupied(c)
}

func (p *particle) wake() {
	p.asleep = false
	p.idle = 0
}
