package sand

import (
	"cmp"
	"slices"
)

type outcome uint8

const (
	outcomeStay outcome = iota
	outcomeFall
	outcomeRest
	outcomeSlide
	outcomeDespawn
)

// proposal is the decision taken for one particle against the
// start-of-tick state.
type proposal struct {
	outcome outcome
	pos     Vec2
	// rest is the fallback for a slide whose target was taken.
	rest Vec2
	// idle marks a decision that would repeat unchanged while the three
	// cells below the particle stay as they are.
	idle bool
}

type move struct {
	idx     int
	id      ParticleID
	from    Cell
	fromY   float32
	to      Cell
	pos     Vec2
	despawn bool
}

// Advance moves the simulation forward by dt seconds. Negative or NaN
// durations are treated as zero.
func (e *Engine) Advance(dt float32) {
	if !(dt > 0) {
		dt = 0
	}
	e.tick++
	e.grow(len(e.particles))

	drop := e.cfg.FallSpeed * dt
	for i := range e.particles {
		e.proposals[i] = e.decide(&e.particles[i], drop)
	}

	e.commit()
	e.apply()
}

func (e *Engine) grow(n int) {
	if cap(e.proposals) < n {
		e.proposals = make([]proposal, n, 2*n)
		e.committed = make([]bool, n, 2*n)
	}
	e.proposals = e.proposals[:n]
	e.committed = e.committed[:n]
}

func (e *Engine) decide(p *particle, drop float32) proposal {
	if p.Kind != KindSand || p.asleep {
		return proposal{outcome: outcomeStay, pos: p.Pos}
	}

	y := p.Pos.Y
	nextY := y - drop

	// The blocker test runs before the floor clamp so a particle resting on
	// another is never pushed into it.
	if hb, ok := e.index.below(p.cell.Col, y); ok && hb > nextY-e.grid.size {
		restRow := e.grid.row(hb) + 1
		rest := Vec2{X: p.Pos.X, Y: e.grid.rowY(restRow)}
		left := e.free(Cell{Col: p.cell.Col - 1, Row: restRow - 1})
		right := e.free(Cell{Col: p.cell.Col + 1, Row: restRow - 1})

		if dir := e.slideDir(p.ID, left, right); dir != 0 {
			to := Vec2{X: e.grid.colX(p.cell.Col + dir), Y: nextY}
			prop := e.land(to, outcomeSlide)
			prop.rest = rest
			return prop
		}
		return proposal{
			outcome: outcomeRest,
			pos:     rest,
			idle:    rest == p.Pos && e.grid.onLattice(hb),
		}
	}

	prop := e.land(Vec2{X: p.Pos.X, Y: nextY}, outcomeFall)
	prop.idle = e.cfg.Floor == FloorClamp && prop.outcome == outcomeFall &&
		prop.pos == p.Pos && p.Pos.Y == e.floorY
	return prop
}

// land applies the floor policy to a target position.
func (e *Engine) land(to Vec2, o outcome) proposal {
	switch e.cfg.Floor {
	case FloorDespawn:
		if to.Y < e.floorY {
			return proposal{outcome: outcomeDespawn}
		}
	default:
		if to.Y <= e.floorY {
			to.Y = e.floorY
		}
	}
	return proposal{outcome: o, pos: to}
}

// slideDir returns -1 for left, +1 for right and 0 when neither diagonal
// is free.
func (e *Engine) slideDir(id ParticleID, left, right bool) int32 {
	switch {
	case left && right:
		switch e.cfg.TieBreak {
		case PreferRight:
			return 1
		case Alternate:
			if (e.tick+uint64(id))&1 == 1 {
				return 1
			}
		}
		return -1
	case left:
		return -1
	case right:
		return 1
	}
	return 0
}

// commit resolves proposals in (row, col, id) order of the start cells.
// A target is refused when another particle already claimed it this tick
// or when it is the start cell of a particle that has not committed yet.
// The particle's own start cell is therefore always available.
func (e *Engine) commit() {
	n := len(e.particles)
	e.order = e.order[:0]
	for i := 0; i < n; i++ {
		e.order = append(e.order, i)
		e.committed[i] = false
	}
	slices.SortFunc(e.order, func(a, b int) int {
		pa, pb := &e.particles[a], &e.particles[b]
		if c := cmp.Compare(pa.cell.Row, pb.cell.Row); c != 0 {
			return c
		}
		if c := cmp.Compare(pa.cell.Col, pb.cell.Col); c != 0 {
			return c
		}
		return cmp.Compare(pa.ID, pb.ID)
	})

	e.claimed.Clear()
	e.moved = e.moved[:0]

	for _, i := range e.order {
		p := &e.particles[i]
		prop := &e.proposals[i]
		e.committed[i] = true

		if prop.outcome == outcomeDespawn {
			e.moved = append(e.moved, move{idx: i, id: p.ID, from: p.cell, fromY: p.Pos.Y, despawn: true})
			continue
		}

		pos, cell := p.Pos, p.cell
		if prop.outcome != outcomeStay {
			if c := e.cellFor(p, prop.pos); e.available(c, p.ID) {
				pos, cell = prop.pos, c
			} else if prop.outcome == outcomeSlide {
				if c := e.cellFor(p, prop.rest); e.available(c, p.ID) {
					pos, cell = prop.rest, c
				}
			}
		}

		e.claimed.Put(cell.key(), struct{}{})
		if pos != p.Pos {
			e.moved = append(e.moved, move{idx: i, id: p.ID, from: p.cell, fromY: p.Pos.Y, to: cell, pos: pos})
		}
	}
}

func (e *Engine) cellFor(p *particle, pos Vec2) Cell {
	if pos == p.Pos {
		return p.cell
	}
	return e.grid.CellOf(pos)
}

func (e *Engine) available(c Cell, self ParticleID) bool {
	if _, taken := e.claimed.Get(c.key()); taken {
		return false
	}
	occ, ok := e.index.occupant(c)
	if !ok || occ == self {
		return true
	}
	i, ok := e.slots.Get(occ)
	return ok && e.committed[i]
}

// apply writes committed moves into the index and the particle set, then
// updates sleep state and stats.
func (e *Engine) apply() {
	for _, m := range e.moved {
		e.index.remove(m.from, m.fromY)
	}
	despawned := 0
	for _, m := range e.moved {
		if m.despawn {
			despawned++
			continue
		}
		e.index.insert(m.id, m.to, m.pos.Y)
		p := &e.particles[m.idx]
		p.Pos = m.pos
		p.cell = m.to
	}

	e.updateIdle()

	if despawned > 0 {
		e.compact()
	}
	for _, m := range e.moved {
		e.wakeAbove(m.from)
		if !m.despawn && m.to != m.from {
			e.wakeAbove(m.to)
		}
	}

	e.collectStats(len(e.moved)-despawned, despawned)
}

// updateIdle counts consecutive idle decisions and puts particles to sleep
// once the count reaches SleepAfter. A sleeping particle is skipped by
// decide until a neighbour below it moves.
func (e *Engine) updateIdle() {
	for i := range e.particles {
		p := &e.particles[i]
		if p.Kind != KindSand || p.asleep {
			continue
		}
		if !e.proposals[i].idle {
			p.idle = 0
			continue
		}
		p.idle++
		if e.cfg.SleepAfter > 0 && p.idle >= e.cfg.SleepAfter {
			p.asleep = true
		}
	}
}

// compact drops despawned particles while keeping spawn order.
func (e *Engine) compact() {
	gone := make(map[ParticleID]struct{})
	for _, m := range e.moved {
		if m.despawn {
			gone[m.id] = struct{}{}
		}
	}
	e.particles = slices.DeleteFunc(e.particles, func(p particle) bool {
		_, ok := gone[p.ID]
		return ok
	})
	e.slots.Clear()
	for i := range e.particles {
		e.slots.Put(e.particles[i].ID, i)
	}
}

// wakeAbove wakes the three particles whose support row is c.Row.
func (e *Engine) wakeAbove(c Cell) {
	for dc := int32(-1); dc <= 1; dc++ {
		id, ok := e.index.occupant(Cell{Col: c.Col + dc, Row: c.Row + 1})
		if !ok {
			continue
		}
		if i, ok := e.slots.Get(id); ok {
			e.particles[i].wake()
		}
	}
}
