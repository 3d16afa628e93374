package sand

// ColumnFilter rejects spawns into a column when it returns true.
type ColumnFilter func(col int32) bool

// TrySpawn places a sand particle on the anchor of the cell containing
// pos. It is a no-op when the cell is occupied, lies outside the columns
// or below the floor, or exclude rejects its column. Positions beyond
// MaxCoord are never spawned.
func (e *Engine) TrySpawn(pos Vec2, exclude ColumnFilter) (ParticleID, bool) {
	if !e.grid.Addressable(pos) {
		return 0, false
	}
	return e.spawn(e.grid.CellOf(pos), KindSand, exclude)
}

// SpawnKind is TrySpawn for an explicit particle kind.
func (e *Engine) SpawnKind(pos Vec2, kind Kind) (ParticleID, bool) {
	if (kind != KindSand && kind != KindStone) || !e.grid.Addressable(pos) {
		return 0, false
	}
	return e.spawn(e.grid.CellOf(pos), kind, nil)
}

// Brush spawns sand using the configured pattern and returns how many
// particles were created. The plus pattern covers the centre cell and the
// four cells BrushRadius away along each axis, each checked on its own.
func (e *Engine) Brush(pos Vec2, exclude ColumnFilter) int {
	if !e.grid.Addressable(pos) {
		return 0
	}
	center := e.grid.CellOf(pos)
	if e.cfg.Brush == BrushSingle {
		if _, ok := e.spawn(center, KindSand, exclude); ok {
			return 1
		}
		return 0
	}

	r := e.cfg.BrushRadius
	cells := [5]Cell{
		center,
		{Col: center.Col - r, Row: center.Row},
		{Col: center.Col + r, Row: center.Row},
		{Col: center.Col, Row: center.Row + r},
		{Col: center.Col, Row: center.Row - r},
	}
	n := 0
	for _, c := range cells {
		if _, ok := e.spawn(c, KindSand, exclude); ok {
			n++
		}
	}
	return n
}

func (e *Engine) spawn(c Cell, kind Kind, exclude ColumnFilter) (ParticleID, bool) {
	if !e.grid.addressableCell(c) || !e.inBounds(c) || c.Row < e.floorRow || e.index.occupied(c) {
		return 0, false
	}
	if exclude != nil && exclude(c.Col) {
		return 0, false
	}

	id := e.nextID
	e.nextID++
	p := particle{
		Particle: Particle{ID: id, Kind: kind, Pos: e.grid.Center(c)},
		cell:     c,
	}
	e.slots.Put(id, len(e.particles))
	e.particles = append(e.particles, p)
	e.index.insert(id, c, p.Pos.Y)
	return id, true
}
