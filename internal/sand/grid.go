package sand

import "math"

// Vec2 is a position in world space.
type Vec2 struct {
	X, Y float32
}

// Cell is a lattice coordinate.
type Cell struct {
	Col, Row int32
}

// key packs the cell into a single map key, column in the high half.
func (c Cell) key() uint64 {
	return uint64(uint32(c.Col))<<32 | uint64(uint32(c.Row))
}

// MaxCoord bounds the world coordinates the grid addresses. Past it a
// float32 position can no longer hold every cell anchor exactly.
const MaxCoord = 1 << 23

// maxCell bounds cell coordinates so neighbour and brush offsets stay
// inside int32.
const maxCell = 1 << 30

func within(v float64) bool { return math.Abs(v) < MaxCoord }

// Grid converts between world space and lattice cells.
type Grid struct {
	size   float32
	anchor float32
}

func NewGrid(size float32) Grid {
	return Grid{size: size, anchor: anchorFor(size)}
}

// anchorFor returns the offset of a cell's anchor from its lower edge.
// Integral sizes anchor at ceil(size/2); sizes where that would fall
// outside the cell use the exact midpoint.
func anchorFor(size float32) float32 {
	a := float32(math.Ceil(float64(size) / 2))
	if a >= size {
		return size / 2
	}
	return a
}

func (g Grid) Size() float32   { return g.size }
func (g Grid) Anchor() float32 { return g.anchor }

func (g Grid) CellOf(p Vec2) Cell {
	return Cell{Col: g.col(p.X), Row: g.row(p.Y)}
}

// Center returns the world anchor of c.
func (g Grid) Center(c Cell) Vec2 {
	return Vec2{X: g.colX(c.Col), Y: g.rowY(c.Row)}
}

// Snap moves p onto the anchor of the cell containing it.
func (g Grid) Snap(p Vec2) Vec2 {
	return g.Center(g.CellOf(p))
}

// Floor returns the resting Y of the lowest row for a viewport of the
// given height.
func (g Grid) Floor(height float32) float32 {
	return g.rowY(g.floorRow(height))
}

func (g Grid) floorRow(height float32) int32 {
	k := math.Ceil(float64(-height/2) / math.Ceil(float64(g.size)))
	return int32(k)
}

func (g Grid) col(x float32) int32 {
	return int32(math.Floor(float64(x) / float64(g.size)))
}

func (g Grid) row(y float32) int32 {
	return int32(math.Floor(float64(y) / float64(g.size)))
}

func (g Grid) colX(col int32) float32 {
	return float32(col)*g.size + g.anchor
}

func (g Grid) rowY(row int32) float32 {
	return float32(row)*g.size + g.anchor
}

// Addressable reports whether p lies inside the coordinate range the grid
// can map to cells. NaN coordinates are never addressable.
func (g Grid) Addressable(p Vec2) bool {
	x, y := float64(p.X), float64(p.Y)
	size := float64(g.size)
	return within(x) && within(y) &&
		math.Abs(x/size) < maxCell && math.Abs(y/size) < maxCell
}

func (g Grid) addressableCell(c Cell) bool {
	size := float64(g.size)
	return within(float64(c.Col)*size) && within(float64(c.Row)*size)
}

// onLattice reports whether y is exactly a row anchor.
func (g Grid) onLattice(y float32) bool {
	return g.rowY(g.row(y)) == y
}
