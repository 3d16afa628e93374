package sand

import (
	"slices"

	"github.com/kamstrup/intmap"
)

// occupancy maps cells to particles and keeps, per column, the sorted Y
// values of its particles. Both views are updated together on every
// insert and remove.
type occupancy struct {
	cells   *intmap.Map[uint64, ParticleID]
	columns *intmap.Map[int32, *column]
}

type column struct {
	ys []float32
}

func newOccupancy(capacity int) *occupancy {
	return &occupancy{
		cells:   intmap.New[uint64, ParticleID](capacity),
		columns: intmap.New[int32, *column](64),
	}
}

func (o *occupancy) occupant(c Cell) (ParticleID, bool) {
	return o.cells.Get(c.key())
}

func (o *occupancy) occupied(c Cell) bool {
	_, ok := o.cells.Get(c.key())
	return ok
}

func (o *occupancy) insert(id ParticleID, c Cell, y float32) {
	o.cells.Put(c.key(), id)
	col, ok := o.columns.Get(c.Col)
	if !ok {
		col = &column{}
		o.columns.Put(c.Col, col)
	}
	i, _ := slices.BinarySearch(col.ys, y)
	col.ys = slices.Insert(col.ys, i, y)
}

func (o *occupancy) remove(c Cell, y float32) {
	o.cells.Del(c.key())
	col, ok := o.columns.Get(c.Col)
	if !ok {
		return
	}
	if i, found := slices.BinarySearch(col.ys, y); found {
		col.ys = slices.Delete(col.ys, i, i+1)
	}
}

// below returns the highest Y in column col strictly below y.
func (o *occupancy) below(col int32, y float32) (float32, bool) {
	c, ok := o.columns.Get(col)
	if !ok {
		return 0, false
	}
	i, _ := slices.BinarySearch(c.ys, y)
	if i == 0 {
		return 0, false
	}
	return c.ys[i-1], true
}

func (o *occupancy) len() int {
	return o.cells.Len()
}

func (o *occupancy) reset() {
	o.cells.Clear()
	o.columns.Clear()
}
