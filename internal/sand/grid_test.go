package sand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnchor(t *testing.T) {
	tests := []struct {
		size   float32
		anchor float32
	}{
		{5, 3},
		{10, 5},
		{1, 0.5},
		{2.5, 2},
		{0.5, 0.25},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.anchor, NewGrid(tt.size).Anchor(), "size %v", tt.size)
	}
}

func TestSnapIdempotent(t *testing.T) {
	points := []Vec2{
		{0, 0}, {0, 100}, {-7.3, 12.9}, {123.4, -56.7}, {-0.01, -0.01}, {4.999, 5.001},
	}
	for _, size := range []float32{5, 10, 2.5, 1} {
		g := NewGrid(size)
		for _, p := range points {
			s := g.Snap(p)
			assert.Equal(t, s, g.Snap(s), "size %v point %v", size, p)
			assert.Equal(t, g.CellOf(p), g.CellOf(s), "size %v point %v", size, p)
			assert.True(t, g.onLattice(s.Y))
		}
	}
}

func TestFloor(t *testing.T) {
	tests := []struct {
		size, height, want float32
	}{
		{5, 720, -357},
		{5, 480, -237},
		{10, 200, -95},
		{10, 600, -295},
	}
	for _, tt := range tests {
		g := NewGrid(tt.size)
		got := g.Floor(tt.height)
		assert.Equal(t, tt.want, got, "size %v height %v", tt.size, tt.height)
		assert.True(t, g.onLattice(got))
	}
}

func TestCellKeyDistinct(t *testing.T) {
	cells := []Cell{{0, 0}, {-1, 0}, {0, -1}, {-1, -1}, {1, 0}, {0, 1}, {1 << 20, -(1 << 20)}}
	seen := make(map[uint64]Cell)
	for _, c := range cells {
		prev, dup := seen[c.key()]
		require.False(t, dup, "%v collides with %v", c, prev)
		seen[c.key()] = c
	}
}

func TestOccupancyBelow(t *testing.T) {
	o := newOccupancy(8)
	o.insert(1, Cell{0, 0}, 5)
	o.insert(2, Cell{0, 2}, 25)
	o.insert(3, Cell{0, 1}, 15)

	y, ok := o.below(0, 20)
	require.True(t, ok)
	assert.Equal(t, float32(15), y)

	_, ok = o.below(0, 5)
	assert.False(t, ok, "equal Y must not count as below")

	y, ok = o.below(0, 100)
	require.True(t, ok)
	assert.Equal(t, float32(25), y)

	_, ok = o.below(1, 100)
	assert.False(t, ok)

	o.remove(Cell{0, 1}, 15)
	y, ok = o.below(0, 20)
	require.True(t, ok)
	assert.Equal(t, float32(5), y)
	assert.False(t, o.occupied(Cell{0, 1}))
	assert.Equal(t, 2, o.len())

	id, ok := o.occupant(Cell{0, 2})
	require.True(t, ok)
	assert.Equal(t, ParticleID(2), id)
}

func TestParseEnums(t *testing.T) {
	tie, err := ParseTieBreak("Alternate")
	require.NoError(t, err)
	assert.Equal(t, Alternate, tie)

	floor, err := ParseFloor("despawn")
	require.NoError(t, err)
	assert.Equal(t, FloorDespawn, floor)

	brush, err := ParseBrush(" plus ")
	require.NoError(t, err)
	assert.Equal(t, BrushPlus, brush)

	_, err = ParseTieBreak("diagonal")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	assert.Equal(t, "right", PreferRight.String())
	assert.Equal(t, "stone", KindStone.String())
}
