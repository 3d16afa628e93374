package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/san-kum/sandsim/internal/sand"
	"github.com/san-kum/sandsim/internal/viz"
)

func TestParticlesToSVG(t *testing.T) {
	particles := []sand.Particle{
		{ID: 1, Kind: sand.KindSand, Pos: sand.Vec2{X: 5, Y: -115}},
		{ID: 2, Kind: sand.KindStone, Pos: sand.Vec2{X: -15, Y: -115}},
	}
	svg := ParticlesToSVG(particles, View{CellSize: 10, Width: 400, Height: 240}, 2)

	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.Contains(t, svg, `width="800" height="480"`)
	assert.Equal(t, 2, strings.Count(svg, "<rect x="))
	// Sand at column 0, row -12: x 0..10, y -120..-110.
	assert.Contains(t, svg, `<rect x="400.0" y="460.0" width="20.0" height="20.0"/>`)
	assert.Less(t, strings.Index(svg, stoneFill), strings.Index(svg, `fill="`+sandFill))
}

func TestParticlesToSVGFitsColumns(t *testing.T) {
	particles := []sand.Particle{
		{ID: 1, Pos: sand.Vec2{X: 5, Y: 5}},
		{ID: 2, Pos: sand.Vec2{X: 25, Y: 5}},
	}
	svg := ParticlesToSVG(particles, View{CellSize: 10, Height: 100}, 1)
	// Columns 0..2 plus one cell of padding either side.
	assert.Contains(t, svg, `width="50" height="100"`)
	assert.Contains(t, svg, `<rect x="10.0" y="40.0" width="10.0" height="10.0"/>`)
}

func TestCanvasToSVG(t *testing.T) {
	assert.Empty(t, CanvasToSVG(nil, 1))

	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	svg := CanvasToSVG(c, 2)
	assert.Equal(t, 2, strings.Count(svg, "<circle"))
	assert.Contains(t, svg, `cx="7.0" cy="7.0"`)
}

func TestSeriesToSVG(t *testing.T) {
	assert.Empty(t, SeriesToSVG([]float64{1}, 100, 50, "#fff"))

	svg := SeriesToSVG([]float64{0, 5, 10}, 100, 50, "#fff")
	assert.Contains(t, svg, `stroke="#fff"`)
	assert.Equal(t, 2, strings.Count(svg, " L"))
	assert.Contains(t, svg, "M0.0,")
}
