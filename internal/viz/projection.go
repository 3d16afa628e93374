package viz

import (
	"math"

	"github.com/san-kum/sandsim/internal/sand"
)

// Projection maps world coordinates (Y up, origin at the viewport centre)
// to screen coordinates (Y down, origin top left) and back.
type Projection struct {
	Left, Top    float32
	SpanX, SpanY float32
	W, H         float32
}

// ProjectionFor fits the engine viewport onto a w x h screen. An engine
// without a bounded width is shown with square screen units.
func ProjectionFor(e *sand.Engine, w, h float32) Projection {
	width, height := e.Viewport()
	if !(width > 0) {
		width = height * w / h
	}
	return Projection{
		Left:  -width / 2,
		Top:   height / 2,
		SpanX: width,
		SpanY: height,
		W:     w,
		H:     h,
	}
}

func (p Projection) ToScreen(v sand.Vec2) (float32, float32) {
	return (v.X - p.Left) / p.SpanX * p.W, (p.Top - v.Y) / p.SpanY * p.H
}

func (p Projection) ToWorld(x, y float32) sand.Vec2 {
	return sand.Vec2{
		X: p.Left + x/p.W*p.SpanX,
		Y: p.Top - y/p.H*p.SpanY,
	}
}

// CellRect returns the screen rectangle covered by the cell holding pos.
func (p Projection) CellRect(g sand.Grid, pos sand.Vec2) (x0, y0, x1, y1 float32) {
	c := g.CellOf(pos)
	size := g.Size()
	wx, wy := float32(c.Col)*size, float32(c.Row)*size
	x0, y0 = p.ToScreen(sand.Vec2{X: wx, Y: wy + size})
	x1, y1 = p.ToScreen(sand.Vec2{X: wx + size, Y: wy})
	return x0, y0, x1, y1
}

// FloorLine is the screen Y of the bottom edge of the floor row.
func (p Projection) FloorLine(e *sand.Engine) float32 {
	g := e.Grid()
	row := g.CellOf(sand.Vec2{Y: e.FloorY()}).Row
	_, y := p.ToScreen(sand.Vec2{Y: float32(row) * g.Size()})
	return y
}

// DrawParticles renders every particle of e onto c and returns the
// projection used.
func DrawParticles(c *Canvas, e *sand.Engine) Projection {
	w, h := c.Dots()
	proj := ProjectionFor(e, float32(w), float32(h))
	g := e.Grid()

	c.Clear()
	for p := range e.Particles() {
		x0, y0, x1, y1 := proj.CellRect(g, p.Pos)
		ix0, iy0 := round(x0), round(y0)
		ix1, iy1 := round(x1)-1, round(y1)-1
		if ix1 < ix0 {
			ix1 = ix0
		}
		if iy1 < iy0 {
			iy1 = iy0
		}
		c.Fill(ix0, iy0, ix1, iy1)
	}

	floor := round(proj.FloorLine(e))
	if floor >= h {
		floor = h - 1
	}
	c.HLine(floor)
	return proj
}

func round(v float32) int { return int(math.Floor(float64(v) + 0.5)) }
