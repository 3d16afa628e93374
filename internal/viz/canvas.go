package viz

import (
	"strings"
)

// Braille dot layout inside one character cell:
//
//	1 4
//	2 5
//	3 6
//	7 8
//
// Unicode offset 0x2800.
const brailleBlank = 0x2800

var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of braille characters addressed in sub-pixels. A canvas
// of Width x Height characters has (Width*2) x (Height*4) dots, with (0, 0)
// at the top left.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Dots returns the canvas size in sub-pixels.
func (c *Canvas) Dots() (int, int) { return c.Width * 2, c.Height * 4 }

func (c *Canvas) cell(x, y int) (*rune, rune, bool) {
	if x < 0 || y < 0 {
		return nil, 0, false
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return nil, 0, false
	}
	return &c.Grid[row][col], pixelMap[y%4][x%2], true
}

// Set turns on the dot at (x, y). Out of range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if r, bit, ok := c.cell(x, y); ok {
		*r |= bit
	}
}

func (c *Canvas) Unset(x, y int) {
	if r, bit, ok := c.cell(x, y); ok {
		*r &^= bit
	}
}

// IsSet reports whether the dot at (x, y) is on.
func (c *Canvas) IsSet(x, y int) bool {
	r, bit, ok := c.cell(x, y)
	return ok && *r&bit != 0
}

// Fill sets every dot in the rectangle [x0, x1] x [y0, y1].
func (c *Canvas) Fill(x0, y0, x1, y1 int) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			c.Set(x, y)
		}
	}
}

// HLine draws a horizontal run of dots across the whole canvas.
func (c *Canvas) HLine(y int) {
	w, _ := c.Dots()
	c.Fill(0, y, w-1, y)
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// Count returns the number of dots that are on.
func (c *Canvas) Count() int {
	n := 0
	for _, row := range c.Grid {
		for _, r := range row {
			for bits := r - brailleBlank; bits != 0; bits &= bits - 1 {
				n++
			}
		}
	}
	return n
}

func (c *Canvas) String() string {
	var b strings.Builder
	b.Grow(c.Height * (c.Width*3 + 1))
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}
