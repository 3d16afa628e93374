package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/sandsim/internal/sand"
	"github.com/san-kum/sandsim/internal/viz"
)

const (
	background = "#0a0a0a"
	sandFill   = "#e8c170"
	stoneFill  = "#6e6e78"
)

// View is the world rectangle a snapshot is rendered from. A zero Width is
// fitted to the particles.
type View struct {
	CellSize float32
	Width    float32
	Height   float32
}

func svgHeader(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// ParticlesToSVG draws each particle as a square cell, scale pixels per
// world unit.
func ParticlesToSVG(particles []sand.Particle, view View, scale float32) string {
	if scale <= 0 {
		scale = 1
	}
	grid := sand.NewGrid(view.CellSize)

	left, spanX := -view.Width/2, view.Width
	if !(view.Width > 0) {
		left, spanX = fitColumns(particles, grid)
	}
	proj := viz.Projection{
		Left:  left,
		Top:   view.Height / 2,
		SpanX: spanX,
		SpanY: view.Height,
		W:     spanX * scale,
		H:     view.Height * scale,
	}

	var sb strings.Builder
	svgHeader(&sb, float64(proj.W), float64(proj.H))

	for _, kind := range []sand.Kind{sand.KindStone, sand.KindSand} {
		fill := sandFill
		if kind == sand.KindStone {
			fill = stoneFill
		}
		fmt.Fprintf(&sb, "<g fill=\"%s\">\n", fill)
		for _, p := range particles {
			if p.Kind != kind {
				continue
			}
			x0, y0, x1, y1 := proj.CellRect(grid, p.Pos)
			fmt.Fprintf(&sb, "<rect x=\"%.1f\" y=\"%.1f\" width=\"%.1f\" height=\"%.1f\"/>\n", x0, y0, x1-x0, y1-y0)
		}
		sb.WriteString("</g>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// fitColumns returns the left edge and width of the columns holding
// particles, padded by one cell on each side.
func fitColumns(particles []sand.Particle, grid sand.Grid) (float32, float32) {
	size := grid.Size()
	if len(particles) == 0 {
		return -size, 2 * size
	}
	lo, hi := grid.CellOf(particles[0].Pos).Col, grid.CellOf(particles[0].Pos).Col
	for _, p := range particles[1:] {
		c := grid.CellOf(p.Pos).Col
		lo, hi = min(lo, c), max(hi, c)
	}
	return float32(lo-1) * size, float32(hi-lo+3) * size
}

// CanvasToSVG converts a braille canvas to SVG, one circle per dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	w, h := canvas.Dots()

	var sb strings.Builder
	svgHeader(&sb, float64(w)*scale, float64(h)*scale)
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", sandFill)

	r := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", (float64(x)+0.5)*scale, (float64(y)+0.5)*scale, r)
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// SeriesToSVG draws values as a polyline scaled to fill width x height.
func SeriesToSVG(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	minY, maxY := values[0], values[0]
	for _, v := range values {
		minY, maxY = min(minY, v), max(maxY, v)
	}
	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2

	var sb strings.Builder
	svgHeader(&sb, float64(width), float64(height))
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor)

	for i, v := range values {
		x := float64(i) / float64(len(values)-1) * float64(width)
		y := float64(height) - (v-minY)/rangeY*float64(height)
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
	}

	sb.WriteString("\"/>\n</svg>")
	return sb.String()
}
