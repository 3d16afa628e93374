// Package scene provides named starting layouts for a sand engine.
package scene

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/san-kum/sandsim/internal/sand"
	"github.com/san-kum/sandsim/internal/sim"
)

var ErrUnknownScene = errors.New("scene: unknown scene")

// Scene populates an engine and returns the emitters that keep feeding it.
type Scene interface {
	Name() string
	Description() string
	Setup(e *sand.Engine, rng *rand.Rand) []sim.Emitter
}

var registry = map[string]func() Scene{
	"empty":     func() Scene { return Empty{} },
	"hourglass": func() Scene { return Hourglass{} },
	"pyramid":   func() Scene { return Pyramid{} },
	"dunes":     func() Scene { return Dunes{} },
	"rain":      func() Scene { return Rain{} },
}

func Get(name string) (Scene, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScene, name)
	}
	return fn(), nil
}

func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// defaultHalfCols is used when the engine has no bounded width.
const defaultHalfCols = 30

// frame describes the visible lattice of an engine in cells.
type frame struct {
	grid     sand.Grid
	floorRow int32
	topRow   int32
	minCol   int32
	maxCol   int32
}

func frameOf(e *sand.Engine) frame {
	g := e.Grid()
	width, height := e.Viewport()
	f := frame{
		grid:     g,
		floorRow: g.CellOf(sand.Vec2{Y: e.FloorY()}).Row,
	}
	f.topRow = g.CellOf(sand.Vec2{Y: height / 2}).Row - 1
	if f.topRow <= f.floorRow {
		f.topRow = f.floorRow + 1
	}
	if width > 0 {
		f.minCol = g.CellOf(sand.Vec2{X: -width / 2}).Col
		f.maxCol = g.CellOf(sand.Vec2{X: width/2 - g.Size()/2}).Col
	} else {
		f.minCol, f.maxCol = -defaultHalfCols, defaultHalfCols-1
	}
	return f
}

func (f frame) at(col, row int32) sand.Vec2 {
	return f.grid.Center(sand.Cell{Col: col, Row: row})
}

func (f frame) rows() int32 { return f.topRow - f.floorRow + 1 }
func (f frame) cols() int32 { return f.maxCol - f.minCol + 1 }
