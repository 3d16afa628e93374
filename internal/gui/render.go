package gui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/sandsim/internal/sand"
)

func (a *App) drawParticles() {
	e := a.Exp.Engine()
	g := e.Grid()

	floor := a.Proj.FloorLine(e)
	rl.DrawLine(0, int32(floor), int32(a.Proj.W), int32(floor), ColFloor)

	for p := range e.Particles() {
		x0, y0, x1, y1 := a.Proj.CellRect(g, p.Pos)
		col := ColSand
		if p.Kind == sand.KindStone {
			col = ColStone
		}
		rl.DrawRectangleV(rl.NewVector2(x0, y0), rl.NewVector2(x1-x0, y1-y0), col)
	}
}
