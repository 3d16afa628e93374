package gui

import (
	"fmt"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/sandsim/internal/experiment"
	"github.com/san-kum/sandsim/internal/sand"
	"github.com/san-kum/sandsim/internal/viz"
)

// Theme colours.
var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColSand    = rl.NewColor(232, 193, 112, 255)
	ColStone   = rl.NewColor(110, 110, 120, 255)
	ColFloor   = rl.NewColor(60, 60, 60, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
)

const (
	fontPath     = "/usr/share/fonts/liberation/LiberationMono-Regular.ttf"
	maxFrameTime = 1.0 / 30
)

// App hosts an experiment in a raylib window. World units are pixels: the
// engine viewport follows the window size.
type App struct {
	Exp     *experiment.Experiment
	Proj    viz.Projection
	Running bool
	Font    rl.Font

	Telemetry    []float32
	MaxTelemetry int
	drawn        int
}

func initWindow(width, height int32) {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(width, height, "sandsim")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

func loadFont() rl.Font {
	if _, err := os.Stat(fontPath); err != nil {
		return rl.GetFontDefault()
	}
	font := rl.LoadFontEx(fontPath, 32, nil, 0)
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

// Run opens a window sized to the experiment's viewport and blocks until it
// is closed.
func Run(exp *experiment.Experiment) {
	vp := exp.Config().Viewport
	width, height := int32(vp.Width), int32(vp.Height)
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}

	initWindow(width, height)
	defer rl.CloseWindow()

	app := NewApp(exp)
	app.resize(float32(width), float32(height))
	app.RunLoop()
}

func NewApp(exp *experiment.Experiment) *App {
	return &App{
		Exp:          exp,
		Running:      true,
		Font:         loadFont(),
		MaxTelemetry: 300,
		Telemetry:    make([]float32, 0, 300),
	}
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if !a.Update() {
			return
		}
		a.Draw()
	}
}

func (a *App) resize(w, h float32) {
	a.Exp.Engine().SetViewport(w, h)
	a.Proj = viz.ProjectionFor(a.Exp.Engine(), w, h)
}

// Update handles input and steps the simulation. It returns false when the
// user asked to quit.
func (a *App) Update() bool {
	if rl.IsKeyPressed(rl.KeyQ) {
		return false
	}
	if rl.IsWindowResized() {
		a.resize(float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight()))
	}

	e := a.Exp.Engine()
	switch {
	case rl.IsKeyPressed(rl.KeySpace):
		a.Running = !a.Running
	case rl.IsKeyPressed(rl.KeyR):
		if err := a.Exp.Reset(); err == nil {
			a.resize(a.Proj.W, a.Proj.H)
			a.Telemetry = a.Telemetry[:0]
			a.drawn = 0
		}
	case rl.IsKeyPressed(rl.KeyB):
		if e.Config().Brush == sand.BrushSingle {
			e.SetBrush(sand.BrushPlus)
		} else {
			e.SetBrush(sand.BrushSingle)
		}
	case rl.IsKeyPressed(rl.KeyT):
		e.SetTieBreak((e.Config().TieBreak + 1) % 3)
	}

	if rl.IsMouseButtonDown(rl.MouseLeftButton) {
		m := rl.GetMousePosition()
		a.drawn += a.Exp.Engine().Brush(a.Proj.ToWorld(m.X, m.Y), nil)
	}

	if a.Running {
		// Cap the step after a stalled frame.
		dt := min(float64(rl.GetFrameTime()), maxFrameTime)
		f := a.Exp.Runner().Step(dt)
		a.Telemetry = append(a.Telemetry, float32(f.Particles))
		if len(a.Telemetry) > a.MaxTelemetry {
			a.Telemetry = a.Telemetry[1:]
		}
	}
	return true
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)
	a.drawParticles()
	a.DrawHUD()
	rl.EndDrawing()
}

func (a *App) DrawHUD() {
	e := a.Exp.Engine()
	st := e.Stats()
	cfg := e.Config()
	w, h := int(a.Proj.W), int(a.Proj.H)

	a.drawText("sandsim", 30, 30, 24, ColSelect)
	a.drawText(fmt.Sprintf(":: %s", a.Exp.Config().Scene), 150, 34, 16, ColText)

	status, col := "RUNNING", ColSelect
	if !a.Running {
		status, col = "PAUSED", ColTextDim
	}
	a.drawText(status, w-130, 30, 16, col)

	a.drawText(fmt.Sprintf("particles %d  moving %d  sleeping %d  drawn %d", st.Particles, st.Moving, st.Sleeping, a.drawn), 30, 64, 14, ColText)
	a.drawText(fmt.Sprintf("brush %s  tie-break %s  floor %s", cfg.Brush, cfg.TieBreak, cfg.Floor), 30, 84, 14, ColText)

	a.DrawTelemetry()

	a.drawText("[MOUSE] DRAW  [SPACE] PAUSE  [R] RESET  [B] BRUSH  [T] TIE-BREAK  [Q] QUIT", 30, h-30, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", rl.GetFPS()), w-90, h-30, 14, ColTextDim)
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.Font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}

// DrawTelemetry plots the particle count history in the top right corner.
func (a *App) DrawTelemetry() {
	if len(a.Telemetry) < 2 {
		return
	}

	width, height := float32(300), float32(60)
	rectX, rectY := a.Proj.W-width-30, float32(60)

	minVal, maxVal := a.Telemetry[0], a.Telemetry[0]
	for _, v := range a.Telemetry {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	points := make([]rl.Vector2, len(a.Telemetry))
	for i, val := range a.Telemetry {
		px := rectX + float32(i)/float32(len(a.Telemetry))*width
		py := rectY + height - (val-minVal)/(maxVal-minVal)*height
		points[i] = rl.NewVector2(px, py)
	}
	rl.DrawLineStrip(points, ColSand)
	a.drawText(fmt.Sprintf("%.0f", a.Telemetry[len(a.Telemetry)-1]), int(rectX+width+6), int(rectY+height-10), 14, ColText)
}
