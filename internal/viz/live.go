package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/sandsim/internal/experiment"
	"github.com/san-kum/sandsim/internal/sand"
	"github.com/san-kum/sandsim/internal/sim"
)

const (
	defaultWidth    = 80
	defaultHeight   = 24
	panelWidth      = 40
	historyCapacity = 600

	// Offsets of the canvas inside the terminal, from canvasStyle padding.
	canvasPadX = 2
	canvasPadY = 1
)

var tieBreaks = []sand.TieBreak{sand.PreferLeft, sand.PreferRight, sand.Alternate}

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model is the live terminal view of an experiment.
type Model struct {
	exp     *experiment.Experiment
	canvas  *Canvas
	proj    Projection
	running bool

	painting       bool
	mouseX, mouseY int
	drawn          int

	last    sim.Frame
	history []float64
	err     error
}

// NewModel wraps an experiment that has already been set up. The canvas is
// width x height characters until the first window size message arrives.
func NewModel(exp *experiment.Experiment, width, height int) Model {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	m := Model{
		exp:     exp,
		canvas:  NewCanvas(width, height),
		running: true,
		history: make([]float64, 0, historyCapacity),
	}
	m.redraw()
	return m
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "b":
			m.toggleBrush()
		case "t":
			m.cycleTieBreak()
		}
		m.redraw()

	case tea.MouseMsg:
		m.mouseX, m.mouseY = msg.X, msg.Y
		switch msg.Action {
		case tea.MouseActionPress:
			if msg.Button == tea.MouseButtonLeft {
				m.painting = true
				m.paint()
			}
		case tea.MouseActionMotion:
			if m.painting {
				m.paint()
			}
		case tea.MouseActionRelease:
			m.painting = false
		}
		m.redraw()

	case tea.WindowSizeMsg:
		w := msg.Width - panelWidth - 2*canvasPadX - 4
		h := msg.Height - 2*canvasPadY
		if w > 10 && h > 5 {
			m.canvas = NewCanvas(w, h)
			m.redraw()
		}

	case TickMsg:
		if m.running {
			if m.painting {
				m.paint()
			}
			m.step()
		}
		m.redraw()
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	m.last = m.exp.Runner().Step(m.exp.Config().Dt)
	m.history = append(m.history, float64(m.last.Particles))
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

// paint spawns with the engine's brush under the last mouse position.
func (m *Model) paint() {
	x, y := m.mouseX-canvasPadX, m.mouseY-canvasPadY
	if x < 0 || y < 0 || x >= m.canvas.Width || y >= m.canvas.Height {
		return
	}
	pos := m.proj.ToWorld(float32(x*2+1), float32(y*4+2))
	m.drawn += m.exp.Engine().Brush(pos, nil)
}

func (m *Model) reset() {
	if err := m.exp.Reset(); err != nil {
		m.err = err
		return
	}
	m.history = m.history[:0]
	m.last = sim.Frame{}
	m.drawn = 0
}

func (m *Model) toggleBrush() {
	e := m.exp.Engine()
	if e.Config().Brush == sand.BrushSingle {
		e.SetBrush(sand.BrushPlus)
	} else {
		e.SetBrush(sand.BrushSingle)
	}
}

func (m *Model) cycleTieBreak() {
	e := m.exp.Engine()
	cur := e.Config().TieBreak
	for i, t := range tieBreaks {
		if t == cur {
			e.SetTieBreak(tieBreaks[(i+1)%len(tieBreaks)])
			return
		}
	}
	e.SetTieBreak(tieBreaks[0])
}

func (m *Model) redraw() {
	m.proj = DrawParticles(m.canvas, m.exp.Engine())
}

func (m Model) View() string {
	e := m.exp.Engine()
	st := e.Stats()
	cfg := e.Config()

	var s strings.Builder
	s.WriteString(titleStyle.Render(strings.ToUpper(m.exp.Config().Scene)) + "\n")
	if m.running {
		s.WriteString(statusRunning.Render("RUNNING"))
	} else {
		s.WriteString(statusPaused.Render("PAUSED"))
	}
	s.WriteString("\n")

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Particles"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	} else {
		s.WriteString("\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.exp.Runner().Time()))
	row("Particles", fmt.Sprintf("%d (%d stone)", st.Particles, st.Stone))
	row("Moving", fmt.Sprintf("%d", st.Moving))
	row("Sleeping", fmt.Sprintf("%d", st.Sleeping))
	row("Drawn", fmt.Sprintf("%d", m.drawn))
	if st.Sand > 0 {
		s.WriteString(labelStyle.Render("At rest") + progressBar(1-float64(st.Moving)/float64(st.Sand), 16) + "\n")
	}
	s.WriteString("\n")
	row("Brush", cfg.Brush.String())
	row("Tie-break", cfg.TieBreak.String())
	row("Floor", cfg.Floor.String())
	row("Cell", fmt.Sprintf("%g", cfg.CellSize))

	if m.err != nil {
		s.WriteString("\n" + statusPaused.Render(m.err.Error()) + "\n")
	}

	s.WriteString("\n" + separator(panelWidth-6) + "\n")
	s.WriteString(keyHint.Render("mouse:Draw SP:Pause R:Reset\nB:Brush T:Tie-break Q:Quit"))

	canvasView := canvasStyle.Render(m.canvas.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, panelStyle.Render(s.String()))
}

// Run starts the live view on an experiment that has been set up.
func Run(exp *experiment.Experiment) error {
	p := tea.NewProgram(NewModel(exp, defaultWidth, defaultHeight), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
