package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(1, 2).
			Width(panelWidth)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#e8c170")).
			MarginBottom(1)

	statusRunning = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	statusPaused = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(11)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	graphStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e8c170")).
			Padding(1, 0)

	keyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	barHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	barMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	barLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// progressBar renders fraction (0..1) as a coloured bar of width cells.
func progressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	filled = max(0, min(filled, width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	switch {
	case fraction > 0.8:
		return barHigh.Render(bar)
	case fraction > 0.4:
		return barMid.Render(bar)
	}
	return barLow.Render(bar)
}

func separator(width int) string {
	return keyHint.Render(strings.Repeat("─", width))
}
