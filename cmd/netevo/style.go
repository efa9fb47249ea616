package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ffff"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	goodStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	badStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1)
)

func header(title string) string {
	line := strings.Repeat("─", max(lipgloss.Width(title), 24))
	return titleStyle.Render(title) + "\n" + labelStyle.Render(line)
}

// field renders "label: value" with the value formatted by %v, or %.6g for
// floats.
func field(label string, value any) string {
	var s string
	switch v := value.(type) {
	case float64:
		s = fmt.Sprintf("%.6g", v)
	default:
		s = fmt.Sprint(v)
	}
	return labelStyle.Render(label+":") + " " + valueStyle.Render(s)
}

func panel(lines ...string) string {
	return panelStyle.Render(strings.Join(lines, "\n"))
}

// improvement colours the change from initial to best, lower being better.
func improvement(initial, best float64) string {
	if best < initial {
		return goodStyle.Render(fmt.Sprintf("improved by %.4g", initial-best))
	}
	return badStyle.Render("no improvement")
}
