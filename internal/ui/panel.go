package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a Unicode progress bar with a done/total suffix.
func ProgressBar(done, total, width int) string {
	denom := total
	if denom <= 0 {
		denom = 1
	}
	if width < 5 {
		width = 5
	}
	filled := int(float64(done) / float64(denom) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + fmt.Sprintf("] %d/%d", done, total)
}

// PanelString frames inner with the current theme's border.
func PanelString(inner string) string {
	return lipgloss.NewStyle().
		Border(Current().Border).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1).
		Render(inner)
}

// Panel prints lines in a framed box.
func Panel(lines []string) {
	fmt.Fprintln(stdout, PanelString(strings.Join(lines, "\n")))
}
