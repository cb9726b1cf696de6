package ui

import "github.com/charmbracelet/lipgloss"

// Badge classes. Letters use their wire status as the class.
const (
	ClassActive   = "status-sent"
	ClassInactive = "status-draft"
)

var (
	SelectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	HeaderStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	CellStyle     = lipgloss.NewStyle().Padding(0, 1)
	HelpStyle     = lipgloss.NewStyle().Faint(true)
	DisabledStyle = lipgloss.NewStyle().Faint(true).Strikethrough(true)

	TabStyle       = lipgloss.NewStyle().Padding(0, 2)
	ActiveTabStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true).Underline(true)
)

// BadgeStyle picks the style for a badge class from the current theme.
func BadgeStyle(class string) lipgloss.Style {
	t := Current()
	switch class {
	case "enviado", ClassActive:
		return t.Success
	case "revisado":
		return t.Accent
	case "borrador", ClassInactive:
		return t.Pending
	}
	return t.Muted
}
