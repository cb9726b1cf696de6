package view

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/idilsaglam/violet/internal/model"
	"github.com/idilsaglam/violet/internal/ui"
)

// statusColumn is the index of the badge column per kind, or -1.
var statusColumn = map[model.Kind]int{
	model.KindAgents:  2,
	model.KindClients: -1,
	model.KindLetters: 3,
}

// maxCell keeps long letter bodies from pushing the table off screen.
const maxCell = 48

// Table draws kind's rows. selected is the highlighted row index, or -1.
// A width of zero lets the table size itself.
func (r *Renderer) Table(kind model.Kind, selected, width int) string {
	rows := r.Rows(kind)

	data := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = truncate(c, maxCell)
		}
		data[i] = cells
	}

	badgeCol := statusColumn[kind]
	t := table.New().
		Border(ui.Current().Border).
		BorderStyle(ui.Current().Muted).
		Headers(Columns[kind]...).
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return ui.HeaderStyle
			}
			style := ui.CellStyle
			if row == selected {
				style = ui.SelectedStyle.Padding(0, 1)
			}
			if col == badgeCol && row >= 0 && row < len(rows) && rows[row].Badge != nil {
				return style.Inherit(ui.BadgeStyle(rows[row].Badge.Class))
			}
			return style
		})
	if width > 0 {
		t = t.Width(width)
	}
	return t.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
