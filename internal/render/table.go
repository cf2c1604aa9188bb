package render

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// DataTable renders rows under headers. When limit is positive and smaller
// than the row count, the remaining rows are summarized in a footer.
func DataTable(headers []string, rows [][]string, limit int) string {
	shown := rows
	if limit > 0 && len(rows) > limit {
		shown = rows[:limit]
	}

	cell := lipgloss.NewStyle().Padding(0, 1)
	header := HeaderStyle.Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(BorderColor)).
		Headers(headers...).
		Rows(shown...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})

	out := t.Render()
	if hidden := len(rows) - len(shown); hidden > 0 {
		out += "\n" + MutedStyle.Render(fmt.Sprintf("… %d more rows", hidden))
	}
	return out
}
