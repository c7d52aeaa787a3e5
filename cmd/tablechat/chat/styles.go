package chat

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"tablechat/internal/engine"
	"tablechat/internal/table"
)

// Color palette
var (
	Primary     = lipgloss.Color("#8BC34A") // Lime Green
	Muted       = lipgloss.Color("#6b7280")
	Border      = lipgloss.Color("#2a3850")
	Destructive = lipgloss.Color("#e53935")
	Warning     = lipgloss.Color("#FFC107")
	Info        = lipgloss.Color("#2196F3")
)

// Styles holds the lipgloss styles used by the chat view.
type Styles struct {
	Title     lipgloss.Style
	UserMsg   lipgloss.Style
	Assistant lipgloss.Style
	System    lipgloss.Style
	Muted     lipgloss.Style
	Header    lipgloss.Style
	Cell      lipgloss.Style
	Badge     map[engine.ProviderState]lipgloss.Style
}

// DefaultStyles returns the default chat styles.
func DefaultStyles() Styles {
	badge := lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("#101F38"))
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(Primary),
		UserMsg:   lipgloss.NewStyle().Bold(true).Foreground(Info),
		Assistant: lipgloss.NewStyle(),
		System:    lipgloss.NewStyle().Italic(true).Foreground(Muted),
		Muted:     lipgloss.NewStyle().Foreground(Muted),
		Header:    lipgloss.NewStyle().Bold(true).Foreground(Primary).Padding(0, 1),
		Cell:      lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right),
		Badge: map[engine.ProviderState]lipgloss.Style{
			engine.NotConfigured: badge.Background(Muted),
			engine.Configured:    badge.Background(Primary),
			engine.QuotaExceeded: badge.Background(Warning),
		},
	}
}

// RenderTable draws rows (already filtered and sorted) under the snapshot's
// headers. The leading column shows each row's canonical 1-based number.
func RenderTable(s *table.Snapshot, rows [][]table.Cell, styles Styles) string {
	headers := append([]string{"#"}, s.Headers...)
	data := make([][]string, len(rows))
	for i, row := range rows {
		line := make([]string, 0, len(row)+1)
		if len(row) > 0 {
			line = append(line, strconv.Itoa(row[0].Row+1))
		} else {
			line = append(line, "")
		}
		for _, c := range row {
			line = append(line, strconv.Itoa(c.Value))
		}
		data[i] = line
	}

	t := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Border)).
		Headers(headers...).
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == ltable.HeaderRow:
				return styles.Header
			case col == 0:
				return styles.Muted.Padding(0, 1)
			default:
				return styles.Cell
			}
		})
	return t.String()
}
