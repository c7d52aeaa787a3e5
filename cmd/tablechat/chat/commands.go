package chat

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"tablechat/internal/export"
	"tablechat/internal/logging"
	"tablechat/internal/perception"
	"tablechat/internal/table"
	"tablechat/internal/usage"
)

const localHelp = `## Local commands

| Command | Effect |
|---|---|
| ` + "`:sort <column> [desc]`" + ` | Sort the view by a column number or header (` + "`:sort off`" + ` to stop) |
| ` + "`:filter <text>`" + ` | Show only rows containing the text (empty clears) |
| ` + "`:clear`" + ` | Reset sort and filter |
| ` + "`:stats`" + ` | Show dispatch and provider call counts |
| ` + "`:export <path>`" + ` | Write the table to an .xlsx file |
| ` + "`:help`" + ` | Show this help |
| ` + "`:quit`" + ` | Exit |

Sorting and filtering change the display only. Row numbers in commands
always refer to the # column.

## Table commands
`

// handleLocalCommand runs a ':' command. Local commands never reach the
// engine and never change the table.
func (m Model) handleLocalCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(strings.TrimPrefix(input, ":"))
	if len(parts) == 0 {
		m.appendMessage("system", "Empty command. Try :help")
		return m, nil
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]
	logging.Get(logging.CategoryUI).Debug("local command", zap.String("command", cmd), zap.Strings("args", args))

	switch cmd {
	case "quit", "q", "exit":
		return m, tea.Quit

	case "help", "h", "?":
		m.appendMessage("system", m.renderMarkdown(localHelp+"```\n"+perception.HelpText()+"\n```\n"))

	case "sort":
		m.appendMessage("system", m.sortCommand(args))

	case "filter":
		m.view.Filter = strings.Join(args, " ")
		if m.view.Filter == "" {
			m.appendMessage("system", "Filter cleared.")
		} else {
			m.appendMessage("system", fmt.Sprintf("Showing rows containing %q.", m.view.Filter))
		}

	case "clear":
		m.view = table.DefaultViewOptions()
		m.appendMessage("system", "View reset.")

	case "stats":
		m.appendMessage("system", FormatStats(m.dispatch.Stats()))

	case "export":
		if len(args) == 0 {
			m.appendMessage("system", "Usage: :export <path.xlsx>")
			break
		}
		path := strings.Join(args, " ")
		if err := export.WriteXLSX(m.snapshot, path); err != nil {
			m.appendMessage("system", fmt.Sprintf("Export failed: %v", err))
			break
		}
		m.appendMessage("system", fmt.Sprintf("Exported %d rows to %s.", m.snapshot.RowCount(), path))

	default:
		m.appendMessage("system", fmt.Sprintf("Unknown command :%s. Try :help", cmd))
	}
	return m, nil
}

// sortCommand updates the view's sort column. Columns are given 1-based
// or by header name.
func (m *Model) sortCommand(args []string) string {
	if len(args) == 0 {
		return "Usage: :sort <column> [desc]"
	}
	if strings.EqualFold(args[0], "off") {
		m.view.SortColumn = -1
		m.view.Descending = false
		return "Sorting off."
	}

	desc := false
	if last := strings.ToLower(args[len(args)-1]); last == "desc" || last == "asc" {
		desc = last == "desc"
		args = args[:len(args)-1]
		if len(args) == 0 {
			return "Usage: :sort <column> [desc]"
		}
	}

	col, ok := m.resolveColumn(strings.Join(args, " "))
	if !ok {
		return fmt.Sprintf("No column %q. Columns are 1-%d or a header name.", strings.Join(args, " "), m.snapshot.ColumnCount())
	}
	m.view.SortColumn = col
	m.view.Descending = desc
	dir := "ascending"
	if desc {
		dir = "descending"
	}
	return fmt.Sprintf("Sorted by %s, %s.", m.snapshot.Headers[col], dir)
}

func (m Model) resolveColumn(arg string) (int, bool) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n >= 1 && n <= m.snapshot.ColumnCount() {
			return n - 1, true
		}
		return 0, false
	}
	for i, h := range m.snapshot.Headers {
		if strings.EqualFold(h, arg) {
			return i, true
		}
	}
	return 0, false
}

func (m Model) renderMarkdown(md string) string {
	if m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

// FormatStats summarizes session counters for display.
func FormatStats(stats usage.AggregatedStats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Commands: %d (model %d, rules %d), fallbacks: %d\n",
		stats.Dispatches, stats.ByRoute[usage.RouteModel], stats.ByRoute[usage.RouteRules], stats.Fallbacks)
	fmt.Fprintf(&sb, "Outcomes: applied %d, rejected %d, no-op %d, busy %d\n",
		stats.ByOutcome[usage.OutcomeApplied], stats.ByOutcome[usage.OutcomeRejected],
		stats.ByOutcome[usage.OutcomeNoOp], stats.ByOutcome[usage.OutcomeBusy])
	fmt.Fprintf(&sb, "Provider calls: %d", stats.Calls.Count)
	if stats.Calls.Count > 0 {
		fmt.Fprintf(&sb, ", avg latency %s", stats.Calls.AverageLatency().Round(time.Millisecond))
	}

	models := make([]string, 0, len(stats.ByModel))
	for name := range stats.ByModel {
		models = append(models, name)
	}
	sort.Strings(models)
	for _, name := range models {
		cc := stats.ByModel[name]
		fmt.Fprintf(&sb, "\n  %s: %d calls, avg %s", name, cc.Count, cc.AverageLatency().Round(time.Millisecond))
	}

	results := make([]string, 0, len(stats.ByResult))
	for r, n := range stats.ByResult {
		if r != usage.CallOK && n > 0 {
			results = append(results, fmt.Sprintf("%s %d", r, n))
		}
	}
	sort.Strings(results)
	if len(results) > 0 {
		sb.WriteString("\nFailures: " + strings.Join(results, ", "))
	}
	return sb.String()
}
