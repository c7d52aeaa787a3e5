package table

import (
	"sort"
	"strconv"
	"strings"
)

// ViewOptions controls the read-side presentation of a snapshot.
type ViewOptions struct {
	Filter     string // Keep rows where any value's decimal text contains Filter
	SortColumn int    // Zero-based; negative disables sorting
	Descending bool
}

// View returns the rows of s filtered and sorted for display. It works on a
// copy of the row sequence: cells keep their canonical Row/Col and the
// snapshot is left untouched.
func View(s *Snapshot, opts ViewOptions) [][]Cell {
	rows := make([][]Cell, 0, len(s.Rows))
	filter := strings.TrimSpace(opts.Filter)
	for _, row := range s.Rows {
		if filter != "" && !rowMatches(row, filter) {
			continue
		}
		rows = append(rows, row)
	}

	col := opts.SortColumn
	if col < 0 || col >= len(s.Headers) {
		return rows
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if opts.Descending {
			return rows[i][col].Value > rows[j][col].Value
		}
		return rows[i][col].Value < rows[j][col].Value
	})
	return rows
}

func rowMatches(row []Cell, filter string) bool {
	for _, c := range row {
		if strings.Contains(strconv.Itoa(c.Value), filter) {
			return true
		}
	}
	return false
}

// DefaultViewOptions shows every row in snapshot order.
func DefaultViewOptions() ViewOptions {
	return ViewOptions{SortColumn: -1}
}
