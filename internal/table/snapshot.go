// Package table holds the immutable snapshot model that every mutation reads
// from and produces. A Snapshot is never modified after construction; callers
// that need a change ask the actions executor for a new one.
package table

import (
	"fmt"
	"strings"
)

// Cell is a single identified grid value.
type Cell struct {
	ID    string // Stable across redraws, never reused
	Value int
	Row   int // Zero-based, always equal to the cell's index in Snapshot.Rows
	Col   int
}

// Snapshot is one immutable version of the full table state.
// Treat the exported slices as read-only.
type Snapshot struct {
	Headers []string
	Rows    [][]Cell
}

// IDFunc generates a fresh cell identifier.
type IDFunc func() string

// DefaultHeaders and DefaultValues describe the seed table.
var (
	DefaultHeaders = []string{"Column 1", "Column 2", "Column 3"}
	DefaultValues  = [][]int{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	}
)

// New builds a snapshot from headers and a value grid, assigning fresh ids.
// Every row must have exactly len(headers) values.
func New(headers []string, values [][]int, newID IDFunc) (*Snapshot, error) {
	if newID == nil {
		return nil, fmt.Errorf("id generator required")
	}

	s := &Snapshot{
		Headers: append([]string(nil), headers...),
		Rows:    make([][]Cell, 0, len(values)),
	}
	for r, vals := range values {
		if len(vals) != len(headers) {
			return nil, fmt.Errorf("row %d has %d values, want %d", r, len(vals), len(headers))
		}
		row := make([]Cell, len(vals))
		for c, v := range vals {
			row[c] = Cell{ID: newID(), Value: v, Row: r, Col: c}
		}
		s.Rows = append(s.Rows, row)
	}
	return s, nil
}

// Seed returns the default 3x3 starting table.
func Seed(newID IDFunc) *Snapshot {
	s, err := New(DefaultHeaders, DefaultValues, newID)
	if err != nil {
		// DefaultValues is rectangular; this only fires on a nil generator.
		panic(err)
	}
	return s
}

// RowCount returns the number of rows.
func (s *Snapshot) RowCount() int {
	return len(s.Rows)
}

// ColumnCount returns the number of columns.
func (s *Snapshot) ColumnCount() int {
	return len(s.Headers)
}

// InRange reports whether (row, col) addresses an existing cell.
func (s *Snapshot) InRange(row, col int) bool {
	return row >= 0 && row < len(s.Rows) && col >= 0 && col < len(s.Headers)
}

// Cell returns the cell at (row, col). The second result is false when out of range.
func (s *Snapshot) Cell(row, col int) (Cell, bool) {
	if !s.InRange(row, col) {
		return Cell{}, false
	}
	return s.Rows[row][col], true
}

// RowValues returns a copy of the values in row r.
func (s *Snapshot) RowValues(r int) []int {
	if r < 0 || r >= len(s.Rows) {
		return nil
	}
	out := make([]int, len(s.Rows[r]))
	for i, c := range s.Rows[r] {
		out[i] = c.Value
	}
	return out
}

// Values returns a copy of the whole value grid.
func (s *Snapshot) Values() [][]int {
	out := make([][]int, len(s.Rows))
	for r := range s.Rows {
		out[r] = s.RowValues(r)
	}
	return out
}

// Clone returns a deep copy. Mutators start from a clone so the receiver is
// never touched.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Headers: append([]string(nil), s.Headers...),
		Rows:    make([][]Cell, len(s.Rows)),
	}
	for r, row := range s.Rows {
		out.Rows[r] = append([]Cell(nil), row...)
	}
	return out
}

// Validate checks the shape and position invariants.
func (s *Snapshot) Validate() error {
	seen := make(map[string]bool)
	for r, row := range s.Rows {
		if len(row) != len(s.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", r, len(row), len(s.Headers))
		}
		for c, cell := range row {
			if cell.Row != r || cell.Col != c {
				return fmt.Errorf("cell %s at (%d,%d) claims (%d,%d)", cell.ID, r, c, cell.Row, cell.Col)
			}
			if seen[cell.ID] {
				return fmt.Errorf("duplicate cell id %s", cell.ID)
			}
			seen[cell.ID] = true
		}
	}
	return nil
}

// FormatValues joins values as "1, 2, 3".
func FormatValues(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}
