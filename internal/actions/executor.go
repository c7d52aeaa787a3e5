package actions

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"tablechat/internal/table"
)

// Default bounds for values drawn when a column is added.
const (
	DefaultFillMin = 1
	DefaultFillMax = 100
)

// Executor applies intents to snapshots. It owns the id generator and the
// pseudo-random source used for new column values; neither is global.
type Executor struct {
	newID   table.IDFunc
	rng     *rand.Rand
	fillMin int
	fillMax int
}

// Option configures an Executor.
type Option func(*Executor)

// WithRand injects the random source used for AddColumn values.
func WithRand(r *rand.Rand) Option {
	return func(e *Executor) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithSeed seeds a private random source, making AddColumn reproducible.
func WithSeed(seed int64) Option {
	return func(e *Executor) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

// WithIDFunc replaces the cell id generator.
func WithIDFunc(fn table.IDFunc) Option {
	return func(e *Executor) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithFillRange sets the inclusive range for AddColumn values. Ranges
// rejected by ValidFillRange leave the defaults in place.
func WithFillRange(lo, hi int) Option {
	return func(e *Executor) {
		if ValidFillRange(lo, hi) {
			e.fillMin, e.fillMax = lo, hi
		}
	}
}

// ValidFillRange reports whether [lo, hi] is non-empty and its size fits in
// an int.
func ValidFillRange(lo, hi int) bool {
	if lo > hi {
		return false
	}
	span := hi - lo
	return span >= 0 && span < math.MaxInt
}

// NewExecutor creates an executor with uuid ids and a time-seeded source.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		newID:   uuid.NewString,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		fillMin: DefaultFillMin,
		fillMax: DefaultFillMax,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewID exposes the executor's id generator so seed tables share it.
func (e *Executor) NewID() string {
	return e.newID()
}

// Apply executes intent against s. On success it returns a new snapshot (or s
// itself for NoOp). On failure it returns an *ExecutionError and s is untouched.
func (e *Executor) Apply(intent Intent, s *table.Snapshot) (*table.Snapshot, error) {
	if s == nil {
		return nil, fmt.Errorf("apply %v: nil snapshot", intent)
	}

	switch in := intent.(type) {
	case AddRow:
		return e.addRow(in, s)
	case EditCell:
		return e.editCell(in, s)
	case DeleteRow:
		return e.deleteRow(in, s)
	case AddColumn:
		return e.addColumn(in, s)
	case FillColumn:
		return e.fillColumn(in, s)
	case NoOp:
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedIntent, intent)
	}
}

func (e *Executor) addRow(in AddRow, s *table.Snapshot) (*table.Snapshot, error) {
	cols := s.ColumnCount()
	if len(in.Values) != cols {
		return nil, &ExecutionError{
			Kind: KindAddRow, Err: ErrArityMismatch, Field: "values",
			Got: len(in.Values), Limit: cols, Rows: s.RowCount(), Cols: cols,
		}
	}

	out := s.Clone()
	r := len(out.Rows)
	row := make([]table.Cell, cols)
	for c, v := range in.Values {
		row[c] = table.Cell{ID: e.newID(), Value: v, Row: r, Col: c}
	}
	out.Rows = append(out.Rows, row)
	return out, nil
}

func (e *Executor) editCell(in EditCell, s *table.Snapshot) (*table.Snapshot, error) {
	if err := checkRow(KindEditCell, in.Row, s); err != nil {
		return nil, err
	}
	if err := checkColumn(KindEditCell, in.Col, s); err != nil {
		return nil, err
	}

	out := s.Clone()
	out.Rows[in.Row][in.Col].Value = in.Value
	return out, nil
}

// deleteRow removes the row and renumbers the cells below it so that Row
// always matches the slice index. Ids are preserved.
func (e *Executor) deleteRow(in DeleteRow, s *table.Snapshot) (*table.Snapshot, error) {
	if err := checkRow(KindDeleteRow, in.Row, s); err != nil {
		return nil, err
	}

	out := &table.Snapshot{
		Headers: append([]string(nil), s.Headers...),
		Rows:    make([][]table.Cell, 0, len(s.Rows)-1),
	}
	for r, row := range s.Rows {
		if r == in.Row {
			continue
		}
		cp := append([]table.Cell(nil), row...)
		for c := range cp {
			cp[c].Row = len(out.Rows)
		}
		out.Rows = append(out.Rows, cp)
	}
	return out, nil
}

func (e *Executor) addColumn(in AddColumn, s *table.Snapshot) (*table.Snapshot, error) {
	out := s.Clone()
	col := len(out.Headers)
	out.Headers = append(out.Headers, in.Header)
	for r := range out.Rows {
		out.Rows[r] = append(out.Rows[r], table.Cell{
			ID:    e.newID(),
			Value: e.fillMin + e.rng.Intn(e.fillMax-e.fillMin+1),
			Row:   r,
			Col:   col,
		})
	}
	return out, nil
}

func (e *Executor) fillColumn(in FillColumn, s *table.Snapshot) (*table.Snapshot, error) {
	if err := checkColumn(KindFillColumn, in.Col, s); err != nil {
		return nil, err
	}

	out := s.Clone()
	for r := range out.Rows {
		out.Rows[r][in.Col].Value = in.Value
	}
	return out, nil
}

func checkRow(kind Kind, row int, s *table.Snapshot) error {
	if row >= 0 && row < s.RowCount() {
		return nil
	}
	return &ExecutionError{
		Kind: kind, Err: ErrIndexOutOfRange, Field: "row",
		Got: row, Limit: s.RowCount(), Rows: s.RowCount(), Cols: s.ColumnCount(),
	}
}

func checkColumn(kind Kind, col int, s *table.Snapshot) error {
	if col >= 0 && col < s.ColumnCount() {
		return nil
	}
	return &ExecutionError{
		Kind: kind, Err: ErrIndexOutOfRange, Field: "column",
		Got: col, Limit: s.ColumnCount(), Rows: s.RowCount(), Cols: s.ColumnCount(),
	}
}
