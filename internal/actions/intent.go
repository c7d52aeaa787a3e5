// Package actions defines the closed vocabulary of table mutations and the
// executor that applies one of them to a snapshot.
package actions

import "fmt"

// Kind names an intent variant. The string form is also the action name used
// on the model wire protocol.
type Kind string

const (
	KindAddRow     Kind = "add_row"
	KindEditCell   Kind = "edit_cell"
	KindDeleteRow  Kind = "delete_row"
	KindAddColumn  Kind = "add_column"
	KindFillColumn Kind = "fill_column"
	KindNoOp       Kind = "none"
)

// Kinds lists every variant in a stable order.
var Kinds = []Kind{KindAddRow, KindEditCell, KindDeleteRow, KindAddColumn, KindFillColumn, KindNoOp}

// Intent is a structured description of a single requested mutation.
// The set of implementations is closed to this package.
type Intent interface {
	Kind() Kind
	String() string
	isIntent()
}

// AddRow appends a row with one value per column.
type AddRow struct {
	Values []int
}

// EditCell replaces the value at (Row, Col).
type EditCell struct {
	Row   int
	Col   int
	Value int
}

// DeleteRow removes a row.
type DeleteRow struct {
	Row int
}

// AddColumn appends a column filled with random values.
type AddColumn struct {
	Header string
}

// FillColumn sets every cell in a column to Value.
type FillColumn struct {
	Col   int
	Value int
}

// NoOp changes nothing; used when an interpreter only has something to say.
type NoOp struct{}

func (AddRow) Kind() Kind     { return KindAddRow }
func (EditCell) Kind() Kind   { return KindEditCell }
func (DeleteRow) Kind() Kind  { return KindDeleteRow }
func (AddColumn) Kind() Kind  { return KindAddColumn }
func (FillColumn) Kind() Kind { return KindFillColumn }
func (NoOp) Kind() Kind       { return KindNoOp }

func (AddRow) isIntent()     {}
func (EditCell) isIntent()   {}
func (DeleteRow) isIntent()  {}
func (AddColumn) isIntent()  {}
func (FillColumn) isIntent() {}
func (NoOp) isIntent()       {}

func (a AddRow) String() string { return fmt.Sprintf("add_row(%v)", a.Values) }
func (e EditCell) String() string {
	return fmt.Sprintf("edit_cell(row=%d, col=%d, value=%d)", e.Row, e.Col, e.Value)
}
func (d DeleteRow) String() string { return fmt.Sprintf("delete_row(row=%d)", d.Row) }
func (a AddColumn) String() string { return fmt.Sprintf("add_column(%q)", a.Header) }
func (f FillColumn) String() string {
	return fmt.Sprintf("fill_column(col=%d, value=%d)", f.Col, f.Value)
}
func (NoOp) String() string { return "none" }

// Mutates reports whether applying the intent can change a snapshot.
func Mutates(i Intent) bool {
	return i != nil && i.Kind() != KindNoOp
}
