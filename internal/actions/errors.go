package actions

import (
	"errors"
	"fmt"
)

var (
	ErrArityMismatch     = errors.New("arity mismatch")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrUnsupportedIntent = errors.New("unsupported intent")
)

// ExecutionError describes why an intent could not be applied. The snapshot
// it was applied to is never modified.
type ExecutionError struct {
	Kind  Kind
	Err   error  // ErrArityMismatch or ErrIndexOutOfRange
	Field string // "values", "row" or "column"
	Got   int    // Offending count or zero-based index
	Limit int    // Required count, or the number of rows/columns
	Rows  int
	Cols  int
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s: %s %d (limit %d)", e.Kind, e.Err, e.Field, e.Got, e.Limit)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// UserMessage renders the failure for the chat transcript, naming the valid
// range or the required number of values. Ranges are 1-based.
func (e *ExecutionError) UserMessage() string {
	if errors.Is(e.Err, ErrArityMismatch) {
		return fmt.Sprintf("Please provide exactly %d values for the new row (got %d).", e.Limit, e.Got)
	}

	switch e.Field {
	case "row":
		if e.Rows == 0 {
			return "The table has no rows yet."
		}
		if e.Kind == KindEditCell {
			return fmt.Sprintf("Invalid row or column. Rows: 1-%d, Columns: 1-%d.", e.Rows, e.Cols)
		}
		return fmt.Sprintf("Invalid row number %d. Valid range: 1-%d.", e.Got+1, e.Rows)
	case "column":
		if e.Cols == 0 {
			return "The table has no columns yet."
		}
		if e.Kind == KindEditCell {
			return fmt.Sprintf("Invalid row or column. Rows: 1-%d, Columns: 1-%d.", e.Rows, e.Cols)
		}
		return fmt.Sprintf("Invalid column number %d. Valid range: 1-%d.", e.Got+1, e.Cols)
	}
	return "That change could not be applied."
}

// UserMessage returns a chat-friendly message for any executor error.
func UserMessage(err error) string {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.UserMessage()
	}
	return "That change could not be applied."
}
