package perception

import (
	"fmt"

	"tablechat/internal/actions"
	"tablechat/internal/table"
)

// Interpretation is an intent plus the chat message to show when it is
// applied. Guidance marks help and unrecognized-command replies, which the
// engine decorates with a provider hint.
type Interpretation struct {
	Intent   actions.Intent
	Message  string
	Guidance bool
}

// Describe renders the default success message for an intent. Row and column
// numbers are shown 1-based.
func Describe(intent actions.Intent) string {
	switch in := intent.(type) {
	case actions.AddRow:
		return "Added new row with values: " + table.FormatValues(in.Values)
	case actions.EditCell:
		return fmt.Sprintf("Updated row %d, column %d to %d.", in.Row+1, in.Col+1, in.Value)
	case actions.DeleteRow:
		return fmt.Sprintf("Deleted row %d.", in.Row+1)
	case actions.AddColumn:
		return fmt.Sprintf("Added column %q with random values.", in.Header)
	case actions.FillColumn:
		return fmt.Sprintf("Set every value in column %d to %d.", in.Col+1, in.Value)
	default:
		return "Nothing to change."
	}
}
