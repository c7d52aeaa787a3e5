package perception

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tablechat/internal/actions"
	"tablechat/internal/logging"
	"tablechat/internal/table"
)

// ExampleCommands are shown with help and unrecognized-command replies.
var ExampleCommands = []string{
	"add row 10, 20, 30",
	"set row 1 col 2 to 50",
	"delete row 2",
	"add column Score",
	"fill column 3 with 0",
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	valueSplitRe = regexp.MustCompile(`[,;\s]+`)

	addRowRe    = regexp.MustCompile(`(?i)^add row\b:?\s*(.*)$`)
	editCellRe  = regexp.MustCompile(`(?i)^(?:set|change|update) row (\S+) (?:col|column) (\S+) (?:to|=) (\S+)$`)
	editPrefRe  = regexp.MustCompile(`(?i)^(?:set|change|update) row\b`)
	deleteRowRe = regexp.MustCompile(`(?i)^(?:delete|remove) row\b\s*(\S*)$`)
	addColRe    = regexp.MustCompile(`(?i)^add (?:col|column)\b\s*(.*)$`)
	fillColRe   = regexp.MustCompile(`(?i)^fill (?:col|column) (\S+) with (\S+)$`)
	fillPrefRe  = regexp.MustCompile(`(?i)^fill (?:col|column)\b`)
	helpRe      = regexp.MustCompile(`(?i)^(?:help|commands|\?)$`)
)

// RuleInterpreter translates templated commands into intents without any
// provider. It is deterministic and never fails.
type RuleInterpreter struct{}

// NewRuleInterpreter creates a rule-based interpreter.
func NewRuleInterpreter() *RuleInterpreter {
	return &RuleInterpreter{}
}

// Interpret matches text against the command shapes, first match wins.
// Range and arity checks are left to the executor.
func (r *RuleInterpreter) Interpret(text string, s *table.Snapshot) Interpretation {
	cmd := normalize(text)
	logging.Perception().Debug("rule interpret", zap.String("command", cmd))

	switch {
	case cmd == "":
		return guidance("Type a command to change the table.")

	case helpRe.MatchString(cmd):
		return guidance(HelpText())

	case addColRe.MatchString(cmd):
		name := strings.TrimSpace(addColRe.FindStringSubmatch(cmd)[1])
		if name == "" {
			cols := 0
			if s != nil {
				cols = s.ColumnCount()
			}
			name = fmt.Sprintf("Column %d", cols+1)
		}
		return success(actions.AddColumn{Header: name})

	case addRowRe.MatchString(cmd):
		return success(actions.AddRow{Values: parseValues(addRowRe.FindStringSubmatch(cmd)[1])})

	case editCellRe.MatchString(cmd):
		m := editCellRe.FindStringSubmatch(cmd)
		row, errR := parseIndex(m[1])
		col, errC := parseIndex(m[2])
		val, errV := atoi(m[3])
		if errR != nil || errC != nil || errV != nil {
			return usageReply("set row <row> col <column> to <value>")
		}
		return success(actions.EditCell{Row: row, Col: col, Value: val})

	case editPrefRe.MatchString(cmd):
		return usageReply("set row <row> col <column> to <value>")

	case deleteRowRe.MatchString(cmd):
		row, err := parseIndex(deleteRowRe.FindStringSubmatch(cmd)[1])
		if err != nil {
			return usageReply("delete row <row>")
		}
		return success(actions.DeleteRow{Row: row})

	case fillColRe.MatchString(cmd):
		m := fillColRe.FindStringSubmatch(cmd)
		col, errC := parseIndex(m[1])
		val, errV := atoi(m[2])
		if errC != nil || errV != nil {
			return usageReply("fill column <column> with <value>")
		}
		return success(actions.FillColumn{Col: col, Value: val})

	case fillPrefRe.MatchString(cmd):
		return usageReply("fill column <column> with <value>")
	}

	return guidance(fmt.Sprintf("I didn't understand %q. Try one of:\n%s", cmd, bulletList(ExampleCommands)))
}

// HelpText is the static command reference.
func HelpText() string {
	lines := []string{
		"add row v1, v2, ...          append a row (one value per column)",
		"set row R col C to V         change one cell (also: change, update)",
		"delete row R                 remove a row (also: remove)",
		"add column [name]            append a column of random values",
		"fill column C with V         set every value in a column",
		"help                         show this list",
	}
	return "Available commands (rows and columns start at 1):\n" + bulletList(lines)
}

func bulletList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("  - ")
		b.WriteString(item)
	}
	return b.String()
}

func success(intent actions.Intent) Interpretation {
	return Interpretation{Intent: intent, Message: Describe(intent)}
}

func guidance(msg string) Interpretation {
	return Interpretation{Intent: actions.NoOp{}, Message: msg, Guidance: true}
}

func usageReply(form string) Interpretation {
	return Interpretation{Intent: actions.NoOp{}, Message: "Usage: " + form + " (whole numbers, rows and columns start at 1)."}
}

// normalize collapses whitespace and strips trailing sentence punctuation.
// Case is kept so column names survive; patterns match case-insensitively.
func normalize(text string) string {
	s := whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	return strings.TrimRight(s, ".!")
}

// parseValues keeps every integer token and drops the rest.
func parseValues(list string) []int {
	var values []int
	for _, tok := range valueSplitRe.Split(list, -1) {
		if tok == "" {
			continue
		}
		v, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	return values
}

// parseIndex converts a 1-based token to a 0-based index.
func parseIndex(tok string) (int, error) {
	n, err := atoi(tok)
	if err != nil {
		return 0, err
	}
	return n - 1, nil
}

func atoi(tok string) (int, error) {
	return strconv.Atoi(strings.Trim(tok, ",:"))
}
