package perception

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"tablechat/internal/actions"
	"tablechat/internal/logging"
	"tablechat/internal/table"
	"tablechat/internal/usage"
)

// modelSystemPrompt enumerates the action shapes the model may answer with.
const modelSystemPrompt = `You translate a user's request into exactly one edit of a small table of whole numbers.

Reply with ONE JSON object and nothing else:
{"action": "<name>", "parameters": {...}, "message": "<short confirmation for the user>"}

Actions (row and column indices are ZERO-based, values are whole numbers):
- "add_row":     {"values": [v1, v2, ...]}   exactly one value per column
- "edit_cell":   {"row": r, "col": c, "value": v}
- "delete_row":  {"row": r}
- "add_column":  {"header": "name"}           the new column is filled with random values
- "fill_column": {"col": c, "value": v}       every row gets value v in column c
- "none":        {}                           no change; use message to answer or ask for clarification

Rules:
- Use only the actions above.
- Users count rows and columns from 1; convert to zero-based indices.
- Never invent rows or columns that do not exist.
- Do not wrap the JSON in code fences.`

// ModelInterpreter asks an LLM to turn a command into an intent.
type ModelInterpreter struct {
	client   LLMClient
	provider string
	model    string
}

// NewModelInterpreter creates a model-backed interpreter. provider labels
// usage records.
func NewModelInterpreter(client LLMClient, provider string) *ModelInterpreter {
	m := &ModelInterpreter{client: client, provider: provider}
	if named, ok := client.(interface{ Model() string }); ok {
		m.model = named.Model()
	}
	return m
}

// Interpret sends the command and table context to the model and decodes
// the reply. Every error is a *ProviderError. The intent is not executed.
func (m *ModelInterpreter) Interpret(ctx context.Context, text string, s *table.Snapshot) (Interpretation, error) {
	log := logging.Perception().With(zap.String("provider", m.provider))
	timer := logging.StartTimer(logging.CategoryAPI, "model interpret")

	reply, err := m.client.CompleteWithSystem(ctx, modelSystemPrompt, BuildUserPrompt(text, s))
	elapsed := timer.Stop()
	if err != nil {
		pe := classify(err)
		m.record(ctx, usage.CallResult(pe.Kind.String()), elapsed)
		log.Warn("provider call failed", zap.Stringer("kind", pe.Kind), zap.Error(err))
		return Interpretation{}, pe
	}

	interp, err := DecodeReply(reply)
	if err != nil {
		m.record(ctx, usage.CallMalformedResponse, elapsed)
		log.Warn("model reply rejected", zap.Error(err), zap.Int("reply_len", len(reply)))
		return Interpretation{}, &ProviderError{Kind: MalformedResponse, Err: err}
	}

	m.record(ctx, usage.CallOK, elapsed)
	log.Debug("model interpreted command", zap.String("action", string(interp.Intent.Kind())))
	return interp, nil
}

func (m *ModelInterpreter) record(ctx context.Context, result usage.CallResult, latency time.Duration) {
	usage.FromContext(ctx).TrackCall(usage.ProviderCall{
		Timestamp: time.Now(),
		Provider:  m.provider,
		Model:     m.model,
		Result:    result,
		Latency:   latency,
	})
}

// BuildUserPrompt renders the table context followed by the raw command.
func BuildUserPrompt(text string, s *table.Snapshot) string {
	var b strings.Builder
	b.WriteString(BuildTableContext(s))
	b.WriteString("\nUser command: ")
	b.WriteString(strings.TrimSpace(text))
	return b.String()
}

// BuildTableContext summarizes headers, row count and every row's values
// with its zero-based index.
func BuildTableContext(s *table.Snapshot) string {
	if s == nil {
		return "Current table: (none)\n"
	}
	var b strings.Builder
	b.WriteString("Current table:\n")
	fmt.Fprintf(&b, "Headers (%d): %s\n", len(s.Headers), strings.Join(s.Headers, ", "))
	fmt.Fprintf(&b, "Row count: %d\n", s.RowCount())
	for r := range s.Rows {
		fmt.Fprintf(&b, "Row %d: %s\n", r, table.FormatValues(s.RowValues(r)))
	}
	return b.String()
}

// modelReply is the envelope the model must produce.
type modelReply struct {
	Action     *string         `json:"action"`
	Parameters json.RawMessage `json:"parameters"`
	Message    string          `json:"message"`
}

type rowParams struct {
	Values []*int `json:"values"`
}

type cellParams struct {
	Row   *int `json:"row"`
	Col   *int `json:"col"`
	Value *int `json:"value"`
}

type headerParams struct {
	Header *string `json:"header"`
}

// DecodeReply extracts the first JSON object from reply and maps it onto a
// single intent. Unknown actions, missing fields and non-integer values
// wrap ErrMalformedResponse.
func DecodeReply(reply string) (Interpretation, error) {
	raw := extractJSON(reply)
	if raw == "" {
		return Interpretation{}, fmt.Errorf("%w: no JSON object in reply", ErrMalformedResponse)
	}

	var env modelReply
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return Interpretation{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if env.Action == nil {
		return Interpretation{}, fmt.Errorf("%w: missing action", ErrMalformedResponse)
	}

	intent, err := decodeIntent(actions.Kind(strings.ToLower(strings.TrimSpace(*env.Action))), env.Parameters)
	if err != nil {
		return Interpretation{}, err
	}
	return Interpretation{Intent: intent, Message: strings.TrimSpace(env.Message)}, nil
}

func decodeIntent(kind actions.Kind, params json.RawMessage) (actions.Intent, error) {
	switch kind {
	case actions.KindAddRow:
		var p rowParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if p.Values == nil {
			return nil, missing(kind, "values")
		}
		values := make([]int, len(p.Values))
		for i, v := range p.Values {
			if v == nil {
				return nil, fmt.Errorf("%w: add_row values[%d] is null", ErrMalformedResponse, i)
			}
			values[i] = *v
		}
		return actions.AddRow{Values: values}, nil

	case actions.KindEditCell:
		var p cellParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if p.Row == nil || p.Col == nil || p.Value == nil {
			return nil, missing(kind, "row, col and value")
		}
		return actions.EditCell{Row: *p.Row, Col: *p.Col, Value: *p.Value}, nil

	case actions.KindDeleteRow:
		var p cellParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if p.Row == nil {
			return nil, missing(kind, "row")
		}
		return actions.DeleteRow{Row: *p.Row}, nil

	case actions.KindAddColumn:
		var p headerParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if p.Header == nil || strings.TrimSpace(*p.Header) == "" {
			return nil, missing(kind, "header")
		}
		return actions.AddColumn{Header: strings.TrimSpace(*p.Header)}, nil

	case actions.KindFillColumn:
		var p cellParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if p.Col == nil || p.Value == nil {
			return nil, missing(kind, "col and value")
		}
		return actions.FillColumn{Col: *p.Col, Value: *p.Value}, nil

	case actions.KindNoOp:
		return actions.NoOp{}, nil

	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrMalformedResponse, kind)
	}
}

func decodeParams(params json.RawMessage, into any) error {
	if len(bytes.TrimSpace(params)) == 0 || string(bytes.TrimSpace(params)) == "null" {
		return fmt.Errorf("%w: missing parameters", ErrMalformedResponse)
	}
	if err := json.Unmarshal(params, into); err != nil {
		return fmt.Errorf("%w: parameters: %v", ErrMalformedResponse, err)
	}
	return nil
}

func missing(kind actions.Kind, fields string) error {
	return fmt.Errorf("%w: %s requires %s", ErrMalformedResponse, kind, fields)
}

// extractJSON returns the first balanced JSON object in response, skipping
// braces inside string literals. Empty when none is found.
func extractJSON(response string) string {
	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(response); i++ {
		ch := response[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}

	return ""
}
