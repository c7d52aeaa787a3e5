package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"tablechat/internal/actions"
	"tablechat/internal/config"
	"tablechat/internal/perception"
	"tablechat/internal/table"
	"tablechat/internal/usage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// fakeLLM is a perception.LLMClient with a canned reply.
type fakeLLM struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, "", prompt)
}

func (f *fakeLLM) CompleteWithSystem(context.Context, string, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.reply, f.err
}

func (f *fakeLLM) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestEngine(t *testing.T, client perception.LLMClient) (*Engine, *table.Snapshot) {
	t.Helper()
	n := 0
	exec := actions.NewExecutor(actions.WithSeed(1), actions.WithIDFunc(func() string {
		n++
		return fmt.Sprintf("cell-%d", n)
	}))
	opts := []Option{WithExecutor(exec)}
	if client != nil {
		opts = append(opts, WithModel(perception.NewModelInterpreter(client, "fake")))
	}
	e := New(opts...)
	s, err := e.NewTable(table.DefaultHeaders, table.DefaultValues)
	require.NoError(t, err)
	return e, s
}

func TestDispatch_RulesAddRow(t *testing.T) {
	e, s := newTestEngine(t, nil)
	require.Equal(t, NotConfigured, e.Status())

	out, msg := e.Dispatch(context.Background(), "add row 10, 20, 30", s)
	require.NotNil(t, out)

	assert.Equal(t, 4, out.RowCount())
	assert.Equal(t, []int{10, 20, 30}, out.RowValues(3))
	assert.Contains(t, msg, "10, 20, 30")
	assert.Equal(t, 3, s.RowCount())
}

func TestDispatch_RulesEditCell(t *testing.T) {
	e, s := newTestEngine(t, nil)

	out, _ := e.Dispatch(context.Background(), "set row 1 col 2 to 50", s)
	require.NotNil(t, out)

	want := [][]int{{1, 50, 3}, {4, 5, 6}, {7, 8, 9}}
	if diff := cmp.Diff(want, out.Values()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	for r := range s.Rows {
		for c := range s.Rows[r] {
			assert.Equal(t, s.Rows[r][c].ID, out.Rows[r][c].ID)
		}
	}
}

func TestDispatch_RulesDeleteOutOfRange(t *testing.T) {
	e, s := newTestEngine(t, nil)
	before := s.Clone()

	out, msg := e.Dispatch(context.Background(), "delete row 5", s)
	assert.Nil(t, out)
	assert.Contains(t, msg, "1-3")
	if diff := cmp.Diff(before, s); diff != "" {
		t.Errorf("snapshot mutated (-before +after):\n%s", diff)
	}
}

func TestDispatch_RulesArityMismatch(t *testing.T) {
	e, s := newTestEngine(t, nil)

	out, msg := e.Dispatch(context.Background(), "add row 1, 2", s)
	assert.Nil(t, out)
	assert.Contains(t, msg, "exactly 3 values")
}

func TestDispatch_NotConfiguredUnrecognized(t *testing.T) {
	e, s := newTestEngine(t, nil)

	out, msg := e.Dispatch(context.Background(), "xyz nonsense", s)
	assert.Nil(t, out)
	assert.Contains(t, msg, "add row 10, 20, 30")
	assert.Contains(t, msg, "GEMINI_API_KEY")
}

func TestDispatch_HelpCarriesHint(t *testing.T) {
	e, s := newTestEngine(t, nil)

	_, msg := e.Dispatch(context.Background(), "help", s)
	assert.Contains(t, msg, "Available commands")
	assert.Contains(t, msg, Hint(NotConfigured))
}

func TestDispatch_ModelSuccess(t *testing.T) {
	client := &fakeLLM{reply: `{"action":"fill_column","parameters":{"col":0,"value":9},"message":"Filled the first column with 9."}`}
	e, s := newTestEngine(t, client)
	require.Equal(t, Configured, e.Status())

	out, msg := e.Dispatch(context.Background(), "make the first column all nines", s)
	require.NotNil(t, out)

	assert.Equal(t, [][]int{{9, 2, 3}, {9, 5, 6}, {9, 8, 9}}, out.Values())
	assert.Equal(t, "Filled the first column with 9.", msg)
	assert.Equal(t, Configured, e.Status())

	stats := e.Stats()
	assert.Equal(t, int64(1), stats.ByRoute[usage.RouteModel])
	assert.Equal(t, int64(1), stats.ByResult[usage.CallOK])
}

func TestDispatch_ModelNoOpPassesMessage(t *testing.T) {
	client := &fakeLLM{reply: `{"action":"none","parameters":{},"message":"Which row do you mean?"}`}
	e, s := newTestEngine(t, client)

	out, msg := e.Dispatch(context.Background(), "delete it", s)
	assert.Nil(t, out)
	assert.Equal(t, "Which row do you mean?", msg)
}

func TestDispatch_ModelExecutionFailure(t *testing.T) {
	client := &fakeLLM{reply: `{"action":"delete_row","parameters":{"row":8},"message":"Deleted row 9."}`}
	e, s := newTestEngine(t, client)

	out, msg := e.Dispatch(context.Background(), "delete row 9", s)
	assert.Nil(t, out)
	assert.Contains(t, msg, "Deleted row 9.")
	assert.Contains(t, msg, "1-3")
	assert.Equal(t, 3, s.RowCount())

	client.reply = `{"action":"edit_cell","parameters":{"row":0,"col":7,"value":1}}`
	out, msg = e.Dispatch(context.Background(), "set something", s)
	assert.Nil(t, out)
	assert.Contains(t, msg, "could not be applied")
}

func TestDispatch_MalformedReplyFallsBack(t *testing.T) {
	client := &fakeLLM{reply: "Sure, I added that row for you!"}
	e, s := newTestEngine(t, client)

	out, msg := e.Dispatch(context.Background(), "add row 10, 20, 30", s)
	require.NotNil(t, out)

	assert.Equal(t, []int{10, 20, 30}, out.RowValues(3))
	assert.Contains(t, msg, "10, 20, 30")
	assert.Contains(t, msg, MalformedNotice)
	assert.Equal(t, Configured, e.Status())
	assert.Equal(t, int64(1), e.Stats().Fallbacks)
}

func TestDispatch_UnavailableFallsBackOnce(t *testing.T) {
	client := &fakeLLM{err: errors.New("dial tcp: connection refused")}
	e, s := newTestEngine(t, client)

	out, msg := e.Dispatch(context.Background(), "delete row 1", s)
	require.NotNil(t, out)
	assert.Equal(t, 2, out.RowCount())
	assert.Contains(t, msg, UnavailableNotice)
	assert.Equal(t, Configured, e.Status())

	// The next command tries the model again.
	client.err = nil
	client.reply = `{"action":"none","parameters":{},"message":"ok"}`
	_, msg = e.Dispatch(context.Background(), "anything", s)
	assert.Equal(t, "ok", msg)
	assert.Equal(t, 2, client.Calls())
}

func TestDispatch_ServerErrorMentioning429StaysConfigured(t *testing.T) {
	client := &fakeLLM{err: &perception.APIError{StatusCode: http.StatusServiceUnavailable, Body: `{"request_id":"req_8c4291f0"}`}}
	e, s := newTestEngine(t, client)

	out, msg := e.Dispatch(context.Background(), "add row 1, 2, 3", s)
	require.NotNil(t, out)
	assert.Contains(t, msg, UnavailableNotice)
	assert.NotContains(t, msg, QuotaNotice)
	assert.Equal(t, Configured, e.Status())
}

func TestDispatch_QuotaIsSticky(t *testing.T) {
	client := &fakeLLM{err: &perception.APIError{StatusCode: http.StatusTooManyRequests, Body: "quota exceeded"}}
	e, s := newTestEngine(t, client)

	out, msg := e.Dispatch(context.Background(), "add row 1, 2, 3", s)
	require.NotNil(t, out)
	assert.Contains(t, msg, QuotaNotice)
	assert.Equal(t, QuotaExceeded, e.Status())

	// Recovered provider is never consulted again.
	client.err = nil
	client.reply = `{"action":"none","parameters":{},"message":"model"}`
	for i := 0; i < 3; i++ {
		_, msg = e.Dispatch(context.Background(), "delete row 1", s)
		assert.Contains(t, msg, QuotaNotice)
		assert.Equal(t, QuotaExceeded, e.Status())
	}
	assert.Equal(t, 1, client.Calls())
}

func TestDispatch_QuotaHelpMentionsQuotaOnce(t *testing.T) {
	client := &fakeLLM{err: &perception.APIError{StatusCode: http.StatusTooManyRequests}}
	e, s := newTestEngine(t, client)

	_, msg := e.Dispatch(context.Background(), "help", s)
	assert.Contains(t, msg, Hint(QuotaExceeded))
	assert.NotContains(t, msg, QuotaNotice)
}

// blockingModel holds Interpret until release is closed.
type blockingModel struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingModel) Interpret(ctx context.Context, _ string, _ *table.Snapshot) (perception.Interpretation, error) {
	close(b.entered)
	<-b.release
	return perception.Interpretation{Intent: actions.NoOp{}, Message: "done"}, nil
}

func TestDispatch_BusyWhileInFlight(t *testing.T) {
	model := &blockingModel{entered: make(chan struct{}), release: make(chan struct{})}
	e := New(WithModel(model))
	s := table.Seed(func() string { return "id" })

	var wg sync.WaitGroup
	wg.Add(1)
	var first string
	go func() {
		defer wg.Done()
		_, first = e.Dispatch(context.Background(), "slow", s)
	}()

	<-model.entered
	out, msg := e.Dispatch(context.Background(), "add row 1, 2, 3", s)
	assert.Nil(t, out)
	assert.Equal(t, BusyMessage, msg)
	assert.Equal(t, Configured, e.Status())

	close(model.release)
	wg.Wait()
	assert.Equal(t, "done", first)
	assert.Equal(t, int64(1), e.Stats().ByOutcome[usage.OutcomeBusy])
}

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		key      string
		want     ProviderState
	}{
		{"no key", "gemini", "", NotConfigured},
		{"placeholder", "openai", "your-api-key-here", NotConfigured},
		{"openai", "openai", "sk-live-abc", Configured},
		{"openrouter", "openrouter", "sk-or-v1-abc", Configured},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.LLM.Provider = tt.provider
			cfg.LLM.APIKey = tt.key

			e := NewFromConfig(context.Background(), cfg)
			assert.Equal(t, tt.want, e.Status())
		})
	}
}

func TestNewFromConfig_SeededFill(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Table.RandomSeed = 5
	cfg.Table.FillMin, cfg.Table.FillMax = 3, 3

	e := NewFromConfig(context.Background(), cfg)
	s, err := e.NewTable(cfg.Table.Headers, cfg.Table.Rows)
	require.NoError(t, err)

	out, _ := e.Dispatch(context.Background(), "add column Extra", s)
	require.NotNil(t, out)
	assert.Equal(t, "Extra", out.Headers[3])
	for r := range out.Rows {
		assert.Equal(t, 3, out.Rows[r][3].Value)
	}
}
