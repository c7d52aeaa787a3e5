// Package engine routes chat commands to the model-backed or rule-based
// interpreter and applies the resulting intent to a table snapshot.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"tablechat/internal/actions"
	"tablechat/internal/config"
	"tablechat/internal/logging"
	"tablechat/internal/perception"
	"tablechat/internal/table"
	"tablechat/internal/usage"
)

// ModelInterpreter turns a command into an intent through an LLM.
type ModelInterpreter interface {
	Interpret(ctx context.Context, text string, s *table.Snapshot) (perception.Interpretation, error)
}

// RuleInterpreter turns a command into an intent deterministically.
type RuleInterpreter interface {
	Interpret(text string, s *table.Snapshot) perception.Interpretation
}

// Engine is the single entry point for chat commands. It owns the provider
// state and never retains a snapshot.
type Engine struct {
	mu    sync.RWMutex
	state ProviderState

	model   ModelInterpreter
	rules   RuleInterpreter
	exec    *actions.Executor
	tracker *usage.Tracker
	sem     *semaphore.Weighted
}

// Option configures an Engine.
type Option func(*Engine)

// WithModel enables the model-backed path; the engine starts Configured.
func WithModel(m ModelInterpreter) Option {
	return func(e *Engine) { e.model = m }
}

// WithRules replaces the rule-based interpreter.
func WithRules(r RuleInterpreter) Option {
	return func(e *Engine) {
		if r != nil {
			e.rules = r
		}
	}
}

// WithExecutor replaces the intent executor.
func WithExecutor(x *actions.Executor) Option {
	return func(e *Engine) {
		if x != nil {
			e.exec = x
		}
	}
}

// WithTracker records statistics into t instead of a private tracker.
func WithTracker(t *usage.Tracker) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracker = t
		}
	}
}

// New creates an engine. Without WithModel it starts NotConfigured.
func New(opts ...Option) *Engine {
	e := &Engine{
		rules:   perception.NewRuleInterpreter(),
		exec:    actions.NewExecutor(),
		tracker: usage.NewTracker(),
		sem:     semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.model != nil {
		e.state = Configured
	}
	return e
}

// NewFromConfig builds the executor from the table section and, when the
// credential is usable, a model interpreter for the configured provider.
// Credentials are evaluated here once. A client that cannot be constructed
// leaves the engine NotConfigured.
func NewFromConfig(ctx context.Context, cfg *config.Config) *Engine {
	log := logging.Boot()

	seed := cfg.Table.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	opts := []Option{
		WithExecutor(actions.NewExecutor(
			actions.WithRand(rand.New(rand.NewSource(seed))),
			actions.WithFillRange(cfg.Table.FillMin, cfg.Table.FillMax),
		)),
	}

	if cfg.LLM.HasCredential() {
		client, err := perception.NewClientFromConfig(ctx, cfg)
		if err != nil {
			log.Warn("LLM client unavailable, using rule-based commands only", zap.String("provider", cfg.LLM.Provider), zap.Error(err))
		} else {
			opts = append(opts, WithModel(perception.NewModelInterpreter(client, cfg.LLM.Provider)))
		}
	} else {
		log.Info("no usable LLM credential, using rule-based commands only", zap.String("provider", cfg.LLM.Provider))
	}

	e := New(opts...)
	log.Info("engine ready", zap.Stringer("state", e.Status()), zap.String("model", cfg.LLM.ResolvedModel()))
	return e
}

// Status returns the current provider state. Safe for concurrent use.
func (e *Engine) Status() ProviderState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Stats returns a copy of the dispatch and provider call counters.
func (e *Engine) Stats() usage.AggregatedStats {
	return e.tracker.Stats()
}

// NewTable builds a snapshot whose cell ids come from the engine's executor.
func (e *Engine) NewTable(headers []string, values [][]int) (*table.Snapshot, error) {
	return table.New(headers, values, e.exec.NewID)
}

// Dispatch interprets text against s and returns the new snapshot (nil when
// nothing changed) and the reply. It never fails. A call made while another
// is in flight returns BusyMessage.
func (e *Engine) Dispatch(ctx context.Context, text string, s *table.Snapshot) (*table.Snapshot, string) {
	if !e.sem.TryAcquire(1) {
		e.tracker.TrackDispatch("", usage.OutcomeBusy, false)
		return nil, BusyMessage
	}
	defer e.sem.Release(1)

	ctx = usage.NewContext(ctx, e.tracker)
	state := e.Status()
	log := logging.Engine().With(zap.Stringer("state", state))

	if state != Configured {
		out, msg, outcome := e.applyRules(text, s, state)
		if state == QuotaExceeded {
			msg = withQuotaNotice(msg)
		}
		e.tracker.TrackDispatch(usage.RouteRules, outcome, false)
		log.Debug("dispatch", zap.String("route", string(usage.RouteRules)), zap.String("outcome", string(outcome)))
		return out, msg
	}

	interp, err := e.model.Interpret(ctx, text, s)
	if err == nil {
		e.advance(OutcomeOK)
		out, msg, outcome := e.applyModel(interp, s)
		e.tracker.TrackDispatch(usage.RouteModel, outcome, false)
		log.Debug("dispatch", zap.String("route", string(usage.RouteModel)), zap.String("outcome", string(outcome)))
		return out, msg
	}

	result := outcomeFor(perception.ClassifyProviderError(err))
	next := e.advance(result)
	log.Info("model path failed, falling back to rules", zap.Stringer("outcome", result), zap.Error(err))

	out, msg, outcome := e.applyRules(text, s, next)
	switch result {
	case OutcomeQuotaExceeded:
		msg = withQuotaNotice(msg)
	case OutcomeMalformed:
		msg = appendLine(msg, MalformedNotice)
	default:
		msg = appendLine(msg, UnavailableNotice)
	}
	e.tracker.TrackDispatch(usage.RouteRules, outcome, true)
	return out, msg
}

// advance applies NextState under the write lock and returns the new state.
func (e *Engine) advance(o Outcome) ProviderState {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := NextState(e.state, o)
	if next != e.state {
		logging.Engine().Warn("provider state changed", zap.Stringer("from", e.state), zap.Stringer("to", next))
		e.state = next
	}
	return next
}

func (e *Engine) applyRules(text string, s *table.Snapshot, state ProviderState) (*table.Snapshot, string, usage.Outcome) {
	interp := e.rules.Interpret(text, s)
	if !actions.Mutates(interp.Intent) {
		msg := interp.Message
		if interp.Guidance {
			msg = appendLine(msg, Hint(state))
		}
		return nil, msg, usage.OutcomeNoOp
	}

	out, err := e.exec.Apply(interp.Intent, s)
	if err != nil {
		return nil, actions.UserMessage(err), usage.OutcomeRejected
	}
	return out, interp.Message, usage.OutcomeApplied
}

func (e *Engine) applyModel(interp perception.Interpretation, s *table.Snapshot) (*table.Snapshot, string, usage.Outcome) {
	if !actions.Mutates(interp.Intent) {
		msg := interp.Message
		if msg == "" {
			msg = perception.Describe(interp.Intent)
		}
		return nil, msg, usage.OutcomeNoOp
	}

	out, err := e.exec.Apply(interp.Intent, s)
	if err != nil {
		reason := actions.UserMessage(err)
		if interp.Message == "" {
			return nil, "The requested change could not be applied. " + reason, usage.OutcomeRejected
		}
		return nil, interp.Message + "\n\nThe change was not applied: " + reason, usage.OutcomeRejected
	}

	msg := interp.Message
	if msg == "" {
		msg = perception.Describe(interp.Intent)
	}
	return out, msg, usage.OutcomeApplied
}
