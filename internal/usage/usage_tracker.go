package usage

import (
	"context"
	"sync"
	"time"
)

type contextKey struct{}

// Tracker records dispatch and provider call statistics for one session.
// Nothing is persisted.
type Tracker struct {
	mu   sync.Mutex
	data AggregatedStats
	now  func() time.Time
	last *DispatchEvent
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		now: time.Now,
		data: AggregatedStats{
			ByRoute:   make(map[Route]int64),
			ByOutcome: make(map[Outcome]int64),
			ByResult:  make(map[CallResult]int64),
			ByModel:   make(map[string]CallCounts),
		},
	}
}

// TrackDispatch records a handled command.
func (t *Tracker) TrackDispatch(route Route, outcome Outcome, fallback bool) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data.Dispatches++
	if route != "" {
		t.data.ByRoute[route]++
	}
	t.data.ByOutcome[outcome]++
	if fallback {
		t.data.Fallbacks++
	}
	t.last = &DispatchEvent{Timestamp: t.now(), Route: route, Outcome: outcome, Fallback: fallback}
}

// TrackCall records one provider round trip.
func (t *Tracker) TrackCall(call ProviderCall) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data.Calls.Add(call.Latency)
	t.data.ByResult[call.Result]++
	if call.Model != "" {
		addToMap(t.data.ByModel, call.Model, call.Latency)
	}
}

// LastDispatch returns the most recent dispatch, if any.
func (t *Tracker) LastDispatch() (DispatchEvent, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return DispatchEvent{}, false
	}
	return *t.last, true
}

// Stats returns a copy of the aggregated stats.
func (t *Tracker) Stats() AggregatedStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.data
	stats.ByRoute = copyMap(stats.ByRoute)
	stats.ByOutcome = copyMap(stats.ByOutcome)
	stats.ByResult = copyMap(stats.ByResult)
	stats.ByModel = copyMap(stats.ByModel)
	return stats
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	if src == nil {
		return nil
	}
	dst := make(map[K]V, len(src))
	for key, v := range src {
		dst[key] = v
	}
	return dst
}

func addToMap(m map[string]CallCounts, key string, latency time.Duration) {
	entry := m[key]
	entry.Add(latency)
	m[key] = entry
}

// Context Helpers

// NewContext returns a new context carrying the tracker.
func NewContext(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext retrieves the tracker from the context. A nil tracker is safe
// to record on.
func FromContext(ctx context.Context) *Tracker {
	val, _ := ctx.Value(contextKey{}).(*Tracker)
	return val
}
