package usage

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestTracker_TrackAggregates(t *testing.T) {
	tracker := NewTracker()

	tracker.TrackDispatch(RouteModel, OutcomeApplied, false)
	tracker.TrackDispatch(RouteRules, OutcomeRejected, true)
	tracker.TrackDispatch(RouteRules, OutcomeNoOp, false)
	tracker.TrackDispatch("", OutcomeBusy, false)

	tracker.TrackCall(ProviderCall{Model: "gemini-2.5-flash", Result: CallOK, Latency: 200 * time.Millisecond})
	tracker.TrackCall(ProviderCall{Model: "gemini-2.5-flash", Result: CallMalformedResponse, Latency: 400 * time.Millisecond})

	stats := tracker.Stats()
	if stats.Dispatches != 4 || stats.Fallbacks != 1 {
		t.Fatalf("Dispatches=%d Fallbacks=%d, want 4 and 1", stats.Dispatches, stats.Fallbacks)
	}
	if got := stats.ByRoute[RouteRules]; got != 2 {
		t.Fatalf("ByRoute[rules]=%d, want 2", got)
	}
	if _, ok := stats.ByRoute[""]; ok {
		t.Fatalf("busy dispatch should not be attributed to a route")
	}
	if got := stats.ByOutcome[OutcomeBusy]; got != 1 {
		t.Fatalf("ByOutcome[busy]=%d, want 1", got)
	}
	if stats.Calls.Count != 2 || stats.Calls.AverageLatency() != 300*time.Millisecond {
		t.Fatalf("Calls=%+v, want count=2 avg=300ms", stats.Calls)
	}
	if got := stats.ByResult[CallMalformedResponse]; got != 1 {
		t.Fatalf("ByResult[malformed]=%d, want 1", got)
	}
	if got := stats.ByModel["gemini-2.5-flash"]; got.Count != 2 {
		t.Fatalf("ByModel=%+v, want count=2", got)
	}

	last, ok := tracker.LastDispatch()
	if !ok || last.Outcome != OutcomeBusy {
		t.Fatalf("LastDispatch=%+v ok=%v, want busy", last, ok)
	}
}

func TestTracker_StatsIsACopy(t *testing.T) {
	tracker := NewTracker()
	tracker.TrackDispatch(RouteRules, OutcomeApplied, false)

	stats := tracker.Stats()
	stats.ByRoute[RouteRules] = 100

	if got := tracker.Stats().ByRoute[RouteRules]; got != 1 {
		t.Fatalf("tracker mutated through Stats copy: %d", got)
	}
}

func TestTracker_NilIsSafe(t *testing.T) {
	var tracker *Tracker
	tracker.TrackDispatch(RouteRules, OutcomeApplied, false)
	tracker.TrackCall(ProviderCall{Result: CallOK})
}

func TestTracker_Concurrent(t *testing.T) {
	tracker := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.TrackCall(ProviderCall{Result: CallUnavailable})
		}()
	}
	wg.Wait()

	if got := tracker.Stats().ByResult[CallUnavailable]; got != 50 {
		t.Fatalf("ByResult[unavailable]=%d, want 50", got)
	}
}

func TestContextRoundTrip(t *testing.T) {
	tracker := NewTracker()
	ctx := NewContext(context.Background(), tracker)

	if FromContext(ctx) != tracker {
		t.Fatalf("FromContext did not return the stored tracker")
	}
	if FromContext(context.Background()) != nil {
		t.Fatalf("FromContext on a bare context should be nil")
	}
}
