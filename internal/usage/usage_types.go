package usage

import "time"

// Route names the interpreter that handled a dispatch.
type Route string

const (
	RouteModel Route = "model"
	RouteRules Route = "rules"
)

// Outcome is what a dispatch did to the table.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"  // New snapshot produced
	OutcomeRejected Outcome = "rejected" // Execution failed, table untouched
	OutcomeNoOp     Outcome = "noop"     // Help, guidance or unrecognized
	OutcomeBusy     Outcome = "busy"     // Another dispatch was in flight
)

// CallResult classifies one provider round trip.
type CallResult string

const (
	CallOK                CallResult = "ok"
	CallQuotaExceeded     CallResult = "quota_exceeded"
	CallUnavailable       CallResult = "unavailable"
	CallMalformedResponse CallResult = "malformed_response"
)

// DispatchEvent represents a single handled command.
type DispatchEvent struct {
	Timestamp time.Time
	Route     Route
	Outcome   Outcome
	Fallback  bool // Model path failed and rules answered
}

// ProviderCall represents a single model request.
type ProviderCall struct {
	Timestamp time.Time
	Provider  string
	Model     string
	Result    CallResult
	Latency   time.Duration
}

// AggregatedStats holds counters broken down by various dimensions.
type AggregatedStats struct {
	Dispatches int64                 `json:"dispatches"`
	Fallbacks  int64                 `json:"fallbacks"`
	ByRoute    map[Route]int64       `json:"by_route"`
	ByOutcome  map[Outcome]int64     `json:"by_outcome"`
	Calls      CallCounts            `json:"calls"`
	ByResult   map[CallResult]int64  `json:"by_result"`
	ByModel    map[string]CallCounts `json:"by_model"`
}

// CallCounts holds provider call sums.
type CallCounts struct {
	Count   int64         `json:"count"`
	Latency time.Duration `json:"latency"`
}

// Add records one call.
func (cc *CallCounts) Add(latency time.Duration) {
	cc.Count++
	cc.Latency += latency
}

// AverageLatency returns the mean call latency, zero when nothing was recorded.
func (cc CallCounts) AverageLatency() time.Duration {
	if cc.Count == 0 {
		return 0
	}
	return cc.Latency / time.Duration(cc.Count)
}
