package engine

import "tablechat/internal/perception"

// ProviderState tracks whether the model-backed path may be used.
type ProviderState int

const (
	// NotConfigured means no usable credential was found at startup.
	NotConfigured ProviderState = iota
	// Configured means commands go to the model first.
	Configured
	// QuotaExceeded is sticky for the life of the engine.
	QuotaExceeded
)

func (s ProviderState) String() string {
	switch s {
	case Configured:
		return "configured"
	case QuotaExceeded:
		return "quota_exceeded"
	default:
		return "not_configured"
	}
}

// Label is the short badge text shown in the chat header.
func (s ProviderState) Label() string {
	switch s {
	case Configured:
		return "AI: on"
	case QuotaExceeded:
		return "AI: quota exhausted"
	default:
		return "AI: off"
	}
}

// Outcome is the result of one model attempt.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeQuotaExceeded
	OutcomeUnavailable
	OutcomeMalformed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeQuotaExceeded:
		return "quota_exceeded"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeMalformed:
		return "malformed_response"
	default:
		return "ok"
	}
}

// outcomeFor maps a provider failure kind onto an Outcome.
func outcomeFor(kind perception.FailureKind) Outcome {
	switch kind {
	case perception.QuotaExceeded:
		return OutcomeQuotaExceeded
	case perception.MalformedResponse:
		return OutcomeMalformed
	default:
		return OutcomeUnavailable
	}
}

// NextState is the provider state transition function. Configured moves to
// QuotaExceeded on a quota outcome; every other pair is unchanged.
func NextState(s ProviderState, o Outcome) ProviderState {
	if s == Configured && o == OutcomeQuotaExceeded {
		return QuotaExceeded
	}
	return s
}
