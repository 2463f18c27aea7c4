package domain

import "time"

// FailureSource identifies which layer produced a failure event.
type FailureSource string

const (
	FailureSourceSystem    FailureSource = "system-stage"
	FailureSourceModel     FailureSource = "model"
	FailureSourceTool      FailureSource = "tool"
	FailureSourceTransport FailureSource = "transport"
)

// FailureKind classifies a failure event.
type FailureKind string

const (
	FailureException    FailureKind = "exception"
	FailureTimeout      FailureKind = "timeout"
	FailureValidation   FailureKind = "validation"
	FailureRateLimit    FailureKind = "rate-limit"
	FailurePolicyDenied FailureKind = "policy-denied"
	FailureUnknown      FailureKind = "unknown"
)

// FailureEvent records one failure observed during a turn. Events accumulate
// on the turn context and are never overwritten.
type FailureEvent struct {
	Source    FailureSource `json:"source"`
	Component string        `json:"component"`
	Kind      FailureKind   `json:"kind"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
}
