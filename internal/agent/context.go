// Package agent implements the turn engine: the per-message orchestrator,
// the staged pipeline, and the bounded tool loop.
package agent

import (
	"time"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/bus"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/domain"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/session"
)

// ContinuationRequest asks the orchestrator to run another pipeline
// iteration, typically with a different skill/tier.
type ContinuationRequest struct {
	Skill  string
	Reason string
}

// TurnContext carries all per-turn state through the pipeline. It lives for
// the whole turn, across iterations; per-iteration loop results are reset by
// the orchestrator between iterations.
type TurnContext struct {
	Inbound *bus.InboundMessage
	Session *session.Session
	TaskID  string

	// View is the working message history for this turn: the session history
	// at turn start plus everything appended during the turn.
	View []domain.Message

	Iteration     int
	MaxIterations int

	ModelTier    string
	Model        string
	Reasoning    string
	SystemPrompt string

	// ToolOutcomes maps tool call id to its recorded outcome. A real outcome
	// is never overwritten by a synthesized one.
	ToolOutcomes map[string]domain.ToolOutcome

	Failures   []domain.FailureEvent
	Attributes map[string]any

	// Per-iteration tool loop result.
	LLMError     error
	StopReason   domain.StopReason
	StopDetail   string
	FinalContent string
	Finalized    bool

	ModelCalls     int
	ToolExecutions int
	TokensUsed     int
	StartedAt      time.Time

	response     *domain.OutgoingResponse
	delivered    bool
	continuation *ContinuationRequest
}

// NewTurnContext builds a turn context for one inbound message over its
// session. The view starts as a copy of the session history.
func NewTurnContext(msg *bus.InboundMessage, sess *session.Session) *TurnContext {
	return &TurnContext{
		Inbound:      msg,
		Session:      sess,
		View:         sess.History(),
		ToolOutcomes: make(map[string]domain.ToolOutcome),
		Attributes:   make(map[string]any),
		StartedAt:    time.Now(),
	}
}

// SetResponse records the outgoing response. At most one response exists per
// turn; a second call is ignored and reported via the return value.
func (tc *TurnContext) SetResponse(r *domain.OutgoingResponse) bool {
	if tc.response != nil {
		return false
	}
	tc.response = r
	return true
}

// Response returns the outgoing response, or nil when none is set.
func (tc *TurnContext) Response() *domain.OutgoingResponse {
	return tc.response
}

// MarkDelivered flags that a user-visible response has been published.
func (tc *TurnContext) MarkDelivered() { tc.delivered = true }

// Delivered reports whether a user-visible response was published.
func (tc *TurnContext) Delivered() bool { return tc.delivered }

// AddFailure records a failure event without interrupting the turn.
func (tc *TurnContext) AddFailure(source domain.FailureSource, component string, kind domain.FailureKind, message string) {
	tc.Failures = append(tc.Failures, domain.FailureEvent{
		Source:    source,
		Component: component,
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// RecordOutcome stores a tool outcome. A synthesized outcome never replaces
// an already recorded real one; recording twice is otherwise last-write-wins.
func (tc *TurnContext) RecordOutcome(o domain.ToolOutcome) bool {
	if existing, ok := tc.ToolOutcomes[o.ToolCallID]; ok {
		if o.Synthesized && !existing.Synthesized {
			return false
		}
	}
	tc.ToolOutcomes[o.ToolCallID] = o
	return true
}

// HasOutcome reports whether an outcome is recorded for the tool call id.
func (tc *TurnContext) HasOutcome(callID string) bool {
	_, ok := tc.ToolOutcomes[callID]
	return ok
}

// RequestContinuation asks for another pipeline iteration.
func (tc *TurnContext) RequestContinuation(skill, reason string) {
	tc.continuation = &ContinuationRequest{Skill: skill, Reason: reason}
}

// ContinuationPending reports whether a continuation has been requested.
func (tc *TurnContext) ContinuationPending() bool {
	return tc.continuation != nil
}

// TakeContinuation consumes and returns the pending continuation request.
func (tc *TurnContext) TakeContinuation() *ContinuationRequest {
	c := tc.continuation
	tc.continuation = nil
	return c
}

// ResetIteration clears per-iteration loop results while keeping the view,
// outcomes, failures, and response across iterations.
func (tc *TurnContext) ResetIteration() {
	tc.LLMError = nil
	tc.StopReason = domain.StopNone
	tc.StopDetail = ""
	tc.FinalContent = ""
	tc.Finalized = false
}

// AppendView adds a message to the working view.
func (tc *TurnContext) AppendView(msg domain.Message) {
	tc.View = append(tc.View, msg)
}
