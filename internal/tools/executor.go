package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/domain"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/policy"
)

// Context carries per-turn data into a tool invocation. Tools receive it
// explicitly; there is no ambient per-turn lookup.
type Context struct {
	Ctx         context.Context
	Sender      string
	Channel     string
	ChatID      string
	TraceID     string
	MessageType string
}

const maxOutcomeContentChars = 16384

// Executor implements the tool executor port: it resolves a tool by name,
// enforces policy, runs it with a per-call timeout, and classifies the
// outcome. A returned error means the invocation itself faulted; the caller
// is expected to recover it into a synthetic outcome.
type Executor struct {
	registry    *Registry
	policy      policy.Engine
	callTimeout time.Duration
}

// NewExecutor creates a tool executor over the given registry. A nil policy
// engine allows everything; a zero timeout disables the per-call deadline.
func NewExecutor(registry *Registry, engine policy.Engine, callTimeout time.Duration) *Executor {
	return &Executor{registry: registry, policy: engine, callTimeout: callTimeout}
}

// Execute runs one tool call and returns its outcome. Policy denials and
// tool-reported failures come back as failed (non-synthesized) outcomes, not
// errors; an error is returned only when the call could not be dispatched.
func (e *Executor) Execute(tctx Context, call domain.ToolCall) (domain.ToolOutcome, error) {
	tool, ok := e.registry.Get(call.Name)
	if !ok {
		return domain.ToolOutcome{}, fmt.Errorf("tool not found: %s", call.Name)
	}

	if e.policy != nil {
		decision := e.policy.Evaluate(policy.Context{
			Sender:      tctx.Sender,
			Channel:     tctx.Channel,
			Tool:        call.Name,
			Tier:        ToolTier(tool),
			Arguments:   call.Arguments,
			TraceID:     tctx.TraceID,
			MessageType: tctx.MessageType,
		})
		if !decision.Allow {
			kind := domain.ToolFailurePolicyDenied
			msg := fmt.Sprintf("Policy denied: %s", decision.Reason)
			if decision.RequiresApproval {
				// No interactive approver is wired; treat as a denied
				// confirmation so stop policies can distinguish it.
				kind = domain.ToolFailureConfirmationDenied
				msg = fmt.Sprintf("Confirmation denied: %s", decision.Reason)
			}
			slog.Warn("Tool denied by policy", "tool", call.Name, "reason", decision.Reason)
			return outcome(call, domain.FailureResult(kind, msg)), nil
		}
	}

	ctx := tctx.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if e.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.callTimeout)
		defer cancel()
	}
	tctx.Ctx = ctx

	result, err := tool.Execute(tctx, call.Arguments)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return outcome(call, domain.FailureResult(domain.ToolFailureTimeout,
				fmt.Sprintf("Tool timed out: %v", err))), nil
		}
		return outcome(call, domain.FailureResult(domain.ToolFailureExecutionFailed,
			fmt.Sprintf("Error: %v", err))), nil
	}

	return outcome(call, domain.SuccessResult(result)), nil
}

func outcome(call domain.ToolCall, result domain.ToolResult) domain.ToolOutcome {
	return domain.ToolOutcome{
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Result:     result,
		Content:    truncateContent(result.Output),
	}
}

// truncateContent caps what gets written into history; the full output stays
// on the result payload.
func truncateContent(s string) string {
	if len(s) <= maxOutcomeContentChars {
		return s
	}
	return s[:maxOutcomeContentChars] + "\n[truncated]"
}
