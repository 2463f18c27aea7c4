package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/config"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/domain"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/journal"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/provider"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/tools"
)

// maxEmptyFinalRetries bounds re-asking the model when it produces neither
// tool calls nor text.
const maxEmptyFinalRetries = 2

// ToolLoopStage runs the bounded model/tool loop. Three budgets apply: a
// model call cap, a tool execution cap, and a wall-clock deadline sampled
// once at entry. Budgets are re-checked before every model call, including
// right after a round of tool executions, so an exhausted budget never lets
// another model call start. Tool calls left unexecuted by a stop get
// synthetic outcomes so every requested call id has exactly one recorded
// outcome.
type ToolLoopStage struct {
	provider provider.LLMProvider
	executor *tools.Executor
	registry *tools.Registry
	turnCfg  config.TurnConfig
	modelCfg config.ModelConfig
	recorder *Recorder
	history  historyWriter
	now      func() time.Time
}

// NewToolLoopStage wires the tool loop.
func NewToolLoopStage(p provider.LLMProvider, ex *tools.Executor, reg *tools.Registry,
	turnCfg config.TurnConfig, modelCfg config.ModelConfig, rec *Recorder) *ToolLoopStage {
	return &ToolLoopStage{
		provider: p,
		executor: ex,
		registry: reg,
		turnCfg:  turnCfg,
		modelCfg: modelCfg,
		recorder: rec,
		now:      time.Now,
	}
}

func (s *ToolLoopStage) Name() string  { return "tool-loop" }
func (s *ToolLoopStage) Order() int    { return 50 }
func (s *ToolLoopStage) Enabled() bool { return s.provider != nil && s.provider.Available() }

// Applicable requires an unanswered turn whose view ends in a user message
// or a tool result (the latter happens after a skill-switch continuation).
func (s *ToolLoopStage) Applicable(tc *TurnContext) bool {
	if tc.Response() != nil || tc.Finalized {
		return false
	}
	if len(tc.View) == 0 {
		return false
	}
	last := tc.View[len(tc.View)-1]
	return last.IsUserMessage() || last.IsToolMessage()
}

func (s *ToolLoopStage) Run(ctx context.Context, tc *TurnContext) error {
	deadline := s.now().Add(s.turnCfg.Deadline)
	maxCalls := s.turnCfg.MaxModelCalls
	if maxCalls <= 0 {
		maxCalls = 20
	}
	maxExecs := s.turnCfg.MaxToolExecutions
	if maxExecs <= 0 {
		maxExecs = 50
	}

	var (
		llmCalls     int
		toolExecs    int
		pending      []domain.ToolCall
		emptyRetries int
	)

	for {
		if reason, detail := s.budgetStop(llmCalls, toolExecs, maxCalls, maxExecs, deadline); reason != domain.StopNone {
			s.stopLoop(tc, pending, reason, detail)
			return nil
		}

		if len(pending) > 0 {
			remaining, reason, detail := s.executeRound(ctx, tc, pending, &toolExecs)
			pending = nil
			if reason != domain.StopNone {
				s.stopLoop(tc, remaining, reason, detail)
				return nil
			}
			if tc.ContinuationPending() {
				// A control tool consumed the round; the outer iteration
				// re-enters the loop under the new skill.
				return nil
			}
			// The round consumed tool budget and wall-clock time; re-check
			// before the next model call.
			continue
		}

		resp, err := s.callModel(ctx, tc)
		llmCalls++
		tc.ModelCalls++
		if err != nil {
			tc.LLMError = err
			kind := domain.FailureException
			if errors.Is(err, context.DeadlineExceeded) {
				kind = domain.FailureTimeout
			}
			tc.AddFailure(domain.FailureSourceModel, s.Name(), kind, err.Error())
			slog.Error("Model call failed", "trace_id", tc.Inbound.TraceID, "error", err)
			return nil
		}

		if !resp.HasToolCalls() {
			if strings.TrimSpace(resp.Content) == "" && emptyRetries < maxEmptyFinalRetries {
				emptyRetries++
				slog.Warn("Model returned empty final response, retrying",
					"trace_id", tc.Inbound.TraceID, "attempt", emptyRetries)
				continue
			}
			tc.FinalContent = resp.Content
			tc.Finalized = true
			if strings.TrimSpace(resp.Content) != "" {
				s.history.appendFinalAssistant(tc, resp.Content)
			}
			return nil
		}

		s.history.appendAssistantToolCalls(tc, resp.Content, resp.ToolCalls)
		pending = resp.ToolCalls
	}
}

// budgetStop evaluates the three budgets. The deadline is never used to
// cancel work already in flight; it only prevents new rounds.
func (s *ToolLoopStage) budgetStop(llmCalls, toolExecs, maxCalls, maxExecs int, deadline time.Time) (domain.StopReason, string) {
	if llmCalls >= maxCalls {
		return domain.StopMaxModelCalls, fmt.Sprintf("reached max internal LLM calls (%d)", maxCalls)
	}
	if toolExecs >= maxExecs {
		return domain.StopMaxToolExecutions, fmt.Sprintf("reached max tool executions (%d)", maxExecs)
	}
	if !s.now().Before(deadline) {
		return domain.StopDeadline, "deadline exceeded"
	}
	return domain.StopNone, ""
}

// executeRound runs the pending tool calls sequentially. A stop policy match
// aborts the round and returns the calls that never ran.
func (s *ToolLoopStage) executeRound(ctx context.Context, tc *TurnContext, pending []domain.ToolCall, toolExecs *int) ([]domain.ToolCall, domain.StopReason, string) {
	for i, call := range pending {
		if tc.HasOutcome(call.ID) {
			continue
		}
		if call.Name == tools.SwitchSkillToolName {
			s.interceptSkillSwitch(tc, call)
			continue
		}

		s.recorder.Event(tc, journal.EventToolStarted, map[string]any{
			"tool": call.Name, "call_id": call.ID,
		})
		started := s.now()

		outcome, err := s.executor.Execute(tools.Context{
			Ctx:         ctx,
			Sender:      tc.Inbound.SenderID,
			Channel:     tc.Inbound.Channel,
			ChatID:      tc.Inbound.ChatID,
			TraceID:     tc.Inbound.TraceID,
			MessageType: tc.Inbound.MessageType(),
		}, call)
		if err != nil {
			outcome = domain.SyntheticOutcome(call, domain.ToolFailureExecutionFailed,
				fmt.Sprintf("Error: %v", err))
		}
		*toolExecs++
		tc.ToolExecutions++
		tc.RecordOutcome(outcome)
		s.history.appendToolResult(tc, outcome)

		s.recorder.Event(tc, journal.EventToolFinished, map[string]any{
			"tool": call.Name, "call_id": call.ID, "success": outcome.Result.Success,
		})
		s.recorder.Span(ctx, tc, "TOOL", call.Name, outcome.Content, started, map[string]string{
			"success": fmt.Sprintf("%t", outcome.Result.Success),
		})

		if outcome.Result.Success {
			continue
		}
		if detail := s.stopPolicyFor(outcome); detail != "" {
			return pending[i+1:], domain.StopPolicy, detail
		}
	}
	return nil, domain.StopNone, ""
}

// stopPolicyFor maps a failed outcome to a stop detail when the matching
// stop policy is enabled. Specific denial policies win over the generic
// tool-failure policy.
func (s *ToolLoopStage) stopPolicyFor(outcome domain.ToolOutcome) string {
	switch outcome.Result.FailureKind {
	case domain.ToolFailureConfirmationDenied:
		if s.turnCfg.StopOnConfirmationDenied {
			return "confirmation denied"
		}
	case domain.ToolFailurePolicyDenied:
		if s.turnCfg.StopOnPolicyDenied {
			return "tool denied by policy"
		}
	}
	if s.turnCfg.StopOnToolFailure {
		return fmt.Sprintf("tool failure (%s)", outcome.ToolName)
	}
	return ""
}

// interceptSkillSwitch handles the skill-switch control tool without
// executing it: a success outcome is synthesized and a continuation is
// requested so the outer iteration re-routes the model tier.
func (s *ToolLoopStage) interceptSkillSwitch(tc *TurnContext, call domain.ToolCall) {
	skill := tools.GetString(call.Arguments, "skill", "")
	if strings.TrimSpace(skill) == "" {
		outcome := domain.SyntheticOutcome(call, domain.ToolFailureValidation,
			"Error: skill parameter is required")
		tc.RecordOutcome(outcome)
		s.history.appendToolResult(tc, outcome)
		return
	}
	outcome := domain.ToolOutcome{
		ToolCallID:  call.ID,
		ToolName:    call.Name,
		Result:      domain.SuccessResult("Switching to skill: " + skill),
		Content:     "Switching to skill: " + skill,
		Synthesized: true,
	}
	tc.RecordOutcome(outcome)
	s.history.appendToolResult(tc, outcome)
	tc.RequestContinuation(skill, "model requested skill switch")
	slog.Info("Skill switch requested", "trace_id", tc.Inbound.TraceID, "skill", skill)
}

// stopLoop records the stop and synthesizes outcomes for calls that never
// ran. Already recorded outcomes are never overwritten. A closing assistant
// message documents the stop in history; the user-visible notice is built
// downstream from the stop reason.
func (s *ToolLoopStage) stopLoop(tc *TurnContext, unresolved []domain.ToolCall, reason domain.StopReason, detail string) {
	msg := "Tool loop stopped: " + detail + "."
	kind := domain.ToolFailureExecutionFailed
	if reason == domain.StopDeadline {
		kind = domain.ToolFailureTimeout
	}
	for _, call := range unresolved {
		if tc.HasOutcome(call.ID) {
			continue
		}
		outcome := domain.SyntheticOutcome(call, kind, msg)
		tc.RecordOutcome(outcome)
		s.history.appendToolResult(tc, outcome)
	}
	s.history.appendFinalAssistant(tc, msg)
	tc.StopReason = reason
	tc.StopDetail = detail
	tc.Finalized = true
	slog.Info("Tool loop stopped", "trace_id", tc.Inbound.TraceID, "reason", string(reason), "detail", detail)
}

func (s *ToolLoopStage) callModel(ctx context.Context, tc *TurnContext) (*provider.ChatResponse, error) {
	model := tc.Model
	if model == "" {
		model = s.modelCfg.Name
	}
	if model == "" {
		model = s.provider.DefaultModel()
	}

	s.recorder.Event(tc, journal.EventLLMStarted, map[string]any{"model": model})
	started := s.now()

	resp, err := s.provider.Chat(ctx, &provider.ChatRequest{
		SystemPrompt: tc.SystemPrompt,
		Messages:     maskHistory(tc.View),
		Tools:        s.registry.Definitions(),
		ToolOutcomes: tc.ToolOutcomes,
		Model:        model,
		Reasoning:    tc.Reasoning,
		MaxTokens:    s.modelCfg.MaxTokens,
		Temperature:  s.modelCfg.Temperature,
	})
	if err != nil {
		s.recorder.Event(tc, journal.EventLLMFinished, map[string]any{
			"model": model, "error": err.Error(),
		})
		return nil, err
	}

	tc.TokensUsed += resp.Usage.TotalTokens
	s.recorder.Event(tc, journal.EventLLMFinished, map[string]any{
		"model":         model,
		"finish_reason": resp.FinishReason,
		"total_tokens":  resp.Usage.TotalTokens,
	})
	s.recorder.Span(ctx, tc, "LLM", model, "", started, map[string]string{
		"finish_reason": resp.FinishReason,
		"total_tokens":  fmt.Sprintf("%d", resp.Usage.TotalTokens),
	})
	return resp, nil
}
