package agent

import (
	"context"
	"strings"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/config"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/domain"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/i18n"
)

// voicePrefix marks a final answer the model wants spoken aloud.
const voicePrefix = "\U0001F50A" // 🔊

// ResponsePreparationStage turns the tool loop result into the single
// outgoing response of the turn: limit notices for budget stops, an error
// notice for model faults, and voice promotion for spoken replies.
type ResponsePreparationStage struct {
	turnCfg config.TurnConfig
	catalog *i18n.Catalog
}

// NewResponsePreparationStage wires the preparation stage.
func NewResponsePreparationStage(turnCfg config.TurnConfig, catalog *i18n.Catalog) *ResponsePreparationStage {
	return &ResponsePreparationStage{turnCfg: turnCfg, catalog: catalog}
}

func (s *ResponsePreparationStage) Name() string  { return "response-preparation" }
func (s *ResponsePreparationStage) Order() int    { return 58 }
func (s *ResponsePreparationStage) Enabled() bool { return true }

// Applicable skips turns that already have a response or are about to run
// another iteration.
func (s *ResponsePreparationStage) Applicable(tc *TurnContext) bool {
	return tc.Response() == nil && !tc.ContinuationPending()
}

func (s *ResponsePreparationStage) Run(_ context.Context, tc *TurnContext) error {
	switch {
	case tc.LLMError != nil:
		// Error notices stay out of the model-visible history.
		tc.SetResponse(&domain.OutgoingResponse{
			Text:        s.catalog.Message("system.error.llm"),
			SkipHistory: true,
		})
	case tc.StopReason != domain.StopNone:
		tc.SetResponse(domain.TextOnly(s.limitMessage(tc)))
	case tc.Finalized:
		tc.SetResponse(s.finalResponse(tc))
	}
	return nil
}

func (s *ResponsePreparationStage) limitMessage(tc *TurnContext) string {
	switch tc.StopReason {
	case domain.StopMaxModelCalls:
		return s.catalog.Message("system.toolloop.limit.maxLlmCalls", s.maxCalls())
	case domain.StopMaxToolExecutions:
		return s.catalog.Message("system.toolloop.limit.maxToolExecutions", s.maxExecs())
	case domain.StopDeadline:
		minutes := int(s.turnCfg.Deadline.Minutes())
		if minutes < 1 {
			minutes = 1
		}
		return s.catalog.Message("system.toolloop.limit.deadline", minutes)
	case domain.StopPolicy:
		return s.catalog.Message("system.error.feedback", tc.StopDetail)
	default:
		return s.catalog.Message("system.toolloop.limit.unknown")
	}
}

func (s *ResponsePreparationStage) finalResponse(tc *TurnContext) *domain.OutgoingResponse {
	text := tc.FinalContent
	if strings.TrimSpace(text) == "" {
		// The loop finalized without content despite retries. Record the
		// anomaly and fall back to a generic notice so the user still hears
		// back.
		tc.AddFailure(domain.FailureSourceModel, s.Name(), domain.FailureValidation,
			"final response was empty")
		return domain.TextOnly(s.catalog.Message("system.error.generic.feedback"))
	}

	resp := &domain.OutgoingResponse{
		Text: text,
		Hints: map[string]any{
			"model":        tc.Model,
			"tier":         tc.ModelTier,
			"model_calls":  tc.ModelCalls,
			"total_tokens": tc.TokensUsed,
		},
	}
	if strings.HasPrefix(text, voicePrefix) {
		stripped := strings.TrimSpace(strings.TrimPrefix(text, voicePrefix))
		if stripped != "" {
			resp.Text = stripped
			resp.VoiceRequested = true
			resp.VoiceText = stripped
		}
	}
	if s.turnCfg.AutoVoiceReply && tc.Inbound.Voice && !resp.VoiceRequested {
		resp.VoiceRequested = true
		resp.VoiceText = resp.Text
	}
	return resp
}

func (s *ResponsePreparationStage) maxCalls() int {
	if s.turnCfg.MaxModelCalls > 0 {
		return s.turnCfg.MaxModelCalls
	}
	return 20
}

func (s *ResponsePreparationStage) maxExecs() int {
	if s.turnCfg.MaxToolExecutions > 0 {
		return s.turnCfg.MaxToolExecutions
	}
	return 50
}
