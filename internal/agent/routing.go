package agent

import (
	"context"
	"log/slog"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/bus"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/config"
)

// SkillRoutingStage resolves the model tier for the iteration. A pending
// continuation (skill switch) takes precedence; otherwise the configured
// routing tier applies.
type SkillRoutingStage struct {
	modelCfg config.ModelConfig
}

// NewSkillRoutingStage wires the routing stage.
func NewSkillRoutingStage(modelCfg config.ModelConfig) *SkillRoutingStage {
	return &SkillRoutingStage{modelCfg: modelCfg}
}

func (s *SkillRoutingStage) Name() string  { return "skill-routing" }
func (s *SkillRoutingStage) Order() int    { return 10 }
func (s *SkillRoutingStage) Enabled() bool { return true }

func (s *SkillRoutingStage) Applicable(tc *TurnContext) bool { return tc.Response() == nil }

func (s *SkillRoutingStage) Run(_ context.Context, tc *TurnContext) error {
	tier := tc.ModelTier
	if c := tc.TakeContinuation(); c != nil {
		tier = c.Skill
		slog.Info("Continuation applied", "trace_id", tc.Inbound.TraceID, "skill", tier)
	} else if tier == "" {
		tier = s.modelCfg.RoutingTier
	}

	tc.ModelTier = tier
	tc.Model = s.modelCfg.Name
	tc.Reasoning = ""
	if tierCfg, ok := s.modelCfg.Tiers[tier]; ok {
		if tierCfg.Model != "" {
			tc.Model = tierCfg.Model
		}
		tc.Reasoning = tierCfg.Reasoning
	}
	return nil
}

// ResponseRoutingStage publishes the prepared response to the originating
// channel and marks the turn delivered.
type ResponseRoutingStage struct {
	bus *bus.MessageBus
}

// NewResponseRoutingStage wires the routing stage to the bus.
func NewResponseRoutingStage(b *bus.MessageBus) *ResponseRoutingStage {
	return &ResponseRoutingStage{bus: b}
}

func (s *ResponseRoutingStage) Name() string  { return "response-routing" }
func (s *ResponseRoutingStage) Order() int    { return 60 }
func (s *ResponseRoutingStage) Enabled() bool { return s.bus != nil }

func (s *ResponseRoutingStage) Applicable(tc *TurnContext) bool {
	return tc.Response() != nil && !tc.Delivered()
}

func (s *ResponseRoutingStage) Run(_ context.Context, tc *TurnContext) error {
	resp := tc.Response()
	if !resp.HasText() {
		return nil
	}
	out := &bus.OutboundMessage{
		Channel:        tc.Inbound.Channel,
		ChatID:         tc.Inbound.ChatID,
		TraceID:        tc.Inbound.TraceID,
		TaskID:         tc.TaskID,
		Content:        resp.Text,
		VoiceRequested: resp.VoiceRequested,
		VoiceText:      resp.VoiceText,
	}
	for _, a := range resp.Attachments {
		out.Attachments = append(out.Attachments, a.Path)
	}
	s.bus.PublishOutbound(out)
	tc.MarkDelivered()
	return nil
}
