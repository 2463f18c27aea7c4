package agent

import (
	"context"
	"testing"
	"time"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/bus"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/config"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/domain"
)

func testModelCfg() config.ModelConfig {
	return config.ModelConfig{
		Name:        "base-model",
		RoutingTier: "fast",
		Tiers: map[string]config.TierConfig{
			"fast": {Model: "fast-model"},
			"deep": {Model: "deep-model", Reasoning: "high"},
		},
	}
}

func TestSkillRoutingAppliesDefaultTier(t *testing.T) {
	stage := NewSkillRoutingStage(testModelCfg())
	tc := newTestContext()

	stage.Run(context.Background(), tc)

	if tc.ModelTier != "fast" || tc.Model != "fast-model" {
		t.Errorf("tier=%q model=%q, want fast/fast-model", tc.ModelTier, tc.Model)
	}
}

func TestSkillRoutingConsumesContinuation(t *testing.T) {
	stage := NewSkillRoutingStage(testModelCfg())
	tc := newTestContext()
	tc.ModelTier = "fast"
	tc.RequestContinuation("deep", "model asked")

	stage.Run(context.Background(), tc)

	if tc.ModelTier != "deep" || tc.Model != "deep-model" || tc.Reasoning != "high" {
		t.Errorf("tier=%q model=%q reasoning=%q", tc.ModelTier, tc.Model, tc.Reasoning)
	}
	if tc.ContinuationPending() {
		t.Errorf("continuation must be consumed by routing")
	}
}

func TestSkillRoutingUnknownTierFallsBackToBaseModel(t *testing.T) {
	stage := NewSkillRoutingStage(testModelCfg())
	tc := newTestContext()
	tc.RequestContinuation("nonexistent", "")

	stage.Run(context.Background(), tc)

	if tc.Model != "base-model" {
		t.Errorf("model = %q, want base-model fallback", tc.Model)
	}
}

func TestResponseRoutingPublishesAndMarksDelivered(t *testing.T) {
	msgBus := bus.NewMessageBus()
	stage := NewResponseRoutingStage(msgBus)
	tc := newTestContext()
	tc.TaskID = "task-42"
	tc.SetResponse(&domain.OutgoingResponse{Text: "hello back", VoiceRequested: true, VoiceText: "hello back"})

	got := make(chan *bus.OutboundMessage, 1)
	msgBus.Subscribe("cli", func(m *bus.OutboundMessage) { got <- m })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go msgBus.DispatchOutbound(ctx)

	stage.Run(ctx, tc)

	select {
	case out := <-got:
		if out.Content != "hello back" || out.TaskID != "task-42" || !out.VoiceRequested {
			t.Errorf("outbound = %+v", out)
		}
	case <-time.After(time.Second):
		t.Fatal("no outbound message published")
	}
	if !tc.Delivered() {
		t.Errorf("turn not marked delivered")
	}
}

func TestResponseRoutingSkipsBlankText(t *testing.T) {
	msgBus := bus.NewMessageBus()
	stage := NewResponseRoutingStage(msgBus)
	tc := newTestContext()
	tc.SetResponse(domain.TextOnly("   "))

	stage.Run(context.Background(), tc)

	if tc.Delivered() {
		t.Errorf("blank response must not count as delivery")
	}
	if msgBus.OutboundSize() != 0 {
		t.Errorf("blank response must not be published")
	}
}

func TestResponseRoutingNotApplicableTwice(t *testing.T) {
	stage := NewResponseRoutingStage(bus.NewMessageBus())
	tc := newTestContext()
	tc.SetResponse(domain.TextOnly("once"))
	tc.MarkDelivered()

	if stage.Applicable(tc) {
		t.Errorf("routing must not publish a second time")
	}
}
