package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/config"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/domain"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/i18n"
)

func newPrepStage(turnCfg config.TurnConfig) *ResponsePreparationStage {
	return NewResponsePreparationStage(turnCfg, i18n.NewCatalog("en"))
}

func TestPreparationBuildsFinalResponse(t *testing.T) {
	stage := newPrepStage(config.TurnConfig{})
	tc := newTestContext()
	tc.Finalized = true
	tc.FinalContent = "here you go"
	tc.Model = "gpt-4o"
	tc.ModelCalls = 2
	tc.TokensUsed = 321

	stage.Run(context.Background(), tc)

	resp := tc.Response()
	if resp == nil || resp.Text != "here you go" {
		t.Fatalf("response = %+v", resp)
	}
	if resp.VoiceRequested {
		t.Errorf("no voice expected for a plain answer")
	}
	if resp.Hints["model"] != "gpt-4o" || resp.Hints["model_calls"] != 2 {
		t.Errorf("hints incomplete: %+v", resp.Hints)
	}
	if resp.Hints["total_tokens"] != 321 {
		t.Errorf("token usage missing from hints: %+v", resp.Hints)
	}
}

func TestPreparationPromotesVoicePrefix(t *testing.T) {
	stage := newPrepStage(config.TurnConfig{})
	tc := newTestContext()
	tc.Finalized = true
	tc.FinalContent = "\U0001F50A Good morning!"

	stage.Run(context.Background(), tc)

	resp := tc.Response()
	if resp == nil {
		t.Fatal("no response prepared")
	}
	if !resp.VoiceRequested {
		t.Errorf("voice prefix must promote the answer to voice")
	}
	if resp.Text != "Good morning!" || resp.VoiceText != "Good morning!" {
		t.Errorf("prefix not stripped: text=%q voice=%q", resp.Text, resp.VoiceText)
	}
}

func TestPreparationAutoVoiceForVoiceInput(t *testing.T) {
	stage := newPrepStage(config.TurnConfig{AutoVoiceReply: true})
	tc := newTestContext()
	tc.Inbound.Voice = true
	tc.Finalized = true
	tc.FinalContent = "spoken back"

	stage.Run(context.Background(), tc)

	resp := tc.Response()
	if !resp.VoiceRequested || resp.VoiceText != "spoken back" {
		t.Errorf("voice input should get a voice reply: %+v", resp)
	}
}

func TestPreparationEmptyFinalIsAnomaly(t *testing.T) {
	stage := newPrepStage(config.TurnConfig{})
	tc := newTestContext()
	tc.Finalized = true
	tc.FinalContent = "   "

	stage.Run(context.Background(), tc)

	resp := tc.Response()
	want := i18n.NewCatalog("en").Message("system.error.generic.feedback")
	if resp == nil || resp.Text != want {
		t.Fatalf("response = %+v, want generic notice", resp)
	}
	if len(tc.Failures) != 1 || tc.Failures[0].Kind != domain.FailureValidation {
		t.Errorf("expected validation failure event, got %+v", tc.Failures)
	}
}

func TestPreparationModelFaultNotice(t *testing.T) {
	stage := newPrepStage(config.TurnConfig{})
	tc := newTestContext()
	tc.LLMError = context.DeadlineExceeded

	stage.Run(context.Background(), tc)

	want := i18n.NewCatalog("en").Message("system.error.llm")
	resp := tc.Response()
	if resp == nil || resp.Text != want {
		t.Fatalf("response = %+v, want model fault notice", resp)
	}
	if !resp.SkipHistory {
		t.Errorf("error notice must not be written to history")
	}
}

func TestPreparationLimitMessages(t *testing.T) {
	cfg := config.TurnConfig{
		MaxModelCalls:     4,
		MaxToolExecutions: 9,
		Deadline:          5 * time.Minute,
	}
	catalog := i18n.NewCatalog("en")

	cases := []struct {
		name   string
		reason domain.StopReason
		detail string
		want   string
	}{
		{"model calls", domain.StopMaxModelCalls, "", catalog.Message("system.toolloop.limit.maxLlmCalls", 4)},
		{"tool executions", domain.StopMaxToolExecutions, "", catalog.Message("system.toolloop.limit.maxToolExecutions", 9)},
		{"deadline", domain.StopDeadline, "", catalog.Message("system.toolloop.limit.deadline", 5)},
		{"policy", domain.StopPolicy, "confirmation denied", catalog.Message("system.error.feedback", "confirmation denied")},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			stage := newPrepStage(cfg)
			tc := newTestContext()
			tc.StopReason = tt.reason
			tc.StopDetail = tt.detail

			stage.Run(context.Background(), tc)

			if resp := tc.Response(); resp == nil || resp.Text != tt.want {
				t.Errorf("response = %+v, want %q", tc.Response(), tt.want)
			}
		})
	}
}

func TestPreparationSkipsWhenContinuationPending(t *testing.T) {
	stage := newPrepStage(config.TurnConfig{})
	tc := newTestContext()
	tc.RequestContinuation("deep", "switch")

	if stage.Applicable(tc) {
		t.Errorf("preparation must wait for the next iteration")
	}
}

func TestResponseIsSetOnce(t *testing.T) {
	tc := newTestContext()
	if !tc.SetResponse(domain.TextOnly("first")) {
		t.Fatalf("first set should succeed")
	}
	if tc.SetResponse(domain.TextOnly("second")) {
		t.Fatalf("second set must be rejected")
	}
	if tc.Response().Text != "first" {
		t.Errorf("response was replaced: %q", tc.Response().Text)
	}
}

func TestVoicePrefixOnlyAnswerFallsBackToText(t *testing.T) {
	stage := newPrepStage(config.TurnConfig{})
	tc := newTestContext()
	tc.Finalized = true
	tc.FinalContent = "\U0001F50A"

	stage.Run(context.Background(), tc)

	resp := tc.Response()
	if resp == nil {
		t.Fatal("no response prepared")
	}
	// Nothing left after the prefix: keep the raw text, skip voice.
	if resp.VoiceRequested {
		t.Errorf("bare prefix must not request voice")
	}
	if !strings.Contains(resp.Text, "\U0001F50A") {
		t.Errorf("original text lost: %q", resp.Text)
	}
}
