package agent

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/bus"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/channels"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/config"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/domain"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/i18n"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/journal"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/provider"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/ratelimit"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/session"
)

// Orchestrator processes one inbound message at a time: admission, dedup,
// session bookkeeping, the staged pipeline with its iteration cap, and the
// feedback guarantee. External turns always produce exactly one user-visible
// response; internal (auto-mode) turns stay silent unless a stage prepared
// content.
type Orchestrator struct {
	cfg          *config.Config
	bus          *bus.MessageBus
	sessions     *session.Manager
	pipeline     *Pipeline
	limiter      ratelimit.Limiter
	journal      *journal.Service
	recorder     *Recorder
	channels     *channels.Registry
	catalog      *i18n.Catalog
	provider     provider.LLMProvider
	systemPrompt string
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Config       *config.Config
	Bus          *bus.MessageBus
	Sessions     *session.Manager
	Pipeline     *Pipeline
	Limiter      ratelimit.Limiter
	Journal      *journal.Service
	Recorder     *Recorder
	Channels     *channels.Registry
	Catalog      *i18n.Catalog
	Provider     provider.LLMProvider
	SystemPrompt string
}

// NewOrchestrator builds the turn orchestrator.
func NewOrchestrator(d Deps) *Orchestrator {
	return &Orchestrator{
		cfg:          d.Config,
		bus:          d.Bus,
		sessions:     d.Sessions,
		pipeline:     d.Pipeline,
		limiter:      d.Limiter,
		journal:      d.Journal,
		recorder:     d.Recorder,
		channels:     d.Channels,
		catalog:      d.Catalog,
		provider:     d.Provider,
		systemPrompt: d.SystemPrompt,
	}
}

// Run consumes the inbound queue until the context is cancelled. Messages
// are processed sequentially, preserving arrival order.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		msg, err := o.bus.ConsumeInbound(ctx)
		if err != nil {
			return err
		}
		o.ProcessMessage(ctx, msg)
	}
}

// ProcessMessage executes one full turn for an inbound message.
func (o *Orchestrator) ProcessMessage(ctx context.Context, msg *bus.InboundMessage) {
	if msg.TraceID == "" {
		msg.TraceID = uuid.NewString()
	}

	if !msg.Internal() && o.limiter != nil && !o.limiter.TryConsume() {
		slog.Warn("Inbound message rate limited",
			"channel", msg.Channel, "sender", msg.SenderID, "trace_id", msg.TraceID)
		return
	}

	taskID, replay, duplicate := o.admit(msg)
	if duplicate {
		if replay != "" {
			o.bus.PublishOutbound(&bus.OutboundMessage{
				Channel: msg.Channel,
				ChatID:  msg.ChatID,
				TraceID: msg.TraceID,
				Content: replay,
			})
		}
		return
	}

	sess := o.sessions.GetOrCreate(msg.Channel, msg.ChatID)
	sess.AddMessage(o.inboundMessage(msg))

	tc := NewTurnContext(msg, sess)
	tc.TaskID = taskID
	tc.MaxIterations = o.maxIterations()
	tc.SystemPrompt = o.systemPrompt

	o.recorder.Event(tc, journal.EventTurnStarted, map[string]any{
		"channel": msg.Channel, "sender": msg.SenderID,
	})

	// Feedback and cleanup must run on every exit path, raw panics included;
	// the dispatcher above this never sees one.
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Turn processing panicked", "trace_id", msg.TraceID,
				"panic", r, "stack", string(debug.Stack()))
			tc.AddFailure(domain.FailureSourceSystem, "orchestrator", domain.FailureException,
				fmt.Sprintf("panic: %v", r))
		}
		if !msg.Internal() {
			o.ensureFeedback(ctx, tc)
		}
		o.finish(ctx, tc)
	}()

	stopHeartbeat := o.startHeartbeat(ctx, msg)
	defer stopHeartbeat()

	o.runIterations(ctx, tc)
}

// admit records the task in the journal and reports whether the message is a
// replay of an already seen idempotency key. A completed duplicate returns
// its cached response so the sender hears the same answer again; an
// in-flight duplicate is dropped silently.
func (o *Orchestrator) admit(msg *bus.InboundMessage) (taskID, replay string, duplicate bool) {
	if o.journal == nil {
		return "", "", false
	}
	if msg.IdempotencyKey != "" {
		existing, err := o.journal.GetTaskByIdempotencyKey(msg.IdempotencyKey)
		if err != nil {
			slog.Warn("Idempotency lookup failed", "trace_id", msg.TraceID, "error", err)
		} else if existing != nil {
			slog.Info("Duplicate message detected",
				"trace_id", msg.TraceID, "idempotency_key", msg.IdempotencyKey,
				"existing_task", existing.TaskID, "status", existing.Status)
			if existing.Status == journal.TaskStatusCompleted {
				return "", existing.ContentOut, true
			}
			return "", "", true
		}
	}
	task, err := o.journal.CreateTask(&journal.Task{
		IdempotencyKey: msg.IdempotencyKey,
		TraceID:        msg.TraceID,
		Channel:        msg.Channel,
		ChatID:         msg.ChatID,
		SenderID:       msg.SenderID,
		Status:         journal.TaskStatusProcessing,
		ContentIn:      msg.Content,
	})
	if err != nil {
		slog.Warn("Task create failed", "trace_id", msg.TraceID, "error", err)
		return "", "", false
	}
	return task.TaskID, "", false
}

func (o *Orchestrator) inboundMessage(msg *bus.InboundMessage) domain.Message {
	meta := map[string]any{}
	if msg.Voice {
		meta[domain.MetaKeyVoice] = true
	}
	if msg.Internal() {
		meta[domain.MetaKeyAutoMode] = true
	}
	if len(meta) == 0 {
		meta = nil
	}
	return domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
		Metadata:  meta,
	}
}

// runIterations drives the pipeline until no continuation is pending or the
// iteration cap is hit. A cap hit with work still pending notifies the user
// directly, bypassing response preparation.
func (o *Orchestrator) runIterations(ctx context.Context, tc *TurnContext) {
	for iter := 1; iter <= tc.MaxIterations; iter++ {
		tc.Iteration = iter
		tc.ResetIteration()
		o.pipeline.Run(ctx, tc)
		if !tc.ContinuationPending() {
			return
		}
	}
	if tc.ContinuationPending() && !tc.Delivered() {
		slog.Warn("Iteration cap reached with continuation pending",
			"trace_id", tc.Inbound.TraceID, "max_iterations", tc.MaxIterations)
		o.publishDirect(tc, o.catalog.Message("system.iteration.limit", tc.MaxIterations))
	}
}

// ensureFeedback is the last line of the feedback guarantee: prepared but
// undelivered text first, then a best-effort model summary of the recorded
// failures, then a failure-specific notice, then a generic one.
func (o *Orchestrator) ensureFeedback(ctx context.Context, tc *TurnContext) {
	if tc.Delivered() {
		return
	}
	if resp := tc.Response(); resp.HasText() {
		o.publishDirect(tc, resp.Text)
		return
	}
	if len(tc.Failures) > 0 {
		if summary := o.summarizeFailures(ctx, tc); summary != "" {
			o.publishDirect(tc, summary)
			return
		}
		o.publishDirect(tc, o.catalog.Message("system.error.feedback", tc.Failures[0].Message))
		return
	}
	o.publishDirect(tc, o.catalog.Message("system.error.generic.feedback"))
}

// summarizeFailures asks the model for a one-or-two sentence explanation of
// what went wrong. Strictly best-effort: any fault or timeout yields "".
func (o *Orchestrator) summarizeFailures(ctx context.Context, tc *TurnContext) string {
	if o.provider == nil || !o.provider.Available() {
		return ""
	}
	var sb strings.Builder
	for _, f := range tc.Failures {
		fmt.Fprintf(&sb, "- [%s/%s] %s\n", f.Source, f.Component, f.Message)
	}

	sumCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	resp, err := o.provider.Chat(sumCtx, &provider.ChatRequest{
		SystemPrompt: "You are an assistant explaining an internal error to the end user. " +
			"Summarize the problems below in one or two friendly sentences. Do not mention internals.",
		Messages: []domain.Message{{
			Role:    domain.RoleUser,
			Content: sb.String(),
		}},
		MaxTokens: 200,
	})
	if err != nil {
		slog.Warn("Failure summary call failed", "trace_id", tc.Inbound.TraceID, "error", err)
		return ""
	}
	return strings.TrimSpace(resp.Content)
}

func (o *Orchestrator) publishDirect(tc *TurnContext, text string) {
	tc.SetResponse(domain.TextOnly(text))
	o.bus.PublishOutbound(&bus.OutboundMessage{
		Channel: tc.Inbound.Channel,
		ChatID:  tc.Inbound.ChatID,
		TraceID: tc.Inbound.TraceID,
		TaskID:  tc.TaskID,
		Content: text,
	})
	tc.MarkDelivered()
}

// finish persists the session, closes out the journal task, and emits the
// terminal turn event and span.
func (o *Orchestrator) finish(ctx context.Context, tc *TurnContext) {
	// Fallback texts never passed through the history writer; persist them
	// unless the response opted out of history.
	if resp := tc.Response(); resp.HasText() && !resp.SkipHistory && !tc.Finalized {
		tc.Session.AddMessage(domain.Message{
			ID:        uuid.NewString(),
			Role:      domain.RoleAssistant,
			Content:   resp.Text,
			Timestamp: time.Now(),
		})
	}
	if err := o.sessions.Save(tc.Session); err != nil {
		slog.Error("Session save failed", "session", tc.Session.ID, "error", err)
	}

	failed := tc.LLMError != nil || (!tc.Delivered() && len(tc.Failures) > 0 && !tc.Inbound.Internal())
	var errText string
	if tc.LLMError != nil {
		errText = tc.LLMError.Error()
	} else if failed && len(tc.Failures) > 0 {
		errText = tc.Failures[0].Message
	}
	var contentOut string
	if resp := tc.Response(); resp != nil {
		contentOut = resp.Text
	}

	if o.journal != nil && tc.TaskID != "" {
		status := journal.TaskStatusCompleted
		if failed {
			status = journal.TaskStatusFailed
		}
		if err := o.journal.UpdateTaskStatus(tc.TaskID, status, contentOut, errText); err != nil {
			slog.Warn("Task status update failed", "task_id", tc.TaskID, "error", err)
		}
	}

	eventType := journal.EventTurnFinished
	if failed {
		eventType = journal.EventTurnFailed
	}
	o.recorder.Event(tc, eventType, map[string]any{
		"iterations":      tc.Iteration,
		"model_calls":     tc.ModelCalls,
		"tool_executions": tc.ToolExecutions,
		"delivered":       tc.Delivered(),
	})
	o.recorder.Span(ctx, tc, "TURN", tc.Inbound.Channel+":"+tc.Inbound.ChatID, contentOut,
		tc.StartedAt, map[string]string{"status": eventType})

	slog.Info("Turn finished",
		"trace_id", tc.Inbound.TraceID,
		"iterations", tc.Iteration,
		"model_calls", tc.ModelCalls,
		"tool_executions", tc.ToolExecutions,
		"delivered", tc.Delivered(),
		"duration", time.Since(tc.StartedAt))
}

// startHeartbeat shows a typing indicator on the originating channel until
// the returned stop function runs. Internal turns stay silent.
func (o *Orchestrator) startHeartbeat(ctx context.Context, msg *bus.InboundMessage) func() {
	if msg.Internal() || o.channels == nil {
		return func() {}
	}
	ch := o.channels.Get(msg.Channel)
	if ch == nil {
		return func() {}
	}
	interval := o.cfg.Turn.HeartbeatInterval
	if interval <= 0 {
		interval = 4 * time.Second
	}

	hbCtx, cancel := context.WithCancel(ctx)
	go func() {
		ch.ShowTyping(msg.ChatID)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-hbCtx.Done():
				return
			case <-ticker.C:
				ch.ShowTyping(msg.ChatID)
			}
		}
	}()
	return cancel
}

func (o *Orchestrator) maxIterations() int {
	if o.cfg != nil && o.cfg.Turn.MaxIterations > 0 {
		return o.cfg.Turn.MaxIterations
	}
	return 5
}
