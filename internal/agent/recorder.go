package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/journal"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/trace"
)

// Recorder fans runtime events out to the journal and the span publisher.
// Both sinks are optional and best-effort: recording never fails a turn.
type Recorder struct {
	Journal *journal.Service
	Tracer  trace.Publisher
}

// Event writes one runtime event to the journal.
func (r *Recorder) Event(tc *TurnContext, eventType string, payload map[string]any) {
	if r == nil || r.Journal == nil {
		return
	}
	err := r.Journal.AddEvent(&journal.Event{
		TraceID: tc.Inbound.TraceID,
		TaskID:  tc.TaskID,
		Type:    eventType,
		Payload: payload,
	})
	if err != nil {
		slog.Warn("Journal event write failed", "type", eventType, "error", err)
	}
}

// Span publishes one trace span.
func (r *Recorder) Span(ctx context.Context, tc *TurnContext, spanType, title, content string, startedAt time.Time, attrs map[string]string) {
	if r == nil || r.Tracer == nil || !r.Tracer.Active() {
		return
	}
	now := time.Now()
	_ = r.Tracer.PublishSpan(ctx, trace.Span{
		TraceID:    tc.Inbound.TraceID,
		SpanType:   spanType,
		Title:      title,
		Content:    content,
		StartedAt:  startedAt,
		EndedAt:    now,
		DurationMs: now.Sub(startedAt).Milliseconds(),
		Attributes: attrs,
	})
}
