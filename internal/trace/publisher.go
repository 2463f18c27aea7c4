// Package trace publishes turn, model, and tool spans to Kafka for
// cross-process observability. Publishing is best-effort: failures are
// logged, never surfaced to the turn.
package trace

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher can publish span data for a trace.
type Publisher interface {
	Active() bool
	PublishSpan(ctx context.Context, span Span) error
}

// Span is one published unit of work within a trace.
type Span struct {
	TraceID    string            `json:"trace_id"`
	SpanType   string            `json:"span_type"` // TURN, LLM, TOOL
	Title      string            `json:"title"`
	Content    string            `json:"content,omitempty"`
	StartedAt  time.Time         `json:"started_at,omitempty"`
	EndedAt    time.Time         `json:"ended_at,omitempty"`
	DurationMs int64             `json:"duration_ms,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// KafkaPublisher implements Publisher using segmentio/kafka-go.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
// Returns nil when brokers is empty so callers can treat tracing as
// disabled.
func NewKafkaPublisher(brokers, topic string) *KafkaPublisher {
	brokers = strings.TrimSpace(brokers)
	if brokers == "" || strings.TrimSpace(topic) == "" {
		return nil
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(strings.Split(brokers, ",")...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 100 * time.Millisecond,
			Async:        true,
		},
	}
}

// Active reports whether the publisher is configured.
func (p *KafkaPublisher) Active() bool {
	return p != nil && p.writer != nil
}

// PublishSpan writes one span keyed by trace id.
func (p *KafkaPublisher) PublishSpan(ctx context.Context, span Span) error {
	if !p.Active() {
		return nil
	}
	value, err := json.Marshal(span)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(span.TraceID),
		Value: value,
	})
	if err != nil {
		slog.Warn("Trace publish failed", "trace_id", span.TraceID, "error", err)
	}
	return err
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	if !p.Active() {
		return nil
	}
	return p.writer.Close()
}
