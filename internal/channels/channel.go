// Package channels implements transport adapters binding chat platforms to
// the message bus.
package channels

import (
	"context"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/bus"
)

// Channel is the transport port. Send delivers an outbound message;
// ShowTyping is a fire-and-forget presence signal.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Send(ctx context.Context, msg *bus.OutboundMessage) error
	ShowTyping(chatID string)
}

// BaseChannel carries the bus handle shared by all channel implementations.
type BaseChannel struct {
	Bus *bus.MessageBus
}

// Registry maps channel names to running channels so the orchestrator can
// reach the transport bound to a chat.
type Registry struct {
	channels map[string]Channel
}

// NewRegistry creates an empty channel registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]Channel)}
}

// Register adds a channel.
func (r *Registry) Register(c Channel) {
	r.channels[c.Name()] = c
}

// Get returns the channel with the given name, or nil.
func (r *Registry) Get(name string) Channel {
	return r.channels[name]
}

// All returns every registered channel.
func (r *Registry) All() []Channel {
	out := make([]Channel, 0, len(r.channels))
	for _, c := range r.channels {
		out = append(out, c)
	}
	return out
}
