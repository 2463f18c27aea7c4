// Package domain holds the shared data model for agent turns: messages,
// tool calls and outcomes, failure events, and outgoing responses.
package domain

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleSystem    = "system"
)

// Well-known metadata keys on messages.
const (
	MetaKeyVoice     = "voice"
	MetaKeyAutoMode  = "auto.mode"
	MetaKeyModel     = "model"
	MetaKeyModelTier = "modelTier"
)

// Message is one entry in a conversation history. Content may be empty when
// the message only carries tool calls.
type Message struct {
	ID         string         `json:"id,omitempty"`
	Role       string         `json:"role"`
	Content    string         `json:"content,omitempty"`
	ToolCalls  []ToolCall     `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolName   string         `json:"tool_name,omitempty"`
	Timestamp  time.Time      `json:"timestamp,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// HasToolCalls reports whether the message carries tool calls.
func (m *Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// IsToolMessage reports whether the message is a tool result.
func (m *Message) IsToolMessage() bool {
	return m.Role == RoleTool
}

// IsUserMessage reports whether the message came from the user.
func (m *Message) IsUserMessage() bool {
	return m.Role == RoleUser
}

// HasVoice reports whether the message originated as a voice message.
func (m *Message) HasVoice() bool {
	if m.Metadata == nil {
		return false
	}
	v, ok := m.Metadata[MetaKeyVoice].(bool)
	return ok && v
}

// IsAutoMode reports whether the message was generated internally (autonomous
// trigger). Auto-mode turns are silent: they bypass admission control and the
// feedback guarantee.
func (m *Message) IsAutoMode() bool {
	if m.Metadata == nil {
		return false
	}
	v, ok := m.Metadata[MetaKeyAutoMode].(bool)
	return ok && v
}

// ToolCall is a single tool invocation requested by the model. The ID is
// unique within the response that produced it.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}
