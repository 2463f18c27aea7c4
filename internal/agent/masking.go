package agent

import (
	"strings"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/domain"
)

// maskHistory flattens tool exchanges from earlier turns into plain assistant
// text before a model call. Messages from the latest user message onward keep
// their structure, so the provider sees the current turn's tool protocol
// intact while never receiving dangling tool calls from past turns.
func maskHistory(view []domain.Message) []domain.Message {
	cut := latestUserIndex(view)
	if cut <= 0 {
		return view
	}
	out := make([]domain.Message, 0, len(view))
	for i, msg := range view {
		if i < cut {
			out = append(out, flattenMessage(msg))
		} else {
			out = append(out, msg)
		}
	}
	return out
}

func latestUserIndex(view []domain.Message) int {
	for i := len(view) - 1; i >= 0; i-- {
		if view[i].IsUserMessage() {
			return i
		}
	}
	return -1
}

// flattenMessage rewrites a structured tool message into descriptive text.
// Non-tool messages pass through unchanged.
func flattenMessage(msg domain.Message) domain.Message {
	switch {
	case msg.HasToolCalls():
		names := make([]string, 0, len(msg.ToolCalls))
		for _, call := range msg.ToolCalls {
			names = append(names, call.Name)
		}
		text := "[called tools: " + strings.Join(names, ", ") + "]"
		if content := strings.TrimSpace(msg.Content); content != "" {
			text = content + "\n" + text
		}
		return domain.Message{
			ID:        msg.ID,
			Role:      domain.RoleAssistant,
			Content:   text,
			Timestamp: msg.Timestamp,
			Metadata:  msg.Metadata,
		}
	case msg.IsToolMessage():
		name := msg.ToolName
		if name == "" {
			name = "tool"
		}
		return domain.Message{
			ID:        msg.ID,
			Role:      domain.RoleAssistant,
			Content:   "[" + name + " result]\n" + msg.Content,
			Timestamp: msg.Timestamp,
		}
	default:
		return msg
	}
}
