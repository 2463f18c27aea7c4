package agent

import (
	"time"

	"github.com/google/uuid"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/domain"
)

// historyWriter appends turn messages to both the working view and the
// durable session, stamping model metadata so past turns stay attributable.
type historyWriter struct{}

func (historyWriter) appendAssistantToolCalls(tc *TurnContext, content string, calls []domain.ToolCall) {
	msg := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Content:   content,
		ToolCalls: calls,
		Timestamp: time.Now(),
		Metadata:  modelMetadata(tc),
	}
	tc.AppendView(msg)
	tc.Session.AddMessage(msg)
}

func (historyWriter) appendToolResult(tc *TurnContext, outcome domain.ToolOutcome) {
	msg := domain.Message{
		ID:         uuid.NewString(),
		Role:       domain.RoleTool,
		Content:    outcome.Content,
		ToolCallID: outcome.ToolCallID,
		ToolName:   outcome.ToolName,
		Timestamp:  time.Now(),
	}
	tc.AppendView(msg)
	tc.Session.AddMessage(msg)
}

func (historyWriter) appendFinalAssistant(tc *TurnContext, content string) {
	msg := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
		Metadata:  modelMetadata(tc),
	}
	tc.AppendView(msg)
	tc.Session.AddMessage(msg)
}

func modelMetadata(tc *TurnContext) map[string]any {
	meta := map[string]any{}
	if tc.Model != "" {
		meta[domain.MetaKeyModel] = tc.Model
	}
	if tc.ModelTier != "" {
		meta[domain.MetaKeyModelTier] = tc.ModelTier
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}
