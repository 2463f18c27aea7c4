package agent

import (
	"strings"
	"testing"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/domain"
)

func TestMaskHistoryFlattensPriorToolExchanges(t *testing.T) {
	view := []domain.Message{
		{Role: domain.RoleUser, Content: "first question"},
		{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{{ID: "a", Name: "read_file"}}},
		{Role: domain.RoleTool, ToolCallID: "a", ToolName: "read_file", Content: "file body"},
		{Role: domain.RoleAssistant, Content: "first answer"},
		{Role: domain.RoleUser, Content: "second question"},
		{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{{ID: "b", Name: "list_dir"}}},
		{Role: domain.RoleTool, ToolCallID: "b", ToolName: "list_dir", Content: "entries"},
	}

	masked := maskHistory(view)

	if len(masked) != len(view) {
		t.Fatalf("masking must not change message count: %d != %d", len(masked), len(view))
	}
	// Everything before the second user message is flattened.
	for i := 0; i < 4; i++ {
		if masked[i].HasToolCalls() || masked[i].IsToolMessage() {
			t.Errorf("message %d still structured: %+v", i, masked[i])
		}
	}
	if !strings.Contains(masked[1].Content, "read_file") {
		t.Errorf("flattened call lost the tool name: %q", masked[1].Content)
	}
	if !strings.Contains(masked[2].Content, "file body") {
		t.Errorf("flattened result lost the content: %q", masked[2].Content)
	}
	// The current turn keeps its tool protocol.
	if !masked[5].HasToolCalls() {
		t.Errorf("current turn tool call was flattened: %+v", masked[5])
	}
	if !masked[6].IsToolMessage() {
		t.Errorf("current turn tool result was flattened: %+v", masked[6])
	}
}

func TestMaskHistoryKeepsPlainMessages(t *testing.T) {
	view := []domain.Message{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
		{Role: domain.RoleUser, Content: "how are you"},
	}
	masked := maskHistory(view)
	for i := range view {
		if masked[i].Content != view[i].Content || masked[i].Role != view[i].Role {
			t.Errorf("message %d changed: %+v", i, masked[i])
		}
	}
}

func TestMaskHistoryWithoutUserMessage(t *testing.T) {
	view := []domain.Message{
		{Role: domain.RoleAssistant, Content: "standalone"},
	}
	masked := maskHistory(view)
	if len(masked) != 1 || masked[0].Content != "standalone" {
		t.Errorf("unexpected result: %+v", masked)
	}
}

func TestFlattenMessageKeepsAssistantText(t *testing.T) {
	msg := domain.Message{
		Role:      domain.RoleAssistant,
		Content:   "let me check",
		ToolCalls: []domain.ToolCall{{ID: "x", Name: "current_time"}},
	}
	flat := flattenMessage(msg)
	if flat.HasToolCalls() {
		t.Fatalf("tool calls survived flattening")
	}
	if !strings.Contains(flat.Content, "let me check") || !strings.Contains(flat.Content, "current_time") {
		t.Errorf("flattened content = %q", flat.Content)
	}
}
