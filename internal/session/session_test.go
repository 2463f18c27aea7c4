package session

import (
	"testing"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/domain"
)

func TestSessionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)

	sess := m.GetOrCreate("cli", "chat1")
	sess.AddMessage(domain.Message{Role: domain.RoleUser, Content: "hello"})
	sess.AddMessage(domain.Message{
		Role:     domain.RoleAssistant,
		Content:  "hi",
		Metadata: map[string]any{domain.MetaKeyModel: "test-model"},
	})
	sess.SetMetadata("locale", "en")

	if err := m.Save(sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// A fresh manager must load the persisted session from disk.
	m2 := NewManager(dir)
	loaded := m2.GetOrCreate("cli", "chat1")
	history := loaded.History()
	if len(history) != 2 {
		t.Fatalf("loaded %d messages, want 2", len(history))
	}
	if history[0].Content != "hello" || history[1].Content != "hi" {
		t.Errorf("history = %+v", history)
	}
	if v, ok := loaded.GetMetadata("locale"); !ok || v != "en" {
		t.Errorf("metadata lost: %v %v", v, ok)
	}
}

func TestGetOrCreateReturnsSameInstance(t *testing.T) {
	m := NewManager(t.TempDir())
	a := m.GetOrCreate("cli", "chat1")
	b := m.GetOrCreate("cli", "chat1")
	if a != b {
		t.Errorf("expected cached instance")
	}
	if c := m.GetOrCreate("cli", "chat2"); c == a {
		t.Errorf("different chats must not share a session")
	}
}

func TestToolMessagesSurvivePersistence(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	sess := m.GetOrCreate("cli", "tools")
	sess.AddMessage(domain.Message{
		Role: domain.RoleAssistant,
		ToolCalls: []domain.ToolCall{{
			ID: "c1", Name: "read_file", Arguments: map[string]any{"path": "a.txt"},
		}},
	})
	sess.AddMessage(domain.Message{
		Role: domain.RoleTool, ToolCallID: "c1", ToolName: "read_file", Content: "body",
	})
	if err := m.Save(sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := NewManager(dir).GetOrCreate("cli", "tools")
	history := loaded.History()
	if len(history) != 2 {
		t.Fatalf("loaded %d messages", len(history))
	}
	if !history[0].HasToolCalls() || history[0].ToolCalls[0].ID != "c1" {
		t.Errorf("tool calls lost: %+v", history[0])
	}
	if !history[1].IsToolMessage() || history[1].ToolCallID != "c1" {
		t.Errorf("tool result lost: %+v", history[1])
	}
}

func TestDelete(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	sess := m.GetOrCreate("cli", "gone")
	m.Save(sess)

	if !m.Delete("cli", "gone") {
		t.Fatalf("delete failed")
	}
	if m.Delete("cli", "gone") {
		t.Errorf("second delete should report nothing removed")
	}
}

func TestSessionPathSanitized(t *testing.T) {
	m := NewManager(t.TempDir())
	sess := m.GetOrCreate("cli", "../../etc/passwd")
	if err := m.Save(sess); err != nil {
		t.Fatalf("Save with hostile chat id: %v", err)
	}
}
