// Package session provides conversation session management and persistence.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/domain"
)

// Session represents a durable conversation scoped to one channel + chat.
type Session struct {
	ID        string           `json:"id"`
	Channel   string           `json:"channel"`
	ChatID    string           `json:"chat_id"`
	Messages  []domain.Message `json:"messages"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
	mu        sync.RWMutex
}

// NewSession creates a new session for the given channel and chat.
func NewSession(channel, chatID string) *Session {
	now := time.Now()
	return &Session{
		ID:        channel + ":" + chatID,
		Channel:   channel,
		ChatID:    chatID,
		Messages:  []domain.Message{},
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  map[string]any{},
	}
}

// AddMessage appends a message to the session history.
func (s *Session) AddMessage(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now()
}

// History returns a copy of the full message history.
func (s *Session) History() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Message, len(s.Messages))
	copy(result, s.Messages)
	return result
}

// GetMetadata returns a metadata value by key.
func (s *Session) GetMetadata(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Metadata == nil {
		return nil, false
	}
	val, ok := s.Metadata[key]
	return val, ok
}

// SetMetadata sets a metadata value by key.
func (s *Session) SetMetadata(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Metadata == nil {
		s.Metadata = map[string]any{}
	}
	s.Metadata[key] = value
	s.UpdatedAt = time.Now()
}

// Manager manages session loading, caching and persistence.
type Manager struct {
	sessionsDir string
	cache       map[string]*Session
	mu          sync.RWMutex
}

// NewManager creates a session manager storing sessions under dir.
func NewManager(dir string) *Manager {
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".golembot", "sessions")
	}
	os.MkdirAll(dir, 0755)
	return &Manager{
		sessionsDir: dir,
		cache:       make(map[string]*Session),
	}
}

// GetOrCreate returns an existing session or creates a new one.
func (m *Manager) GetOrCreate(channel, chatID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := channel + ":" + chatID
	if sess, ok := m.cache[key]; ok {
		return sess
	}

	sess := m.load(channel, chatID)
	if sess == nil {
		sess = NewSession(channel, chatID)
	}
	m.cache[key] = sess
	return sess
}

// Save persists a session to disk as JSONL: one metadata line followed by
// one line per message.
func (m *Manager) Save(sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.sessionPath(sess.ID)

	sess.mu.RLock()
	defer sess.mu.RUnlock()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	defer file.Close()

	meta := map[string]any{
		"_type":      "metadata",
		"channel":    sess.Channel,
		"chat_id":    sess.ChatID,
		"created_at": sess.CreatedAt.Format(time.RFC3339),
		"updated_at": sess.UpdatedAt.Format(time.RFC3339),
		"metadata":   sess.Metadata,
	}
	metaLine, _ := json.Marshal(meta)
	file.WriteString(string(metaLine) + "\n")

	for _, msg := range sess.Messages {
		msgLine, _ := json.Marshal(msg)
		file.WriteString(string(msgLine) + "\n")
	}

	m.cache[sess.ID] = sess
	return nil
}

// Delete removes a session from cache and disk.
func (m *Manager) Delete(channel, chatID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := channel + ":" + chatID
	delete(m.cache, key)
	if err := os.Remove(m.sessionPath(key)); err != nil {
		return false
	}
	return true
}

func (m *Manager) sessionPath(key string) string {
	safeKey := strings.ReplaceAll(key, ":", "_")
	// Strip path separators and traversal components to prevent path injection.
	safeKey = strings.ReplaceAll(safeKey, "/", "_")
	safeKey = strings.ReplaceAll(safeKey, "\\", "_")
	safeKey = strings.ReplaceAll(safeKey, "..", "_")
	return filepath.Join(m.sessionsDir, filepath.Base(safeKey)+".jsonl")
}

func (m *Manager) load(channel, chatID string) *Session {
	path := m.sessionPath(channel + ":" + chatID)

	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	sess := NewSession(channel, chatID)
	decoder := json.NewDecoder(file)

	for decoder.More() {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			break
		}

		var check map[string]any
		if json.Unmarshal(raw, &check) == nil && check["_type"] == "metadata" {
			if created, ok := check["created_at"].(string); ok {
				sess.CreatedAt, _ = time.Parse(time.RFC3339, created)
			}
			if updated, ok := check["updated_at"].(string); ok {
				sess.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
			}
			if meta, ok := check["metadata"].(map[string]any); ok {
				sess.Metadata = meta
			}
			continue
		}

		var msg domain.Message
		if json.Unmarshal(raw, &msg) == nil {
			sess.Messages = append(sess.Messages, msg)
		}
	}

	return sess
}
