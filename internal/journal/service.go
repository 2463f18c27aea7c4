// Package journal persists turn tasks and runtime events in SQLite. It backs
// inbound idempotency checks and per-turn event traces.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Task statuses.
const (
	TaskStatusPending    = "pending"
	TaskStatusProcessing = "processing"
	TaskStatusCompleted  = "completed"
	TaskStatusFailed     = "failed"
)

// Runtime event types emitted over the life of a turn.
const (
	EventTurnStarted  = "TURN_STARTED"
	EventTurnFinished = "TURN_FINISHED"
	EventTurnFailed   = "TURN_FAILED"
	EventLLMStarted   = "LLM_STARTED"
	EventLLMFinished  = "LLM_FINISHED"
	EventToolStarted  = "TOOL_STARTED"
	EventToolFinished = "TOOL_FINISHED"
)

// Task is one inbound message admitted for processing.
type Task struct {
	TaskID         string
	IdempotencyKey string
	TraceID        string
	Channel        string
	ChatID         string
	SenderID       string
	Status         string
	ContentIn      string
	ContentOut     string
	ErrorText      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Event is one runtime span record for a turn.
type Event struct {
	EventID   string
	TraceID   string
	TaskID    string
	Type      string
	Payload   map[string]any
	Timestamp time.Time
}

// Service wraps the SQLite journal database.
type Service struct {
	db *sql.DB
}

// NewService opens (or creates) the journal database at dbPath.
func NewService(dbPath string) (*Service, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &Service{db: db}, nil
}

// Close closes the underlying database.
func (s *Service) Close() error {
	return s.db.Close()
}

// CreateTask inserts a new task and assigns it a task id.
func (s *Service) CreateTask(t *Task) (*Task, error) {
	if t.TaskID == "" {
		t.TaskID = "task-" + uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TaskStatusPending
	}
	_, err := s.db.Exec(`INSERT INTO tasks
		(task_id, idempotency_key, trace_id, channel, chat_id, sender_id, status, content_in)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TaskID, nullable(t.IdempotencyKey), t.TraceID, t.Channel, t.ChatID, t.SenderID, t.Status, t.ContentIn)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

// GetTaskByIdempotencyKey looks up a task by its idempotency key. Returns
// nil when no task matches.
func (s *Service) GetTaskByIdempotencyKey(key string) (*Task, error) {
	if strings.TrimSpace(key) == "" {
		return nil, nil
	}
	row := s.db.QueryRow(`SELECT task_id, COALESCE(idempotency_key,''), COALESCE(trace_id,''),
		channel, chat_id, COALESCE(sender_id,''), status,
		COALESCE(content_in,''), COALESCE(content_out,''), COALESCE(error_text,'')
		FROM tasks WHERE idempotency_key = ?`, key)
	var t Task
	err := row.Scan(&t.TaskID, &t.IdempotencyKey, &t.TraceID, &t.Channel, &t.ChatID,
		&t.SenderID, &t.Status, &t.ContentIn, &t.ContentOut, &t.ErrorText)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup task: %w", err)
	}
	return &t, nil
}

// UpdateTaskStatus sets the status and, optionally, output or error text.
func (s *Service) UpdateTaskStatus(taskID, status, contentOut, errorText string) error {
	_, err := s.db.Exec(`UPDATE tasks SET status = ?, content_out = ?, error_text = ?,
		updated_at = CURRENT_TIMESTAMP WHERE task_id = ?`,
		status, contentOut, errorText, taskID)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return nil
}

// AddEvent appends a runtime event.
func (s *Service) AddEvent(e *Event) error {
	if e.EventID == "" {
		e.EventID = "evt-" + uuid.NewString()
	}
	payload := ""
	if e.Payload != nil {
		raw, _ := json.Marshal(e.Payload)
		payload = string(raw)
	}
	_, err := s.db.Exec(`INSERT INTO events (event_id, trace_id, task_id, event_type, payload)
		VALUES (?, ?, ?, ?, ?)`,
		e.EventID, e.TraceID, e.TaskID, e.Type, payload)
	if err != nil {
		return fmt.Errorf("add event: %w", err)
	}
	return nil
}

// EventsByTrace returns all events recorded for a trace, oldest first.
func (s *Service) EventsByTrace(traceID string) ([]Event, error) {
	rows, err := s.db.Query(`SELECT event_id, COALESCE(trace_id,''), COALESCE(task_id,''),
		event_type, COALESCE(payload,''), timestamp
		FROM events WHERE trace_id = ? ORDER BY id`, traceID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var payload string
		if err := rows.Scan(&e.EventID, &e.TraceID, &e.TaskID, &e.Type, &payload, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if payload != "" {
			_ = json.Unmarshal([]byte(payload), &e.Payload)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetSetting returns a settings value.
func (s *Service) GetSetting(key string) (string, error) {
	row := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key)
	var value string
	if err := row.Scan(&value); err != nil {
		return "", err
	}
	return value, nil
}

// SetSetting upserts a settings value.
func (s *Service) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// IncrementCounter bumps an integer settings counter.
func (s *Service) IncrementCounter(key string) {
	if strings.TrimSpace(key) == "" {
		return
	}
	next := 1
	if raw, err := s.GetSetting(key); err == nil {
		if n, convErr := strconv.Atoi(strings.TrimSpace(raw)); convErr == nil && n >= 0 {
			next = n + 1
		}
	}
	_ = s.SetSetting(key, strconv.Itoa(next))
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
