package journal

// Schema is applied on open. Tasks carry idempotency keys for inbound dedup;
// events record the runtime spans of each turn.
const Schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id TEXT UNIQUE NOT NULL,
	idempotency_key TEXT UNIQUE,
	trace_id TEXT,
	channel TEXT NOT NULL,
	chat_id TEXT NOT NULL,
	sender_id TEXT,
	status TEXT NOT NULL DEFAULT 'pending',
	content_in TEXT,
	content_out TEXT,
	error_text TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tasks_idempotency ON tasks(idempotency_key);
CREATE INDEX IF NOT EXISTS idx_tasks_trace ON tasks(trace_id);

CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id TEXT UNIQUE NOT NULL,
	trace_id TEXT,
	task_id TEXT,
	event_type TEXT NOT NULL,
	payload TEXT DEFAULT '',
	timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_events_trace ON events(trace_id);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
