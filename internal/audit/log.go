// Package audit records planner and executor activity in a SQLite event log.
package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	defaultAuditPath = "audit/events.db"
	// EnvDBPath overrides the audit DB location when a Logger has no path.
	EnvDBPath = "GOAP_AUDIT_DB"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts TEXT NOT NULL,
	actor TEXT NOT NULL,
	type TEXT NOT NULL,
	payload_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS events_type ON events (type);
`

// Logger appends planner events to a SQLite DB. A nil Logger or an empty
// DBPath falls back to $GOAP_AUDIT_DB and then to audit/events.db.
type Logger struct {
	DBPath string
}

// NewLogger returns a Logger bound to the provided DB path.
func NewLogger(dbPath string) *Logger {
	return &Logger{DBPath: dbPath}
}

// Event is one stored audit record.
type Event struct {
	ID      int64
	TS      time.Time
	Actor   string
	Type    string
	Payload map[string]any
}

// Filter narrows a Query. Zero fields match everything.
type Filter struct {
	Type  string
	Actor string
	// Limit keeps only the most recent matches.
	Limit int
}

// LogEvent appends one event stamped with the current UTC time.
func (l *Logger) LogEvent(actor string, eventType string, payload any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	db, err := l.open()
	if err != nil {
		return err
	}
	defer db.Close()

	ts := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := db.Exec(
		"INSERT INTO events (ts, actor, type, payload_json) VALUES (?, ?, ?, ?)",
		ts, actor, eventType, string(payloadJSON),
	); err != nil {
		return fmt.Errorf("insert audit event %s: %w", eventType, err)
	}
	return nil
}

// Events returns the most recent events, oldest first. A limit of zero or
// less returns every event.
func (l *Logger) Events(limit int) ([]Event, error) {
	return l.Query(Filter{Limit: limit})
}

// Query returns the events matching f, oldest first.
func (l *Logger) Query(f Filter) ([]Event, error) {
	db, err := l.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if f.Actor != "" {
		where = append(where, "actor = ?")
		args = append(args, f.Actor)
	}
	q := "SELECT id, ts, actor, type, payload_json FROM events"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var newestFirst []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		newestFirst = append(newestFirst, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}

	out := make([]Event, len(newestFirst))
	for i, ev := range newestFirst {
		out[len(newestFirst)-1-i] = ev
	}
	return out, nil
}

func scanEvent(rows *sql.Rows) (Event, error) {
	var (
		ev          Event
		ts          string
		payloadJSON string
	)
	if err := rows.Scan(&ev.ID, &ts, &ev.Actor, &ev.Type, &payloadJSON); err != nil {
		return Event{}, fmt.Errorf("scan audit event: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Event{}, fmt.Errorf("audit event %d timestamp %q: %w", ev.ID, ts, err)
	}
	ev.TS = parsed
	if err := json.Unmarshal([]byte(payloadJSON), &ev.Payload); err != nil {
		return Event{}, fmt.Errorf("decode audit payload %d: %w", ev.ID, err)
	}
	return ev, nil
}

// open resolves the DB location, creates its directory and schema, and
// returns a handle the caller must close.
func (l *Logger) open() (*sql.DB, error) {
	path := ""
	if l != nil {
		path = l.DBPath
	}
	if path == "" {
		path = os.Getenv(EnvDBPath)
	}
	if path == "" {
		path = defaultAuditPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve audit db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("ensure audit db dir: %w", err)
	}

	db, err := sql.Open("sqlite", abs)
	if err != nil {
		return nil, fmt.Errorf("open audit db %s: %w", abs, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}
	return db, nil
}
