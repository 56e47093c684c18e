// Package conversation implements Tier 1 working memory: recent,
// bounded, FIFO-evicted conversational state.
//
// Conversations move through a single transition, active → completed,
// either explicitly (EndSession) or lazily when GetActiveSession finds
// the session idle past the boundary timeout. Retention is FIFO over
// completed conversations only — an active conversation is never
// evicted, no matter how old.
package conversation

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

const timeFormat = "2006-01-02 15:04:05"

// Status values for conversations. completed is terminal.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Conversation is one bounded unit of work in working memory.
type Conversation struct {
	ID           string  `json:"conversation_id"`
	StartTime    string  `json:"start_time"`
	EndTime      *string `json:"end_time,omitempty"`
	Intent       *string `json:"intent,omitempty"`
	Status       string  `json:"status"`
	LastActivity string  `json:"last_activity"`
}

// Message is one entry in a conversation's ordered sequence.
type Message struct {
	ID             int64  `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	Timestamp      string `json:"timestamp"`
	Role           string `json:"role"`
	Content        string `json:"content"`
}

// SessionInfo is a conversation plus its message count.
type SessionInfo struct {
	Conversation
	MessageCount int `json:"message_count"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds conversation store configuration.
type Config struct {
	DataDir string

	// Capacity caps total retained conversations (active + completed).
	// FIFO eviction removes the oldest completed conversations when a
	// new one pushes the count over.
	Capacity int

	// BoundaryTimeout is the idle threshold after which an active
	// conversation is considered ended.
	BoundaryTimeout time.Duration
}

// DefaultConfig returns the default working-memory configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:         filepath.Join(home, ".cortex"),
		Capacity:        50,
		BoundaryTimeout: 30 * time.Minute,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the working-memory engine backed by SQLite.
type Store struct {
	db  *sql.DB
	cfg Config
	now func() time.Time
}

// New creates a Store with the given configuration, opening SQLite with
// WAL mode and running migrations.
func New(cfg Config) (*Store, error) {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 50
	}
	if cfg.BoundaryTimeout <= 0 {
		cfg.BoundaryTimeout = 30 * time.Minute
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("conversation: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "cortex.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("conversation: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("conversation: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("conversation: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id            TEXT PRIMARY KEY,
			start_time    TEXT NOT NULL,
			end_time      TEXT,
			intent        TEXT,
			status        TEXT NOT NULL DEFAULT 'active',
			last_activity TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_conv_status ON conversations(status, start_time);
		CREATE INDEX IF NOT EXISTS idx_conv_start  ON conversations(start_time);

		CREATE TABLE IF NOT EXISTS messages (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id TEXT NOT NULL,
			timestamp       TEXT NOT NULL,
			role            TEXT NOT NULL,
			content         TEXT NOT NULL,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id)
		);

		CREATE INDEX IF NOT EXISTS idx_msg_conv ON messages(conversation_id, timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Session Lifecycle ───────────────────────────────────────────────────────

// StartSession creates a new active conversation and returns its id.
// A UUID is generated when conversationID is empty. The FIFO pass runs
// immediately after; the new conversation is active and therefore can
// never be evicted by its own creation.
func (s *Store) StartSession(intent, conversationID string) (string, error) {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	ts := s.timestamp()

	_, err := s.db.Exec(
		`INSERT INTO conversations (id, start_time, intent, status, last_activity)
		 VALUES (?, ?, ?, ?, ?)`,
		conversationID, ts, nullableString(intent), StatusActive, ts,
	)
	if err != nil {
		return "", fmt.Errorf("conversation: start session: %w", err)
	}

	if err := s.enforceFIFOLimit(); err != nil {
		return "", err
	}
	return conversationID, nil
}

// EndSession marks a conversation completed with end_time=now.
// Idempotent: ending an already-completed (or unknown) conversation is
// a no-op, not an error.
func (s *Store) EndSession(conversationID string) error {
	ts := s.timestamp()
	_, err := s.db.Exec(
		`UPDATE conversations SET status = ?, end_time = ? WHERE id = ? AND status = ?`,
		StatusCompleted, ts, conversationID, StatusActive,
	)
	if err != nil {
		return fmt.Errorf("conversation: end session %s: %w", conversationID, err)
	}
	return nil
}

// GetActiveSession returns the id of the most-recently-started active
// conversation, or "" when there is none.
//
// This is the lazy boundary check: when the active conversation has been
// idle longer than the boundary timeout it is demoted to completed as a
// side effect and "" is returned. The read-check-close happens inside
// one transaction so concurrent callers cannot double-close or race a
// concurrent StartSession.
func (s *Store) GetActiveSession() (string, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("conversation: get active session: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id, startTime, lastActivity string
	err = tx.QueryRow(
		`SELECT id, start_time, last_activity FROM conversations
		 WHERE status = ? ORDER BY start_time DESC, id DESC LIMIT 1`,
		StatusActive,
	).Scan(&id, &startTime, &lastActivity)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("conversation: get active session: %w", err)
	}

	// last_activity is maintained on message ingestion, but recompute
	// from messages defensively so the boundary decision always uses
	// the latest message timestamp (or start_time with no messages).
	var latestMsg sql.NullString
	if err := tx.QueryRow(
		`SELECT MAX(timestamp) FROM messages WHERE conversation_id = ?`, id,
	).Scan(&latestMsg); err != nil {
		return "", fmt.Errorf("conversation: get active session: %w", err)
	}

	effective := lastActivity
	if latestMsg.Valid && latestMsg.String > effective {
		effective = latestMsg.String
	}
	if effective < startTime {
		effective = startTime
	}

	last, err := time.Parse(timeFormat, effective)
	if err != nil {
		return "", fmt.Errorf("conversation: get active session: parse last activity %q: %w", effective, err)
	}

	if s.now().UTC().Sub(last) > s.cfg.BoundaryTimeout {
		// Conversation boundary crossed: close it and report no
		// active session.
		if _, err := tx.Exec(
			`UPDATE conversations SET status = ?, end_time = ? WHERE id = ? AND status = ?`,
			StatusCompleted, s.timestamp(), id, StatusActive,
		); err != nil {
			return "", fmt.Errorf("conversation: close stale session %s: %w", id, err)
		}
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("conversation: get active session: commit: %w", err)
		}
		return "", nil
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("conversation: get active session: commit: %w", err)
	}
	return id, nil
}

// GetSessionInfo returns a conversation and its message count.
func (s *Store) GetSessionInfo(conversationID string) (*SessionInfo, error) {
	row := s.db.QueryRow(
		`SELECT id, start_time, end_time, intent, status, last_activity
		 FROM conversations WHERE id = ?`, conversationID,
	)
	var c Conversation
	if err := row.Scan(&c.ID, &c.StartTime, &c.EndTime, &c.Intent, &c.Status, &c.LastActivity); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("conversation: %s not found", conversationID)
		}
		return nil, fmt.Errorf("conversation: get session info %s: %w", conversationID, err)
	}

	info := &SessionInfo{Conversation: c}
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM messages WHERE conversation_id = ?`, conversationID,
	).Scan(&info.MessageCount); err != nil {
		return nil, fmt.Errorf("conversation: get session info %s: %w", conversationID, err)
	}
	return info, nil
}

// AllSessions returns every retained conversation, newest first.
func (s *Store) AllSessions() ([]Conversation, error) {
	rows, err := s.db.Query(
		`SELECT id, start_time, end_time, intent, status, last_activity
		 FROM conversations ORDER BY start_time DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("conversation: all sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.StartTime, &c.EndTime, &c.Intent, &c.Status, &c.LastActivity); err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// ─── Messages ────────────────────────────────────────────────────────────────

// AddMessage appends a message to a conversation and advances the
// conversation's last_activity to the message timestamp, in one
// transaction so a reader never sees a message newer than
// last_activity.
func (s *Store) AddMessage(conversationID, role, content string) (int64, error) {
	ts := s.timestamp()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("conversation: add message: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRow(`SELECT 1 FROM conversations WHERE id = ?`, conversationID).Scan(&exists)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("conversation: %s not found", conversationID)
	}
	if err != nil {
		return 0, fmt.Errorf("conversation: add message: %w", err)
	}

	res, err := tx.Exec(
		`INSERT INTO messages (conversation_id, timestamp, role, content) VALUES (?, ?, ?, ?)`,
		conversationID, ts, role, content,
	)
	if err != nil {
		return 0, fmt.Errorf("conversation: add message: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE conversations SET last_activity = max(last_activity, ?) WHERE id = ?`,
		ts, conversationID,
	); err != nil {
		return 0, fmt.Errorf("conversation: add message: bump activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("conversation: add message: commit: %w", err)
	}
	return res.LastInsertId()
}

// Messages returns a conversation's messages in timestamp order.
func (s *Store) Messages(conversationID string) ([]Message, error) {
	rows, err := s.db.Query(
		`SELECT id, conversation_id, timestamp, role, content
		 FROM messages WHERE conversation_id = ? ORDER BY timestamp, id`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("conversation: messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Timestamp, &m.Role, &m.Content); err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// ─── FIFO Enforcement ────────────────────────────────────────────────────────

// enforceFIFOLimit deletes the oldest completed conversations (and
// their messages, same transaction) until the total count fits the
// capacity. Active conversations are categorically exempt: when there
// are fewer completed conversations than the excess, the cap is
// transiently exceeded by the number of actives — accepted, not an
// error.
func (s *Store) enforceFIFOLimit() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("conversation: fifo: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var total int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM conversations`).Scan(&total); err != nil {
		return fmt.Errorf("conversation: fifo: count: %w", err)
	}
	if total <= s.cfg.Capacity {
		return tx.Commit()
	}

	excess := total - s.cfg.Capacity
	rows, err := tx.Query(
		`SELECT id FROM conversations WHERE status = ? ORDER BY start_time ASC, id ASC LIMIT ?`,
		StatusCompleted, excess,
	)
	if err != nil {
		return fmt.Errorf("conversation: fifo: select victims: %w", err)
	}
	var victims []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return fmt.Errorf("conversation: fifo: scan: %w", err)
		}
		victims = append(victims, id)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("conversation: fifo: %w", err)
	}

	// Messages first so the FK relationship is never violated mid-tx.
	for _, id := range victims {
		if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
			return fmt.Errorf("conversation: fifo: delete messages of %s: %w", id, err)
		}
		if _, err := tx.Exec(`DELETE FROM conversations WHERE id = ?`, id); err != nil {
			return fmt.Errorf("conversation: fifo: delete %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("conversation: fifo: commit: %w", err)
	}
	return nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timeFormat)
}

func nullableString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
