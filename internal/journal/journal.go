// Package journal keeps an append-only activity log of session writes in
// SQLite. The markdown session files stay the source of truth; the journal
// only answers "what happened to this session, and when".
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/HendryAvila/codingbuddy/internal/session"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

const (
	dbFile = "journal.db"

	// DefaultLimit is used by Recent when limit is not positive.
	DefaultLimit = 20
	// MaxLimit caps a single Recent query.
	MaxLimit = 200
)

// Config holds journal settings.
type Config struct {
	// DataDir holds journal.db. Shared across projects.
	DataDir string
	// Project tags every entry so one journal can serve many repositories.
	Project string
}

// DefaultConfig returns the default configuration for the journal.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".codingbuddy")}
}

// Entry is one recorded session event.
type Entry struct {
	ID        string `json:"id"`
	Project   string `json:"project"`
	SessionID string `json:"session_id"`
	Action    string `json:"action"`
	Mode      string `json:"mode,omitempty"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Journal is a SQLite-backed session.Recorder.
type Journal struct {
	db  *sql.DB
	cfg Config
}

var _ session.Recorder = (*Journal)(nil)

// New opens (or creates) the journal database under cfg.DataDir.
func New(cfg Config) (*Journal, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("journal: create data dir: %w", err)
	}

	db, err := openDB("sqlite", filepath.Join(cfg.DataDir, dbFile))
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("journal: pragma %q: %w", p, err)
		}
	}

	j := &Journal{db: db, cfg: cfg}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: migration: %w", err)
	}
	return j, nil
}

// Close releases the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) migrate() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS session_events (
			id         TEXT PRIMARY KEY,
			project    TEXT NOT NULL,
			session_id TEXT NOT NULL,
			action     TEXT NOT NULL,
			mode       TEXT,
			detail     TEXT,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_events_session ON session_events(project, session_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_events_created ON session_events(created_at DESC);
	`)
	return err
}

// Record appends ev to the journal.
func (j *Journal) Record(ctx context.Context, ev session.Event) error {
	at := ev.At
	if at == "" {
		at = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO session_events (id, project, session_id, action, mode, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), j.cfg.Project, ev.SessionID, ev.Action, nullable(string(ev.Mode)), nullable(ev.Detail), at,
	)
	if err != nil {
		return fmt.Errorf("journal: record %s %s: %w", ev.Action, ev.SessionID, err)
	}
	return nil
}

// Recent returns the newest entries for this project, optionally filtered
// to one session. Ties on created_at keep insertion order reversed.
func (j *Journal) Recent(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	query := `SELECT id, project, session_id, action, COALESCE(mode, ''), COALESCE(detail, ''), created_at
		FROM session_events WHERE project = ?`
	args := []any{j.cfg.Project}
	if sessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Project, &e.SessionID, &e.Action, &e.Mode, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
