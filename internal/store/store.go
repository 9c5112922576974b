// Package store persists calls, commitments and entities in SQLite with
// FTS5 full-text search over transcripts and summaries.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/ppiankov/pacta/internal/speaker"
)

// ErrNotFound is returned when a session id has no call record.
var ErrNotFound = errors.New("store: not found")

const schema = `
CREATE TABLE IF NOT EXISTS calls (
    session_id TEXT PRIMARY KEY,
    app_name TEXT NOT NULL,
    started_at TEXT NOT NULL,
    ended_at TEXT NOT NULL,
    duration_seconds REAL NOT NULL,
    transcript TEXT,
    transcript_segments TEXT,
    summary_json TEXT,
    template_name TEXT
);

CREATE VIRTUAL TABLE IF NOT EXISTS calls_fts USING fts5(
    session_id,
    app_name,
    transcript,
    summary_json,
    content='calls',
    content_rowid='rowid',
    tokenize='unicode61'
);

CREATE TRIGGER IF NOT EXISTS calls_ai AFTER INSERT ON calls BEGIN
    INSERT INTO calls_fts(rowid, session_id, app_name, transcript, summary_json)
    VALUES (new.rowid, new.session_id, new.app_name, new.transcript, new.summary_json);
END;

CREATE TRIGGER IF NOT EXISTS calls_au AFTER UPDATE ON calls BEGIN
    INSERT INTO calls_fts(calls_fts, rowid, session_id, app_name, transcript, summary_json)
    VALUES ('delete', old.rowid, old.session_id, old.app_name, old.transcript, old.summary_json);
    INSERT INTO calls_fts(rowid, session_id, app_name, transcript, summary_json)
    VALUES (new.rowid, new.session_id, new.app_name, new.transcript, new.summary_json);
END;

CREATE TRIGGER IF NOT EXISTS calls_ad AFTER DELETE ON calls BEGIN
    INSERT INTO calls_fts(calls_fts, rowid, session_id, app_name, transcript, summary_json)
    VALUES ('delete', old.rowid, old.session_id, old.app_name, old.transcript, old.summary_json);
END;

CREATE TABLE IF NOT EXISTS commitments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    direction TEXT,
    who_label TEXT,
    who_name TEXT,
    to_label TEXT,
    to_name TEXT,
    text TEXT NOT NULL,
    verbatim_quote TEXT,
    timestamp TEXT,
    deadline_raw TEXT,
    deadline_type TEXT,
    uncertain INTEGER NOT NULL DEFAULT 0,
    conditional INTEGER NOT NULL DEFAULT 0,
    condition_text TEXT,
    status TEXT NOT NULL DEFAULT 'open',
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS commitments_session ON commitments(session_id);
CREATE INDEX IF NOT EXISTS commitments_status ON commitments(status);

CREATE TABLE IF NOT EXISTS entities (
    session_id TEXT NOT NULL,
    name TEXT NOT NULL,
    type TEXT
);

CREATE INDEX IF NOT EXISTS entities_session ON entities(session_id);
`

// Store wraps the SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and applies the
// schema. The parent directory is created when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	// modernc.org/sqlite connections don't share an in-memory page cache;
	// serialize access through a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}

	log.Info().Str("path", path).Msg("database initialized")
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Call is one recorded call.
type Call struct {
	SessionID       string
	AppName         string
	StartedAt       string
	EndedAt         string
	DurationSeconds float64
	Transcript      string
	Segments        []speaker.Segment
	Summary         map[string]any
	TemplateName    string
}

// InsertCall inserts or updates a call record.
func (s *Store) InsertCall(ctx context.Context, call *Call) error {
	segmentsJSON, err := marshalOrEmpty(call.Segments, len(call.Segments) > 0)
	if err != nil {
		return fmt.Errorf("store: marshal segments: %w", err)
	}
	summaryJSON, err := marshalOrEmpty(call.Summary, len(call.Summary) > 0)
	if err != nil {
		return fmt.Errorf("store: marshal summary: %w", err)
	}

	const query = `
		INSERT INTO calls
		(session_id, app_name, started_at, ended_at, duration_seconds,
		 transcript, transcript_segments, summary_json, template_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
		 app_name = excluded.app_name,
		 started_at = excluded.started_at,
		 ended_at = excluded.ended_at,
		 duration_seconds = excluded.duration_seconds,
		 transcript = excluded.transcript,
		 transcript_segments = excluded.transcript_segments,
		 summary_json = excluded.summary_json,
		 template_name = excluded.template_name
	`
	_, err = s.db.ExecContext(ctx, query,
		call.SessionID, call.AppName, call.StartedAt, call.EndedAt, call.DurationSeconds,
		nullString(call.Transcript), nullString(segmentsJSON),
		nullString(summaryJSON), nullString(call.TemplateName),
	)
	if err != nil {
		return fmt.Errorf("store: insert call: %w", err)
	}

	log.Info().Str("session", call.SessionID).Msg("saved call")
	return nil
}

// GetCall returns the full record for a session, or ErrNotFound.
func (s *Store) GetCall(ctx context.Context, sessionID string) (*Call, error) {
	const query = `
		SELECT session_id, app_name, started_at, ended_at, duration_seconds,
		       transcript, transcript_segments, summary_json, template_name
		FROM calls
		WHERE session_id = ?
	`
	var (
		call                             Call
		transcript, segments, summ, tmpl sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&call.SessionID, &call.AppName, &call.StartedAt, &call.EndedAt,
		&call.DurationSeconds, &transcript, &segments, &summ, &tmpl,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get call: %w", err)
	}

	call.Transcript = transcript.String
	call.TemplateName = tmpl.String
	if segments.Valid {
		if err := json.Unmarshal([]byte(segments.String), &call.Segments); err != nil {
			return nil, fmt.Errorf("store: bad segments for %s: %w", sessionID, err)
		}
	}
	if summ.Valid {
		if err := json.Unmarshal([]byte(summ.String), &call.Summary); err != nil {
			return nil, fmt.Errorf("store: bad summary for %s: %w", sessionID, err)
		}
	}
	return &call, nil
}

// CallListing is the compact row shape returned by ListRecent.
type CallListing struct {
	SessionID       string
	AppName         string
	StartedAt       string
	EndedAt         string
	DurationSeconds float64
	Title           string
	SummaryText     string
	HasSummary      bool
}

// ListRecent returns the most recent calls, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]CallListing, error) {
	const query = `
		SELECT session_id, app_name, started_at, ended_at, duration_seconds, summary_json
		FROM calls
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list recent: %w", err)
	}
	defer rows.Close()

	var out []CallListing
	for rows.Next() {
		var (
			l    CallListing
			summ sql.NullString
		)
		if err := rows.Scan(&l.SessionID, &l.AppName, &l.StartedAt, &l.EndedAt,
			&l.DurationSeconds, &summ); err != nil {
			return nil, err
		}
		if summ.Valid {
			l.HasSummary = true
			var parsed map[string]any
			if json.Unmarshal([]byte(summ.String), &parsed) == nil {
				if title, ok := parsed["title"].(string); ok {
					l.Title = title
				}
				if text, ok := parsed["summary"].(string); ok {
					l.SummaryText = text
				}
			}
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// SearchHit is one full-text search result.
type SearchHit struct {
	SessionID       string
	AppName         string
	StartedAt       string
	DurationSeconds float64
	Snippet         string
}

// Search runs an FTS5 query across transcripts and summaries, best rank
// first. Matches are marked >>>like this<<< in the snippet.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	const q = `
		SELECT c.session_id, c.app_name, c.started_at, c.duration_seconds,
		       snippet(calls_fts, 2, '>>>', '<<<', '...', 40) AS snippet
		FROM calls_fts fts
		JOIN calls c ON c.rowid = fts.rowid
		WHERE calls_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, q, query, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	var out []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.SessionID, &h.AppName, &h.StartedAt,
			&h.DurationSeconds, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ActionItemGroup holds the open action items of one call.
type ActionItemGroup struct {
	SessionID string
	AppName   string
	StartedAt string
	Items     []string
}

// ActionItems collects action items from summaries of calls started within
// the last N days, newest first. Calls without items are omitted.
func (s *Store) ActionItems(ctx context.Context, days int) ([]ActionItemGroup, error) {
	const query = `
		SELECT session_id, app_name, started_at, summary_json
		FROM calls
		WHERE summary_json IS NOT NULL
		  AND started_at >= datetime('now', ?)
		ORDER BY started_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, fmt.Sprintf("-%d days", days))
	if err != nil {
		return nil, fmt.Errorf("store: action items: %w", err)
	}
	defer rows.Close()

	var out []ActionItemGroup
	for rows.Next() {
		var (
			g    ActionItemGroup
			summ string
		)
		if err := rows.Scan(&g.SessionID, &g.AppName, &g.StartedAt, &summ); err != nil {
			return nil, err
		}
		var parsed map[string]any
		if json.Unmarshal([]byte(summ), &parsed) != nil {
			continue
		}
		items, _ := parsed["action_items"].([]any)
		for _, it := range items {
			if s, ok := it.(string); ok && s != "" {
				g.Items = append(g.Items, s)
			}
		}
		if len(g.Items) > 0 {
			out = append(out, g)
		}
	}
	return out, rows.Err()
}

// SessionsWithoutSummary returns session ids of calls that have a transcript
// but no summary yet, oldest first.
func (s *Store) SessionsWithoutSummary(ctx context.Context) ([]string, error) {
	const query = `
		SELECT session_id
		FROM calls
		WHERE transcript IS NOT NULL AND summary_json IS NULL
		ORDER BY started_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: sessions without summary: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func marshalOrEmpty(v any, present bool) (string, error) {
	if !present {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
