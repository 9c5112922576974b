package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ppiankov/pacta/internal/model"
)

// Commitment statuses. New rows start open.
const (
	StatusOpen    = "open"
	StatusDone    = "done"
	StatusDropped = "dropped"
)

// StoredCommitment is one commitment row.
type StoredCommitment struct {
	ID            int64
	SessionID     string
	Direction     string
	WhoLabel      string
	WhoName       string
	ToLabel       string
	ToName        string
	Text          string
	VerbatimQuote string
	Timestamp     string
	DeadlineRaw   string
	DeadlineType  string
	Uncertain     bool
	Conditional   bool
	ConditionText string
	Status        string
	CreatedAt     string
}

// InsertCommitments normalizes raw extraction records and saves the valid
// ones for a session. Records that fail normalization (no actor or no text)
// are dropped. Returns the number of rows inserted.
func (s *Store) InsertCommitments(ctx context.Context, sessionID string, raw []map[string]any) (int, error) {
	const query = `
		INSERT INTO commitments
		(session_id, direction, who_label, who_name, to_label, to_name,
		 text, verbatim_quote, timestamp, deadline_raw, deadline_type,
		 uncertain, conditional, condition_text, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC().Format(time.RFC3339)

	inserted := 0
	for _, r := range raw {
		c, ok := model.FromRaw(r)
		if !ok {
			continue
		}

		// The verbose extraction schema carries two fields the canonical
		// record folds away; keep them when present.
		deadlineType := rawString(r, "deadline_type")
		conditionText := rawString(r, "condition_text")

		_, err := s.db.ExecContext(ctx, query,
			sessionID, nullString(c.Direction),
			nullString(c.Who), nullString(rawString(r, "who_name", "committer_name")),
			nullString(c.ToWhom), nullString(rawString(r, "to_whom_name", "recipient_name", "to_name")),
			c.Text, nullString(c.Quote), nullString(c.Timestamp),
			nullString(c.Deadline), nullString(deadlineType),
			c.Uncertain, c.Conditional, nullString(conditionText),
			StatusOpen, now,
		)
		if err != nil {
			return inserted, fmt.Errorf("store: insert commitment: %w", err)
		}
		inserted++
	}

	if dropped := len(raw) - inserted; dropped > 0 {
		log.Warn().
			Str("session", sessionID).
			Int("dropped", dropped).
			Msg("dropped malformed commitment records")
	}
	log.Info().Str("session", sessionID).Int("count", inserted).Msg("saved commitments")
	return inserted, nil
}

const commitmentColumns = `
	id, session_id, direction, who_label, who_name, to_label, to_name,
	text, verbatim_quote, timestamp, deadline_raw, deadline_type,
	uncertain, conditional, condition_text, status, created_at
`

// CommitmentsBySession returns all commitments for a session in insert order.
func (s *Store) CommitmentsBySession(ctx context.Context, sessionID string) ([]StoredCommitment, error) {
	query := `SELECT` + commitmentColumns + `FROM commitments WHERE session_id = ? ORDER BY id ASC`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("store: commitments by session: %w", err)
	}
	defer rows.Close()
	return scanCommitments(rows)
}

// PendingCommitments returns all open commitments, newest session first.
func (s *Store) PendingCommitments(ctx context.Context) ([]StoredCommitment, error) {
	query := `SELECT` + commitmentColumns + `FROM commitments WHERE status = ? ORDER BY session_id DESC, id ASC`
	rows, err := s.db.QueryContext(ctx, query, StatusOpen)
	if err != nil {
		return nil, fmt.Errorf("store: pending commitments: %w", err)
	}
	defer rows.Close()
	return scanCommitments(rows)
}

// UpdateCommitmentStatus sets the status of one commitment. ErrNotFound when
// the id does not exist.
func (s *Store) UpdateCommitmentStatus(ctx context.Context, id int64, status string) error {
	switch status {
	case StatusOpen, StatusDone, StatusDropped:
	default:
		return fmt.Errorf("store: unknown status %q", status)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE commitments SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("store: update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCommitments(rows *sql.Rows) ([]StoredCommitment, error) {
	var out []StoredCommitment
	for rows.Next() {
		var (
			c                                        StoredCommitment
			direction, whoLabel, whoName             sql.NullString
			toLabel, toName, quote, timestamp        sql.NullString
			deadlineRaw, deadlineType, conditionText sql.NullString
		)
		err := rows.Scan(
			&c.ID, &c.SessionID, &direction, &whoLabel, &whoName, &toLabel, &toName,
			&c.Text, &quote, &timestamp, &deadlineRaw, &deadlineType,
			&c.Uncertain, &c.Conditional, &conditionText, &c.Status, &c.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		c.Direction = direction.String
		c.WhoLabel = whoLabel.String
		c.WhoName = whoName.String
		c.ToLabel = toLabel.String
		c.ToName = toName.String
		c.VerbatimQuote = quote.String
		c.Timestamp = timestamp.String
		c.DeadlineRaw = deadlineRaw.String
		c.DeadlineType = deadlineType.String
		c.ConditionText = conditionText.String
		out = append(out, c)
	}
	return out, rows.Err()
}

func rawString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
