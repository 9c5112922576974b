package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Entity is a named entity mentioned in a call.
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// InsertEntities replaces the entities recorded for a session.
func (s *Store) InsertEntities(ctx context.Context, sessionID string, entities []Entity) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM entities WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("store: clear entities: %w", err)
	}

	const query = `INSERT INTO entities (session_id, name, type) VALUES (?, ?, ?)`
	for _, e := range entities {
		if e.Name == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, query, sessionID, e.Name, nullString(e.Type)); err != nil {
			return fmt.Errorf("store: insert entity: %w", err)
		}
	}
	return nil
}

// EntitiesBySession returns the entities recorded for a session.
func (s *Store) EntitiesBySession(ctx context.Context, sessionID string) ([]Entity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, type FROM entities WHERE session_id = ? ORDER BY name ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("store: entities by session: %w", err)
	}
	defer rows.Close()

	var out []Entity
	for rows.Next() {
		var (
			e Entity
			t sql.NullString
		)
		if err := rows.Scan(&e.Name, &t); err != nil {
			return nil, err
		}
		e.Type = t.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// EntitiesFromSummary pulls the entities list out of a parsed summary.
// Malformed entries are skipped.
func EntitiesFromSummary(summary map[string]any) []Entity {
	raw, _ := summary["entities"].([]any)
	var out []Entity
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		if name == "" {
			continue
		}
		typ, _ := m["type"].(string)
		out = append(out, Entity{Name: name, Type: typ})
	}
	return out
}
