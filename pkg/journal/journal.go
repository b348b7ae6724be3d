// Package journal keeps a sqlite log of served predictions.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Entry is one served prediction.
type Entry struct {
	ID                   string             `json:"id"`
	CreatedAt            time.Time          `json:"created_at"`
	PossessionDifference float64            `json:"possession_difference"`
	ShotDifference       float64            `json:"shot_difference"`
	Attendance           int                `json:"attendance"`
	Outcome              string             `json:"outcome"`
	Probabilities        map[string]float64 `json:"probabilities"`
	Scaled               bool               `json:"scaled"`
	RequestID            string             `json:"request_id,omitempty"`
}

// Store is a sqlite-backed journal. Methods are safe for concurrent use.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS predictions (
	id                    TEXT PRIMARY KEY,
	created_at            INTEGER NOT NULL,
	possession_difference REAL NOT NULL,
	shot_difference       REAL NOT NULL,
	attendance            INTEGER NOT NULL,
	outcome               TEXT NOT NULL,
	probabilities         TEXT NOT NULL,
	scaled                INTEGER NOT NULL,
	request_id            TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions (created_at);
`

// Open opens (creating if needed) the journal database at path. ":memory:"
// gives a private in-memory journal.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	// Every connection to :memory: is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: ping %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Record stores e, assigning an ID and timestamp when they are empty. It
// returns the stored entry.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	probs, err := json.Marshal(e.Probabilities)
	if err != nil {
		return Entry{}, fmt.Errorf("journal: encode probabilities: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO predictions
			(id, created_at, possession_difference, shot_difference, attendance, outcome, probabilities, scaled, request_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.UnixNano(), e.PossessionDifference, e.ShotDifference, e.Attendance,
		e.Outcome, string(probs), e.Scaled, e.RequestID,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("journal: insert: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, possession_difference, shot_difference, attendance, outcome, probabilities, scaled, request_id
		FROM predictions
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e     Entry
			nanos int64
			probs string
		)
		if err := rows.Scan(&e.ID, &nanos, &e.PossessionDifference, &e.ShotDifference, &e.Attendance,
			&e.Outcome, &probs, &e.Scaled, &e.RequestID); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.CreatedAt = time.Unix(0, nanos).UTC()
		if err := json.Unmarshal([]byte(probs), &e.Probabilities); err != nil {
			return nil, fmt.Errorf("journal: decode probabilities for %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM predictions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("journal: count: %w", err)
	}
	return n, nil
}
