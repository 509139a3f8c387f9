// Package history keeps a small SQLite log of batch runs so operators can
// see when input was lost or extraction degraded, without any server-side
// persistence of the complaint data itself.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/civiclens/grievance-analyzer/constants"
	"github.com/civiclens/grievance-analyzer/internal/pipeline"
)

const schema = `
CREATE TABLE IF NOT EXISTS batch_run (
	id          TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	total       INTEGER NOT NULL,
	high        INTEGER NOT NULL,
	medium      INTEGER NOT NULL,
	low         INTEGER NOT NULL,
	excluded    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS artifact_event (
	run_id   TEXT NOT NULL,
	file     TEXT NOT NULL,
	kind     TEXT NOT NULL,
	message  TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES batch_run (id)
);
`

// Store records batch runs and per-artifact failure events.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the run-history database at path. ":memory:" is
// accepted for tests.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun writes the run summary plus every exclusion and degradation
// event in one transaction.
func (s *Store) RecordRun(ctx context.Context, res *pipeline.BatchResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO batch_run (id, started_at, duration_ms, total, high, medium, low, excluded)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID.String(),
		res.StartedAt.UTC().Format(time.RFC3339),
		res.Duration.Milliseconds(),
		res.Summary.Total,
		res.Summary.ByTier[constants.TierHigh],
		res.Summary.ByTier[constants.TierMedium],
		res.Summary.ByTier[constants.TierLow],
		len(res.Excluded),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, ex := range res.Excluded {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO artifact_event (run_id, file, kind, message) VALUES (?, ?, ?, ?)`,
			res.RunID.String(), ex.File, ex.Reason, ex.Detail); err != nil {
			return fmt.Errorf("insert exclusion: %w", err)
		}
	}
	for _, ev := range res.Events {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO artifact_event (run_id, file, kind, message) VALUES (?, ?, ?, ?)`,
			res.RunID.String(), ev.File, ev.Kind, ev.Message); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("history.run.recorded", "run_id", res.RunID, "events", len(res.Events)+len(res.Excluded))
	return nil
}

// RunCount is a convenience for tests and operator checks.
func (s *Store) RunCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM batch_run`).Scan(&n)
	return n, err
}

// EventsForRun returns the recorded events for one run, insertion order.
func (s *Store) EventsForRun(ctx context.Context, runID string) ([]pipeline.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file, kind, message FROM artifact_event WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []pipeline.Event
	for rows.Next() {
		var ev pipeline.Event
		if err := rows.Scan(&ev.File, &ev.Kind, &ev.Message); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
