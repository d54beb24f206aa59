// Package history persists finished build reports in a SQLite database so
// past builds can be listed and inspected across invocations.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/LinhMuks-DFox/Smart-Latex/internal/latex"
)

// Entry is one recorded build.
type Entry struct {
	ID           string
	Entry        string
	Chain        string
	Outcome      string
	ErrorCount   int
	WarningCount int
	DurationMS   int64
	Artifact     string
	Failure      string
	FinishedAt   time.Time
}

// Store records and lists build history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (and if needed initializes) the history database at dbPath.
// Use ":memory:" for tests.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		entry TEXT NOT NULL,
		chain TEXT NOT NULL,
		outcome TEXT NOT NULL,
		error_count INTEGER NOT NULL,
		warning_count INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		artifact TEXT,
		failure TEXT,
		finished_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_finished_at ON builds(finished_at);
	CREATE INDEX IF NOT EXISTS idx_builds_outcome ON builds(outcome);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts one finished build. Implements latex.HistoryRecorder.
func (s *Store) Record(ctx context.Context, report *latex.BuildReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain, err := json.Marshal(report.Chain)
	if err != nil {
		return fmt.Errorf("marshal chain: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO builds
		 (id, entry, chain, outcome, error_count, warning_count, duration_ms, artifact, failure, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.Entry, string(chain), string(report.Outcome),
		report.ErrorCount, report.WarningCount, report.Duration().Milliseconds(),
		report.Artifact, report.Failure, report.End.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// List returns the most recent builds, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entry, chain, outcome, error_count, warning_count, duration_ms,
		        COALESCE(artifact, ''), COALESCE(failure, ''), finished_at
		 FROM builds ORDER BY finished_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var finished int64
		if err := rows.Scan(&e.ID, &e.Entry, &e.Chain, &e.Outcome,
			&e.ErrorCount, &e.WarningCount, &e.DurationMS,
			&e.Artifact, &e.Failure, &finished); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		e.FinishedAt = time.Unix(finished, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns one build by ID.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, entry, chain, outcome, error_count, warning_count, duration_ms,
		        COALESCE(artifact, ''), COALESCE(failure, ''), finished_at
		 FROM builds WHERE id = ?`, id)

	var e Entry
	var finished int64
	err := row.Scan(&e.ID, &e.Entry, &e.Chain, &e.Outcome,
		&e.ErrorCount, &e.WarningCount, &e.DurationMS,
		&e.Artifact, &e.Failure, &finished)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("build %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan build: %w", err)
	}
	e.FinishedAt = time.Unix(finished, 0)
	return &e, nil
}

// Prune deletes entries older than the cutoff, returning how many were removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM builds WHERE finished_at < ?`, olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune builds: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }
