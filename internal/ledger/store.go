package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"deckhand/internal/order"
)

// Entry records one terminal fetch outcome for one image during one run.
type Entry struct {
	ID        int64
	RunID     string
	Name      string
	Source    string
	LocalPath string
	Face      order.Face
	Outcome   order.Outcome
	Error     string
	CreatedAt time.Time
}

// Summary aggregates a run's fetch outcomes.
type Summary struct {
	Total     int
	Delivered int
	Skipped   int
}

// Store persists fetch outcomes in SQLite under the cache directory. The
// ledger is advisory: it feeds the end-of-run report and cache inspection,
// and write failures never fail a run.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS fetch_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    name TEXT NOT NULL,
    source TEXT NOT NULL,
    local_path TEXT NOT NULL,
    face TEXT NOT NULL,
    outcome TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fetch_log_run ON fetch_log (run_id);
`

// Open initializes or connects to the ledger database in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}

	dbPath := filepath.Join(dir, "ledger.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply ledger schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends one fetch outcome.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO fetch_log (run_id, name, source, local_path, face, outcome, error, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Name,
		entry.Source,
		entry.LocalPath,
		string(entry.Face),
		string(entry.Outcome),
		entry.Error,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert fetch entry: %w", err)
	}
	return nil
}

// RunSummary aggregates the outcomes recorded for one run.
func (s *Store) RunSummary(ctx context.Context, runID string) (Summary, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT outcome, COUNT(*) FROM fetch_log WHERE run_id = ? GROUP BY outcome`,
		runID,
	)
	if err != nil {
		return Summary{}, fmt.Errorf("query run summary: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return Summary{}, fmt.Errorf("scan run summary: %w", err)
		}
		summary.Total += count
		switch order.Outcome(outcome) {
		case order.OutcomeDelivered:
			summary.Delivered += count
		case order.OutcomeSkipped:
			summary.Skipped += count
		}
	}
	return summary, rows.Err()
}

// Failures returns the skipped entries recorded for one run, oldest first.
func (s *Store) Failures(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, run_id, name, source, local_path, face, outcome, error, created_at
         FROM fetch_log WHERE run_id = ? AND outcome = ? ORDER BY id`,
		runID,
		string(order.OutcomeSkipped),
	)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var face, outcome, createdAt string
		if err := rows.Scan(&entry.ID, &entry.RunID, &entry.Name, &entry.Source, &entry.LocalPath, &face, &outcome, &entry.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scan failure entry: %w", err)
		}
		entry.Face = order.Face(face)
		entry.Outcome = order.Outcome(outcome)
		if parsed, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
			entry.CreatedAt = parsed
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
