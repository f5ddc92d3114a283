package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"shelver/internal/transfer"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users delete the journal to adopt the new schema.
const schemaVersion = 1

// Store persists per-candidate outcomes and run summaries in SQLite so a
// failed file can be diagnosed without re-running the batch.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
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

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path reports the journal database location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create journal schema: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_version").Scan(&count); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if count == 0 {
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("write schema version: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("journal schema version %d, expected %d (delete %s to reset)", version, schemaVersion, s.path)
	}
	return nil
}

// BeginRun records the start of a batch run.
func (s *Store) BeginRun(ctx context.Context, runID string, startedAt time.Time, dryRun bool) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (run_id, started_at, dry_run) VALUES (?, ?, ?)",
		runID, startedAt.UTC().Format(time.RFC3339Nano), boolToInt(dryRun),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Summary aggregates one run's counters for FinishRun.
type Summary struct {
	Discovered int
	Moved      int
	Skipped    int
	Errored    int
	BytesMoved int64
	Elapsed    time.Duration
}

// FinishRun finalizes the run row with aggregate counters.
func (s *Store) FinishRun(ctx context.Context, runID string, finishedAt time.Time, summary Summary) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, discovered = ?, moved = ?, skipped = ?, errored = ?, bytes_moved = ?, elapsed_ms = ?
		 WHERE run_id = ?`,
		finishedAt.UTC().Format(time.RFC3339Nano),
		summary.Discovered, summary.Moved, summary.Skipped, summary.Errored,
		summary.BytesMoved, summary.Elapsed.Milliseconds(),
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// Record appends one terminal outcome.
func (s *Store) Record(ctx context.Context, runID string, outcome transfer.Outcome) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes (run_id, source_path, dest_path, kind, attempts, bytes, elapsed_ms, reason, cleanup_failed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		outcome.SourcePath,
		nullableString(outcome.DestPath),
		string(outcome.Kind),
		outcome.Attempts,
		outcome.Bytes,
		outcome.Elapsed.Milliseconds(),
		nullableString(outcome.Reason),
		boolToInt(outcome.CleanupFailed),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// OutcomeRecord is one persisted outcome row.
type OutcomeRecord struct {
	ID         int64
	RunID      string
	SourcePath string
	DestPath   string
	Kind       transfer.OutcomeKind
	Attempts   int
	Bytes      int64
	Reason     string
	CreatedAt  time.Time
}

// RecentOutcomes returns the newest outcome rows, newest first.
func (s *Store) RecentOutcomes(ctx context.Context, limit int) ([]OutcomeRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, source_path, COALESCE(dest_path, ''), kind, attempts, bytes, COALESCE(reason, ''), created_at
		 FROM outcomes ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var records []OutcomeRecord
	for rows.Next() {
		var rec OutcomeRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.SourcePath, &rec.DestPath, &rec.Kind, &rec.Attempts, &rec.Bytes, &rec.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			rec.CreatedAt = ts
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// EarliestPendingObservation returns when the source path first went
// not-ready without reaching a terminal outcome since. It lets the readiness
// observation window span batch runs, so a file stuck unreadable for days
// eventually becomes a permanent error instead of an eternal re-skip.
func (s *Store) EarliestPendingObservation(ctx context.Context, sourcePath string) (time.Time, bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, created_at FROM outcomes WHERE source_path = ? ORDER BY id DESC LIMIT 50`,
		sourcePath)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var earliest time.Time
	found := false
	for rows.Next() {
		var kind, createdAt string
		if err := rows.Scan(&kind, &createdAt); err != nil {
			return time.Time{}, false, fmt.Errorf("scan observation: %w", err)
		}
		if transfer.OutcomeKind(kind) != transfer.OutcomeSkippedNotReady {
			break
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			earliest = ts
			found = true
		}
	}
	return earliest, found, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
