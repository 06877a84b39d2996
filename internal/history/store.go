package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultListLimit = 20

// Store manages render history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open connects to the history database at path, creating it and applying
// migrations as needed.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Start records a new running render and returns it with its ID assigned.
func (s *Store) Start(ctx context.Context, run Run) (*Run, error) {
	if strings.TrimSpace(run.RunID) == "" {
		return nil, errors.New("run id is required")
	}
	started := run.StartedAt
	if started.IsZero() {
		started = s.now()
	}
	res, err := s.exec(ctx,
		`INSERT INTO renders (
            run_id, config_path, output_path, mode, title, width, height,
            frame_rate, total_frames, status, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.ConfigPath,
		run.OutputPath,
		run.Mode,
		nullableString(run.Title),
		run.Width,
		run.Height,
		run.FrameRate,
		run.TotalFrames,
		StatusRunning,
		formatTime(started),
	)
	if err != nil {
		return nil, fmt.Errorf("insert render: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.Get(ctx, id)
}

// Complete stores the outcome of run id.
func (s *Store) Complete(ctx context.Context, id int64, outcome Outcome) error {
	status := outcome.Status
	if status == "" {
		status = StatusCompleted
		if outcome.Err != nil {
			status = StatusFailed
		}
	}
	var message string
	if outcome.Err != nil {
		message = outcome.Err.Error()
	}
	res, err := s.exec(ctx,
		`UPDATE renders SET status = ?, frames_written = ?, encoder_exit_code = ?,
            early_stop = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		status,
		outcome.FramesWritten,
		nullableInt(outcome.EncoderExit),
		boolToInt(outcome.EarlyStop),
		nullableString(message),
		formatTime(s.now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("complete render %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

// Get fetches one run by ID.
func (s *Store) Get(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM renders WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get render %d: %w", id, err)
	}
	return run, nil
}

// List returns the most recent runs, newest first. A non-positive limit uses
// the default.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM renders ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list renders: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan render: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate renders: %w", err)
	}
	return runs, nil
}

// MarkAbandoned fails runs for outputPath still marked running. Callers hold
// the output lock, so such rows belong to a process that exited mid-render.
func (s *Store) MarkAbandoned(ctx context.Context, outputPath string) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE renders SET status = ?, error_message = ?, finished_at = ? WHERE status = ? AND output_path = ?`,
		StatusFailed,
		"abandoned: process exited before the run completed",
		formatTime(s.now()),
		StatusRunning,
		outputPath,
	)
	if err != nil {
		return 0, fmt.Errorf("mark abandoned renders: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
