package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"conveyor/internal/config"
	"conveyor/internal/logsource"
)

// Store manages attempt persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// ErrAttemptNotFound indicates no attempt row matches the requested identity.
var ErrAttemptNotFound = errors.New("attempt not found")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the attempt database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "runs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
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

// StartAttempt registers a new attempt for the task instance and allocates
// the next try number. The returned attempt is in the running state.
func (s *Store) StartAttempt(ctx context.Context, runID, taskID string, logicalDate time.Time) (*Attempt, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(runID) == "" || strings.TrimSpace(taskID) == "" {
		return nil, errors.New("run and task identifiers are required")
	}

	dateKey := logicalDate.Format(logsource.TimestampLayout)
	startedAt := time.Now().UTC()

	var attempt *Attempt
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		var tryNumber int
		err = tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(try_number), 0) + 1 FROM attempts
			 WHERE run_id = ? AND task_id = ? AND logical_date = ?`,
			runID, taskID, dateKey,
		).Scan(&tryNumber)
		if err != nil {
			return fmt.Errorf("allocate try number: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO attempts (run_id, task_id, logical_date, try_number, status, started_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runID, taskID, dateKey, tryNumber, StatusRunning, startedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("attempt id: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit attempt: %w", err)
		}

		attempt = &Attempt{
			ID:          id,
			RunID:       runID,
			TaskID:      taskID,
			LogicalDate: logicalDate,
			TryNumber:   tryNumber,
			Status:      StatusRunning,
			StartedAt:   startedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attempt, nil
}

// FinishAttempt records the terminal state of an attempt.
func (s *Store) FinishAttempt(ctx context.Context, id int64, status Status, exitCode int, errMsg string) error {
	ctx = ensureContext(ctx)
	if !status.Valid() || status == StatusRunning {
		return fmt.Errorf("invalid terminal status %q", status)
	}
	return retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE attempts SET status = ?, exit_code = ?, error = ?, finished_at = ? WHERE id = ?`,
			status, exitCode, errMsg, time.Now().UTC().Format(time.RFC3339), id,
		)
		if err != nil {
			return fmt.Errorf("finish attempt: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("finish attempt rows: %w", err)
		}
		if affected == 0 {
			return ErrAttemptNotFound
		}
		return nil
	})
}

// Get returns the attempt matching the log identity.
func (s *Store) Get(ctx context.Context, src logsource.Source) (*Attempt, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		selectColumns+` WHERE run_id = ? AND task_id = ? AND logical_date = ? AND try_number = ?`,
		src.RunID, src.TaskID, src.LogicalDate.Format(logsource.TimestampLayout), src.Attempt,
	)
	attempt, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return attempt, nil
}

// List returns the most recent attempts, newest first, capped at limit.
func (s *Store) List(ctx context.Context, limit int) ([]*Attempt, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectAttempts(rows)
}

// ForTaskInstance returns all attempts of one task instance ordered by try
// number.
func (s *Store) ForTaskInstance(ctx context.Context, runID, taskID string, logicalDate time.Time) ([]*Attempt, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE run_id = ? AND task_id = ? AND logical_date = ? ORDER BY try_number ASC`,
		runID, taskID, logicalDate.Format(logsource.TimestampLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("list task attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectAttempts(rows)
}

// Stats summarizes attempt counts by status.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM attempts GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("attempt stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats Stats
	for rows.Next() {
		var status Status
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, fmt.Errorf("scan stats: %w", err)
		}
		stats.Total += count
		switch status {
		case StatusRunning:
			stats.Running = count
		case StatusSuccess:
			stats.Success = count
		case StatusFailed:
			stats.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}

const selectColumns = `SELECT id, run_id, task_id, logical_date, try_number, status, exit_code, error, started_at, finished_at FROM attempts`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (*Attempt, error) {
	var (
		attempt    Attempt
		dateKey    string
		startedAt  string
		finishedAt string
	)
	err := row.Scan(
		&attempt.ID, &attempt.RunID, &attempt.TaskID, &dateKey, &attempt.TryNumber,
		&attempt.Status, &attempt.ExitCode, &attempt.Error, &startedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}
	if attempt.LogicalDate, err = logsource.ParseLogicalDate(dateKey); err != nil {
		return nil, fmt.Errorf("parse logical date %q: %w", dateKey, err)
	}
	if startedAt != "" {
		if attempt.StartedAt, err = time.Parse(time.RFC3339, startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
		}
	}
	if finishedAt != "" {
		if attempt.FinishedAt, err = time.Parse(time.RFC3339, finishedAt); err != nil {
			return nil, fmt.Errorf("parse finished_at %q: %w", finishedAt, err)
		}
	}
	return &attempt, nil
}

func collectAttempts(rows *sql.Rows) ([]*Attempt, error) {
	var attempts []*Attempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}
