package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// Status is the lifecycle state of a ledger row.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusEmpty      Status = "empty"
	StatusFailed     Status = "failed"
	// StatusDeferred rows may be claimed again by a later scan.
	StatusDeferred Status = "deferred"
)

// ParseStatus accepts a status name case-insensitively.
func ParseStatus(value string) (Status, bool) {
	switch s := Status(strings.ToLower(strings.TrimSpace(value))); s {
	case StatusProcessing, StatusCompleted, StatusEmpty, StatusFailed, StatusDeferred:
		return s, true
	default:
		return "", false
	}
}

// ErrLocked is returned when another process holds the ledger.
var ErrLocked = errors.New("ledger is in use by another quietcut process")

// Entry is one processed source file.
type Entry struct {
	Path         string    `json:"path"`
	Status       Status    `json:"status"`
	Outcome      string    `json:"outcome,omitempty"`
	Clips        int       `json:"clips"`
	ErrorMessage string    `json:"error,omitempty"`
	RunID        string    `json:"run_id,omitempty"`
	Attempts     int       `json:"attempts"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store is the SQLite-backed ledger.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open acquires the ledger lock, connects to the database at path, and applies
// migrations. Rows stuck in processing from an earlier run are deferred.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("ledger path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire ledger lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Statements from batch workers share one connection.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("connect sqlite db: %w", err)
	}

	store := &Store{db: db, path: path, lock: lock}
	if err := store.applyMigrations(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	if _, err := store.resetStale(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// dsn applies the pragmas on every pooled connection.
func dsn(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database and releases the lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
		err = fmt.Errorf("release ledger lock: %w", unlockErr)
	}
	return err
}

// Claim records path as processing for runID. It reports false when the
// path is already known and not deferred.
func (s *Store) Claim(ctx context.Context, path, runID string) (bool, error) {
	now := timestamp()
	res, err := s.exec(ctx,
		`INSERT INTO processed_files (path, status, run_id, attempts, created_at, updated_at)
         VALUES (?, ?, ?, 1, ?, ?)
         ON CONFLICT(path) DO UPDATE SET
             status = excluded.status,
             run_id = excluded.run_id,
             attempts = processed_files.attempts + 1,
             outcome = NULL,
             error_message = NULL,
             updated_at = excluded.updated_at
         WHERE processed_files.status = ?`,
		path, StatusProcessing, nullableString(runID), now, now, StatusDeferred,
	)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", filepath.Base(path), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim rows affected: %w", err)
	}
	return n == 1, nil
}

// Finish records the final state of a claimed path.
func (s *Store) Finish(ctx context.Context, path string, status Status, outcome string, clips int, errMsg string) error {
	res, err := s.exec(ctx,
		`UPDATE processed_files
         SET status = ?, outcome = ?, clips = ?, error_message = ?, updated_at = ?
         WHERE path = ?`,
		status, nullableString(outcome), clips, nullableString(errMsg), timestamp(), path,
	)
	if err != nil {
		return fmt.Errorf("finish %s: %w", filepath.Base(path), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish %s: path was never claimed", filepath.Base(path))
	}
	return nil
}

// Get returns the entry for path, or nil when unknown.
func (s *Store) Get(ctx context.Context, path string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM processed_files WHERE path = ?`, path)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// List returns entries filtered by optional statuses, most recent first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM processed_files`
	where, args := statusFilter(statuses)
	rows, err := s.db.QueryContext(ctx, query+where+` ORDER BY updated_at DESC, path`, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Clear deletes entries with the given statuses, or every entry when none
// are given.
func (s *Store) Clear(ctx context.Context, statuses ...Status) (int64, error) {
	where, args := statusFilter(statuses)
	res, err := s.exec(ctx, `DELETE FROM processed_files`+where, args...)
	if err != nil {
		return 0, fmt.Errorf("clear entries: %w", err)
	}
	return res.RowsAffected()
}

// ResetFailed defers failed entries so the next scan retries them.
func (s *Store) ResetFailed(ctx context.Context) (int64, error) {
	return s.transition(ctx, StatusFailed, StatusDeferred)
}

func (s *Store) resetStale(ctx context.Context) (int64, error) {
	return s.transition(ctx, StatusProcessing, StatusDeferred)
}

func (s *Store) transition(ctx context.Context, from, to Status) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE processed_files SET status = ?, updated_at = ? WHERE status = ?`,
		to, timestamp(), from,
	)
	if err != nil {
		return 0, fmt.Errorf("move %s entries to %s: %w", from, to, err)
	}
	return res.RowsAffected()
}
