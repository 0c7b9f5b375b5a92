// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a local SQLite record of finished conversion jobs.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdf2jpg/pkg/types"
)

const (
	dbFile       = "history.db"
	defaultLimit = 20

	// Fixed-width UTC timestamps so text ordering matches time ordering.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// ErrNotFound is returned by Get for an unknown job ID.
var ErrNotFound = errors.New("job not found")

// Store manages the history database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns ~/.config/pdf2jpg/history.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".config", "pdf2jpg", dbFile), nil
}

// Open opens or creates the history database at path and creates the schema
// if it does not exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			folder_name TEXT NOT NULL,
			destination TEXT NOT NULL,
			cancelled INTEGER NOT NULL DEFAULT 0,
			started_at TEXT,
			finished_at TEXT,
			completed INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			cancelled_docs INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			source_path TEXT NOT NULL,
			display_name TEXT NOT NULL,
			folder_name TEXT,
			page_count INTEGER NOT NULL,
			status TEXT NOT NULL,
			reason TEXT,
			completed_pages INTEGER NOT NULL DEFAULT 0,
			failed_pages TEXT,
			PRIMARY KEY (job_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_finished_at ON jobs(finished_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores a finished job and its documents. Recording the same job
// again replaces the earlier record.
func (s *Store) Record(ctx context.Context, job types.Job) error {
	if job.ID == "" {
		return errors.New("recording job: empty id")
	}
	sum := job.Summary()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO jobs (id, name, folder_name, destination, cancelled, started_at, finished_at,
			completed, failed, skipped, cancelled_docs)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, folder_name=excluded.folder_name, destination=excluded.destination,
			cancelled=excluded.cancelled, started_at=excluded.started_at, finished_at=excluded.finished_at,
			completed=excluded.completed, failed=excluded.failed, skipped=excluded.skipped,
			cancelled_docs=excluded.cancelled_docs`,
		job.ID, job.Name, job.FolderName, job.Destination, job.Cancelled,
		formatTime(job.StartedAt), formatTime(job.FinishedAt),
		sum.Completed, sum.Failed, sum.Skipped, sum.Cancelled,
	)
	if err != nil {
		return fmt.Errorf("upserting job: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE job_id = ?`, job.ID); err != nil {
		return fmt.Errorf("deleting old documents: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (job_id, position, source_path, display_name, folder_name,
			page_count, status, reason, completed_pages, failed_pages)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, it := range job.Items {
		failedJSON, _ := json.Marshal(it.FailedPages)
		_, err := stmt.ExecContext(ctx,
			job.ID, i, it.SourcePath, it.DisplayName, it.FolderName,
			it.PageCount, string(it.Status.Kind), it.Status.Reason,
			it.CompletedPages, string(failedJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting document %s: %w", it.SourcePath, err)
		}
	}

	return tx.Commit()
}

// List returns the most recently finished jobs first, without documents.
// A limit of zero or less uses the default of 20.
func (s *Store) List(ctx context.Context, limit int) ([]JobRecord, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, folder_name, destination, cancelled, started_at, finished_at,
			completed, failed, skipped, cancelled_docs
		 FROM jobs ORDER BY finished_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		rec, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get returns one job with its documents in queue order.
func (s *Store) Get(ctx context.Context, id string) (*JobRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, folder_name, destination, cancelled, started_at, finished_at,
			completed, failed, skipped, cancelled_docs
		 FROM jobs WHERE id = ?`, id)
	rec, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source_path, display_name, folder_name, page_count, status, reason,
			completed_pages, failed_pages
		 FROM documents WHERE job_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			d                  DocumentRecord
			folder, reason     sql.NullString
			status, failedJSON string
		)
		if err := rows.Scan(&d.SourcePath, &d.DisplayName, &folder, &d.PageCount,
			&status, &reason, &d.CompletedPages, &failedJSON); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		d.FolderName = folder.String
		d.Status = types.ConversionStatus{Kind: types.StatusKind(status), Reason: reason.String}
		if failedJSON != "" && failedJSON != "null" {
			if err := json.Unmarshal([]byte(failedJSON), &d.FailedPages); err != nil {
				return nil, fmt.Errorf("decoding failed pages: %w", err)
			}
		}
		rec.Documents = append(rec.Documents, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(sc scanner) (JobRecord, error) {
	var (
		rec               JobRecord
		started, finished sql.NullString
	)
	err := sc.Scan(&rec.ID, &rec.Name, &rec.FolderName, &rec.Destination, &rec.Cancelled,
		&started, &finished,
		&rec.Summary.Completed, &rec.Summary.Failed, &rec.Summary.Skipped, &rec.Summary.Cancelled)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("scanning job: %w", err)
	}
	rec.StartedAt = parseTime(started.String)
	rec.FinishedAt = parseTime(finished.String)
	return rec, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
