// Package sqlite implements the dashboard job store on SQLite. Jobs and
// their progress event logs survive restarts, so the web dashboard can
// replay history instead of holding it in process memory.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/halcyon-labs/snapbridge-cli/internal/adapters/driven/store/sqlite/migrations"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
)

// Ensure JobStore implements the interface.
var _ driven.JobStore = (*JobStore)(nil)

// JobStore is a SQLite-backed implementation of driven.JobStore.
type JobStore struct {
	db   *sql.DB
	path string
}

// NewJobStore creates a new SQLite job store at the specified data directory.
// If dataDir is empty, defaults to ~/.snapbridge/data/jobs.db.
func NewJobStore(dataDir string) (*JobStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".snapbridge", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "jobs.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &JobStore{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *JobStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *JobStore) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *JobStore) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// CreateJob inserts a new job record.
func (s *JobStore) CreateJob(ctx context.Context, job driven.Job) error {
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = now
	}
	if job.State == "" {
		job.State = driven.JobPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, kind, state, detail, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, job.ID, job.Kind, string(job.State), job.Detail, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting job: %w", err)
	}
	return nil
}

// UpdateJobState transitions a job and records the detail text.
func (s *JobStore) UpdateJobState(ctx context.Context, id string, state driven.JobState, detail string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET state = ?, detail = ?, updated_at = ?
		WHERE id = ?
	`, string(state), detail, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating job: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: job %s", domain.ErrNotFound, id)
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *JobStore) GetJob(ctx context.Context, id string) (*driven.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, state, detail, created_at, updated_at
		FROM jobs WHERE id = ?
	`, id)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: job %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("querying job: %w", err)
	}
	return job, nil
}

// ListJobs returns all jobs, newest first.
func (s *JobStore) ListJobs(ctx context.Context) ([]driven.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, state, detail, created_at, updated_at
		FROM jobs ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []driven.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}
	return jobs, nil
}

// AppendEvent logs a progress event for a job. Seq is assigned by SQLite.
func (s *JobStore) AppendEvent(ctx context.Context, jobID string, event driven.ProgressEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO job_events (job_id, phase, item, idx, total, percent, status, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, jobID, event.Phase, event.Item, event.Index, event.Total, event.Percent,
		event.Status, event.Message, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// ListEvents returns events for a job with Seq greater than afterSeq,
// in append order. Pass 0 to read from the beginning.
func (s *JobStore) ListEvents(ctx context.Context, jobID string, afterSeq int64) ([]driven.StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, job_id, phase, item, idx, total, percent, status, message, created_at
		FROM job_events
		WHERE job_id = ? AND seq > ?
		ORDER BY seq ASC
	`, jobID, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []driven.StoredEvent
	for rows.Next() {
		var ev driven.StoredEvent
		if err := rows.Scan(&ev.Seq, &ev.JobID, &ev.Event.Phase, &ev.Event.Item,
			&ev.Event.Index, &ev.Event.Total, &ev.Event.Percent,
			&ev.Event.Status, &ev.Event.Message, &ev.At); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*driven.Job, error) {
	var job driven.Job
	var state string
	if err := row.Scan(&job.ID, &job.Kind, &state, &job.Detail, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return nil, err
	}
	job.State = driven.JobState(state)
	return &job, nil
}
