package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cinegraph/backend/pkg/common"
)

// Job statuses, in lifecycle order.
const (
	StatusQueued  = "queued"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

var ErrNotFound = errors.New("ingest job not found")

type dbConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Job is the persisted record of one ingestion batch run. The row counters
// stay zero until the worker finishes or aborts the batch.
type Job struct {
	ID              string    `json:"id"`
	ParticipantName string    `json:"participant_name"`
	Status          string    `json:"status"`
	RowsFound       int       `json:"rows_found"`
	RowsIngested    int       `json:"rows_ingested"`
	RowsFailed      int       `json:"rows_failed"`
	Error           string    `json:"error,omitempty"`
	DurationMs      int64     `json:"duration_ms"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Store persists job records in the ingest_jobs table.
type Store struct {
	db dbConn
}

func NewStore(db dbConn) *Store {
	return &Store{db: db}
}

// Create records a freshly queued job.
func (s *Store) Create(ctx context.Context, jobID, participantName string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ingest_jobs (job_id, participant_name, status)
		VALUES ($1, $2, $3)
	`, jobID, participantName, StatusQueued)
	if err != nil {
		return fmt.Errorf("failed to create job record: %w", err)
	}
	return nil
}

// MarkRunning flips a job to running when the worker picks it up. Redelivered
// jobs pass through running again, which is fine.
func (s *Store) MarkRunning(ctx context.Context, jobID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE ingest_jobs
		SET status = $2, updated_at = now()
		WHERE job_id = $1
	`, jobID, StatusRunning)
	if err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}
	return nil
}

// Complete records a finished batch with its summary counters.
func (s *Store) Complete(ctx context.Context, jobID string, summary common.Summary, duration time.Duration) error {
	return s.finish(ctx, jobID, StatusDone, summary, "", duration)
}

// Fail records an aborted batch. The summary still carries the counts of the
// rows processed before the abort.
func (s *Store) Fail(ctx context.Context, jobID string, summary common.Summary, cause string, duration time.Duration) error {
	return s.finish(ctx, jobID, StatusFailed, summary, cause, duration)
}

func (s *Store) finish(ctx context.Context, jobID, status string, summary common.Summary, cause string, duration time.Duration) error {
	_, err := s.db.Exec(ctx, `
		UPDATE ingest_jobs
		SET status        = $2,
		    rows_found    = $3,
		    rows_ingested = $4,
		    rows_failed   = $5,
		    error         = $6,
		    duration_ms   = $7,
		    updated_at    = now()
		WHERE job_id = $1
	`, jobID, status, summary.RowsFound, summary.RowsIngested, summary.RowsFailed, cause, duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to finish job record: %w", err)
	}
	return nil
}

// Get looks one job up by id.
func (s *Store) Get(ctx context.Context, jobID string) (Job, error) {
	var j Job
	err := s.db.QueryRow(ctx, `
		SELECT job_id, participant_name, status,
		       rows_found, rows_ingested, rows_failed,
		       error, duration_ms, created_at, updated_at
		FROM ingest_jobs
		WHERE job_id = $1
	`, jobID).Scan(
		&j.ID,
		&j.ParticipantName,
		&j.Status,
		&j.RowsFound,
		&j.RowsIngested,
		&j.RowsFailed,
		&j.Error,
		&j.DurationMs,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, fmt.Errorf("failed to load job record: %w", err)
	}
	return j, nil
}
