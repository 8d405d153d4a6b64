package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/radai/aiflow/internal/api/model"
	"github.com/radai/aiflow/internal/conversion"
)

// Storage handles all database operations for the worker. It satisfies
// pipeline.JobStore and adds the optimistic claim the worker needs.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

func (s *Storage) GetDocument(ctx context.Context, documentID string) (*conversion.Document, error) {
	var row model.Document
	query := `
		SELECT
			id, file_name, file_type, file_size,
			title, document_number, project_name, storage_key,
			created_at, updated_at
		FROM documents
		WHERE id = $1
	`

	err := s.db.GetContext(ctx, &row, query, documentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, conversion.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return row.ToDocument(), nil
}

func (s *Storage) CreateJob(ctx context.Context, job *conversion.Job) error {
	row := model.FromJob(job)
	query := `
		INSERT INTO conversion_jobs (
			id, document_id, stage, stage_name, status, progress_pct,
			error_message, worker_id,
			equipment_count, instrument_count, valve_count,
			started_at, completed_at, created_at, updated_at
		) VALUES (
			:id, :document_id, :stage, :stage_name, :status, :progress_pct,
			:error_message, :worker_id,
			:equipment_count, :instrument_count, :valve_count,
			:started_at, :completed_at, :created_at, :updated_at
		)
	`

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to create conversion job: %w", err)
	}
	return nil
}

func (s *Storage) GetJob(ctx context.Context, jobID string) (*conversion.Job, error) {
	var row model.ConversionJob
	query := `
		SELECT
			id, document_id, stage, stage_name, status, progress_pct,
			error_message, worker_id,
			equipment_count, instrument_count, valve_count,
			started_at, completed_at, created_at, updated_at
		FROM conversion_jobs
		WHERE id = $1
	`

	err := s.db.GetContext(ctx, &row, query, jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, conversion.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversion job: %w", err)
	}

	return row.ToJob(), nil
}

func (s *Storage) UpdateJob(ctx context.Context, job *conversion.Job) error {
	row := model.FromJob(job)
	query := `
		UPDATE conversion_jobs SET
			stage = :stage,
			stage_name = :stage_name,
			status = :status,
			progress_pct = :progress_pct,
			error_message = :error_message,
			worker_id = :worker_id,
			equipment_count = :equipment_count,
			instrument_count = :instrument_count,
			valve_count = :valve_count,
			started_at = :started_at,
			completed_at = :completed_at,
			updated_at = :updated_at
		WHERE id = :id
	`

	res, err := s.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("failed to update conversion job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return conversion.ErrNotFound
	}
	return nil
}

func (s *Storage) AppendArtifact(ctx context.Context, artifact *conversion.Artifact) error {
	row := model.FromArtifact(artifact)
	query := `
		INSERT INTO artifacts (
			id, job_id, kind, storage_key, content_type, size_bytes, created_at
		) VALUES (
			:id, :job_id, :kind, :storage_key, :content_type, :size_bytes, :created_at
		)
	`

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to append artifact: %w", err)
	}
	return nil
}

func (s *Storage) ListArtifacts(ctx context.Context, jobID string) ([]conversion.Artifact, error) {
	var rows []model.Artifact
	query := `
		SELECT id, job_id, kind, storage_key, content_type, size_bytes, created_at
		FROM artifacts
		WHERE job_id = $1
		ORDER BY created_at ASC, id ASC
	`

	if err := s.db.SelectContext(ctx, &rows, query, jobID); err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	artifacts := make([]conversion.Artifact, len(rows))
	for i := range rows {
		artifacts[i] = *rows[i].ToArtifact()
	}
	return artifacts, nil
}

// ClaimJob attempts to claim a job using optimistic locking
// (PENDING → RUNNING). Returns conversion.ErrJobAlreadyClaimed when another
// worker got there first or the job does not exist in PENDING state.
func (s *Storage) ClaimJob(ctx context.Context, jobID, workerID string) (*conversion.Job, error) {
	query := `
		UPDATE conversion_jobs
		SET status = $1,
		    worker_id = $2,
		    started_at = NOW(),
		    updated_at = NOW()
		WHERE id = $3
		  AND status = $4
		RETURNING
			id, document_id, stage, stage_name, status, progress_pct,
			error_message, worker_id,
			equipment_count, instrument_count, valve_count,
			started_at, completed_at, created_at, updated_at
	`

	var row model.ConversionJob
	err := s.db.QueryRowxContext(ctx, query,
		conversion.StatusRunning, workerID, jobID, conversion.StatusPending,
	).StructScan(&row)

	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("Failed to claim job - already claimed or not found",
			slog.String("job_id", jobID),
			slog.String("worker_id", workerID),
		)
		return nil, conversion.ErrJobAlreadyClaimed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	s.logger.Info("Job claimed successfully",
		slog.String("job_id", jobID),
		slog.String("worker_id", workerID),
	)

	return row.ToJob(), nil
}

// Touch bumps updated_at on a running job so stalled-job sweeps can tell
// live work from dead workers.
func (s *Storage) Touch(ctx context.Context, jobID string) error {
	query := `
		UPDATE conversion_jobs
		SET updated_at = $1
		WHERE id = $2 AND status = $3
	`

	result, err := s.db.ExecContext(ctx, query, time.Now(), jobID, conversion.StatusRunning)
	if err != nil {
		return fmt.Errorf("failed to touch job: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		s.logger.Warn("Job touch - no rows affected (job may not be running)",
			slog.String("job_id", jobID),
		)
	}

	return nil
}
