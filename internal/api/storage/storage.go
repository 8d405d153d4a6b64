package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/radai/aiflow/internal/api/model"
	"github.com/radai/aiflow/internal/conversion"
	"github.com/radai/aiflow/shared/postgresql"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

// Cursor marks a position in a keyset-paginated listing.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// DocumentFilter narrows and paginates document listings.
type DocumentFilter struct {
	ProjectName string
	PageSize    int
	Cursor      *Cursor
}

// JobFilter narrows and paginates conversion job listings.
type JobFilter struct {
	Status     string
	DocumentID string
	PageSize   int
	Cursor     *Cursor
}

func (s *Storage) CreateDocument(ctx context.Context, doc *conversion.Document) error {
	row := model.FromDocument(doc)
	query := `
		INSERT INTO documents (
			id, file_name, file_type, file_size,
			title, document_number, project_name, storage_key,
			created_at, updated_at
		) VALUES (
			:id, :file_name, :file_type, :file_size,
			:title, :document_number, :project_name, :storage_key,
			:created_at, :updated_at
		)
	`

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
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

func (s *Storage) ListDocuments(ctx context.Context, filter DocumentFilter) ([]conversion.Document, error) {
	query := `
		SELECT
			id, file_name, file_type, file_size,
			title, document_number, project_name, storage_key,
			created_at, updated_at
		FROM documents
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.ProjectName != "" {
		query += fmt.Sprintf(" AND project_name = $%d", argIdx)
		args = append(args, filter.ProjectName)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.ID)
		argIdx += 2
	}

	// Order by created_at DESC, id DESC for consistent pagination
	query += " ORDER BY created_at DESC, id DESC"

	// Fetch one extra to determine if there are more results
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var rows []model.Document
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	docs := make([]conversion.Document, len(rows))
	for i := range rows {
		docs[i] = *rows[i].ToDocument()
	}
	return docs, nil
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

func (s *Storage) ListJobs(ctx context.Context, filter JobFilter) ([]conversion.Job, error) {
	query := `
		SELECT
			id, document_id, stage, stage_name, status, progress_pct,
			error_message, worker_id,
			equipment_count, instrument_count, valve_count,
			started_at, completed_at, created_at, updated_at
		FROM conversion_jobs
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.DocumentID != "" {
		query += fmt.Sprintf(" AND document_id = $%d", argIdx)
		args = append(args, filter.DocumentID)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.ID)
		argIdx += 2
	}

	query += " ORDER BY created_at DESC, id DESC"

	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var rows []model.ConversionJob
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list conversion jobs: %w", err)
	}

	jobs := make([]conversion.Job, len(rows))
	for i := range rows {
		jobs[i] = *rows[i].ToJob()
	}
	return jobs, nil
}

// DeleteJob removes a job row; artifact rows go with it via ON DELETE
// CASCADE. Blob cleanup is the caller's responsibility.
func (s *Storage) DeleteJob(ctx context.Context, jobID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversion_jobs WHERE id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("failed to delete conversion job: %w", err)
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

func (s *Storage) GetArtifact(ctx context.Context, jobID, kind string) (*conversion.Artifact, error) {
	var row model.Artifact
	query := `
		SELECT id, job_id, kind, storage_key, content_type, size_bytes, created_at
		FROM artifacts
		WHERE job_id = $1 AND kind = $2
	`

	err := s.db.GetContext(ctx, &row, query, jobID, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, conversion.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}

	return row.ToArtifact(), nil
}
