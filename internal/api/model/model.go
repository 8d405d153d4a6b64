package model

import (
	"database/sql"
	"time"

	"github.com/radai/aiflow/internal/conversion"
)

// Document is the database row for an uploaded PFD document.
type Document struct {
	ID             string    `db:"id"`
	FileName       string    `db:"file_name"`
	FileType       string    `db:"file_type"`
	FileSize       int64     `db:"file_size"`
	Title          string    `db:"title"`
	DocumentNumber string    `db:"document_number"`
	ProjectName    string    `db:"project_name"`
	StorageKey     string    `db:"storage_key"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// ConversionJob is the database row for a conversion job.
type ConversionJob struct {
	ID              string       `db:"id"`
	DocumentID      string       `db:"document_id"`
	Stage           int          `db:"stage"`
	StageName       string       `db:"stage_name"`
	Status          string       `db:"status"`
	ProgressPct     int          `db:"progress_pct"`
	ErrorMessage    string       `db:"error_message"`
	WorkerID        string       `db:"worker_id"`
	EquipmentCount  int          `db:"equipment_count"`
	InstrumentCount int          `db:"instrument_count"`
	ValveCount      int          `db:"valve_count"`
	StartedAt       sql.NullTime `db:"started_at"`
	CompletedAt     sql.NullTime `db:"completed_at"`
	CreatedAt       time.Time    `db:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at"`
}

// Artifact is the database row for a generated artifact.
type Artifact struct {
	ID          string    `db:"id"`
	JobID       string    `db:"job_id"`
	Kind        string    `db:"kind"`
	StorageKey  string    `db:"storage_key"`
	ContentType string    `db:"content_type"`
	SizeBytes   int64     `db:"size_bytes"`
	CreatedAt   time.Time `db:"created_at"`
}

// FromDocument converts a domain document into its row form.
func FromDocument(d *conversion.Document) *Document {
	return &Document{
		ID:             d.ID,
		FileName:       d.FileName,
		FileType:       d.FileType,
		FileSize:       d.FileSize,
		Title:          d.Title,
		DocumentNumber: d.DocumentNumber,
		ProjectName:    d.ProjectName,
		StorageKey:     d.StorageKey,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// ToDocument converts a row into the domain document.
func (m *Document) ToDocument() *conversion.Document {
	return &conversion.Document{
		ID:             m.ID,
		FileName:       m.FileName,
		FileType:       m.FileType,
		FileSize:       m.FileSize,
		Title:          m.Title,
		DocumentNumber: m.DocumentNumber,
		ProjectName:    m.ProjectName,
		StorageKey:     m.StorageKey,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromJob converts a domain job into its row form. stage_name and
// progress_pct are denormalized so the table reads without the stage table.
func FromJob(j *conversion.Job) *ConversionJob {
	row := &ConversionJob{
		ID:              j.ID,
		DocumentID:      j.DocumentID,
		Stage:           int(j.Stage),
		StageName:       j.Stage.String(),
		Status:          j.Status,
		ProgressPct:     j.Progress,
		ErrorMessage:    j.ErrorMessage,
		WorkerID:        j.WorkerID,
		EquipmentCount:  j.EquipmentCount,
		InstrumentCount: j.InstrumentCount,
		ValveCount:      j.ValveCount,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}
	if j.StartedAt != nil {
		row.StartedAt = sql.NullTime{Time: *j.StartedAt, Valid: true}
	}
	if j.CompletedAt != nil {
		row.CompletedAt = sql.NullTime{Time: *j.CompletedAt, Valid: true}
	}
	return row
}

// ToJob converts a row into the domain job.
func (m *ConversionJob) ToJob() *conversion.Job {
	job := &conversion.Job{
		ID:              m.ID,
		DocumentID:      m.DocumentID,
		Stage:           conversion.Stage(m.Stage),
		Status:          m.Status,
		Progress:        m.ProgressPct,
		ErrorMessage:    m.ErrorMessage,
		WorkerID:        m.WorkerID,
		EquipmentCount:  m.EquipmentCount,
		InstrumentCount: m.InstrumentCount,
		ValveCount:      m.ValveCount,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.StartedAt.Valid {
		t := m.StartedAt.Time
		job.StartedAt = &t
	}
	if m.CompletedAt.Valid {
		t := m.CompletedAt.Time
		job.CompletedAt = &t
	}
	return job
}

// FromArtifact converts a domain artifact into its row form.
func FromArtifact(a *conversion.Artifact) *Artifact {
	return &Artifact{
		ID:          a.ID,
		JobID:       a.JobID,
		Kind:        a.Kind,
		StorageKey:  a.StorageKey,
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
		CreatedAt:   a.CreatedAt,
	}
}

// ToArtifact converts a row into the domain artifact.
func (m *Artifact) ToArtifact() *conversion.Artifact {
	return &conversion.Artifact{
		ID:          m.ID,
		JobID:       m.JobID,
		Kind:        m.Kind,
		StorageKey:  m.StorageKey,
		ContentType: m.ContentType,
		SizeBytes:   m.SizeBytes,
		CreatedAt:   m.CreatedAt,
	}
}
