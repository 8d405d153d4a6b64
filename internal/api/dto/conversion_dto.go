package dto

import (
	"time"

	"github.com/radai/aiflow/internal/conversion"
)

type StartConversionRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
}

type ConversionDTO struct {
	JobID           string        `json:"job_id"`
	DocumentID      string        `json:"document_id"`
	Stage           int           `json:"stage"`
	StageName       string        `json:"stage_name"`
	Status          string        `json:"status"`
	Progress        int           `json:"progress"`
	ErrorMessage    string        `json:"error_message,omitempty"`
	EquipmentCount  int           `json:"equipment_count"`
	InstrumentCount int           `json:"instrument_count"`
	ValveCount      int           `json:"valve_count"`
	StartedAt       string        `json:"started_at,omitempty"`
	CompletedAt     string        `json:"completed_at,omitempty"`
	CreatedAt       string        `json:"created_at"`
	UpdatedAt       string        `json:"updated_at"`
	Artifacts       []ArtifactDTO `json:"artifacts"`
}

type ArtifactDTO struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	CreatedAt   string `json:"created_at"`
}

type ListConversionsRequest struct {
	Status     string `form:"status"`
	DocumentID string `form:"document_id"`
	PageSize   int    `form:"page_size"`
	Cursor     string `form:"cursor"`
}

type ListConversionsResponse struct {
	Conversions []ConversionDTO `json:"conversions"`
	NextCursor  string          `json:"next_cursor,omitempty"`
}

func NewConversionDTO(job *conversion.Job, artifacts []conversion.Artifact) ConversionDTO {
	d := ConversionDTO{
		JobID:           job.ID,
		DocumentID:      job.DocumentID,
		Stage:           int(job.Stage),
		StageName:       job.Stage.String(),
		Status:          job.Status,
		Progress:        job.Progress,
		ErrorMessage:    job.ErrorMessage,
		EquipmentCount:  job.EquipmentCount,
		InstrumentCount: job.InstrumentCount,
		ValveCount:      job.ValveCount,
		CreatedAt:       job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       job.UpdatedAt.Format(time.RFC3339),
		Artifacts:       make([]ArtifactDTO, 0, len(artifacts)),
	}
	if job.StartedAt != nil {
		d.StartedAt = job.StartedAt.Format(time.RFC3339)
	}
	if job.CompletedAt != nil {
		d.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}
	for i := range artifacts {
		d.Artifacts = append(d.Artifacts, NewArtifactDTO(&artifacts[i]))
	}
	return d
}

func NewArtifactDTO(a *conversion.Artifact) ArtifactDTO {
	return ArtifactDTO{
		ID:          a.ID,
		Kind:        a.Kind,
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
}
