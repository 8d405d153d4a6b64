package dto

import (
	"time"

	"github.com/radai/aiflow/internal/conversion"
)

type DocumentDTO struct {
	ID             string `json:"id"`
	FileName       string `json:"file_name"`
	FileType       string `json:"file_type"`
	FileSize       int64  `json:"file_size"`
	Title          string `json:"title,omitempty"`
	DocumentNumber string `json:"document_number,omitempty"`
	ProjectName    string `json:"project_name,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type ListDocumentsRequest struct {
	ProjectName string `form:"project_name"`
	PageSize    int    `form:"page_size"`
	Cursor      string `form:"cursor"`
}

type ListDocumentsResponse struct {
	Documents  []DocumentDTO `json:"documents"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func NewDocumentDTO(doc *conversion.Document) DocumentDTO {
	return DocumentDTO{
		ID:             doc.ID,
		FileName:       doc.FileName,
		FileType:       doc.FileType,
		FileSize:       doc.FileSize,
		Title:          doc.Title,
		DocumentNumber: doc.DocumentNumber,
		ProjectName:    doc.ProjectName,
		CreatedAt:      doc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      doc.UpdatedAt.Format(time.RFC3339),
	}
}
