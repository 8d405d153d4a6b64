package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/radai/aiflow/internal/api/dto"
	"github.com/radai/aiflow/internal/api/storage"
	"github.com/radai/aiflow/internal/blobstore"
	"github.com/radai/aiflow/internal/conversion"
)

// allowedUploadTypes maps accepted file extensions to stored content types.
var allowedUploadTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// UploadDocument handles POST /api/v1/documents
// Accepts a multipart PFD image upload with optional metadata fields.
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	h.logger.Info("UploadDocument called",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
	)

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.logger.Error("Missing upload file", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "file is required",
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	contentType, ok := allowedUploadTypes[ext]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("unsupported file type %q: expected png, jpg or jpeg", ext),
		})
		return
	}

	if fileHeader.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "uploaded file is empty",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, h.logger, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(c, h.logger, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	now := time.Now()
	doc := &conversion.Document{
		ID:             uuid.New().String(),
		FileName:       fileHeader.Filename,
		FileType:       contentType,
		FileSize:       int64(len(data)),
		Title:          c.PostForm("title"),
		DocumentNumber: c.PostForm("document_number"),
		ProjectName:    c.PostForm("project_name"),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	doc.StorageKey = blobstore.DocumentKey(doc.ID, doc.FileName)

	if err := h.blobs.Put(c.Request.Context(), doc.StorageKey, data); err != nil {
		writeError(c, h.logger, fmt.Errorf("failed to store upload: %w", err))
		return
	}

	if err := h.store.CreateDocument(c.Request.Context(), doc); err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.logger.Info("Document uploaded",
		slog.String("document_id", doc.ID),
		slog.String("file_name", doc.FileName),
		slog.Int64("file_size", doc.FileSize),
	)

	c.JSON(http.StatusCreated, dto.NewDocumentDTO(doc))
}

// GetDocument handles GET /api/v1/documents/:document_id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	documentID := c.Param("document_id")

	if _, err := uuid.Parse(documentID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "document_id must be a valid UUID",
		})
		return
	}

	doc, err := h.store.GetDocument(c.Request.Context(), documentID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewDocumentDTO(doc))
}

// ListDocuments handles GET /api/v1/documents
// Lists documents with optional filtering and cursor pagination
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	var req dto.ListDocumentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	docs, err := h.store.ListDocuments(c.Request.Context(), storage.DocumentFilter{
		ProjectName: req.ProjectName,
		PageSize:    req.PageSize,
		Cursor:      cursor,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	hasMore := len(docs) > req.PageSize
	if hasMore {
		docs = docs[:req.PageSize]
	}

	response := dto.ListDocumentsResponse{
		Documents: make([]dto.DocumentDTO, len(docs)),
	}
	for i := range docs {
		response.Documents[i] = dto.NewDocumentDTO(&docs[i])
	}

	if hasMore {
		last := docs[len(docs)-1]
		response.NextCursor = EncodeCursor(&storage.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	c.JSON(http.StatusOK, response)
}
