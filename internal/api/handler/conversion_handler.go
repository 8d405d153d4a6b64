package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/radai/aiflow/internal/api/dto"
	"github.com/radai/aiflow/internal/api/storage"
	"github.com/radai/aiflow/internal/conversion"
)

// conversionTask is the queue message consumed by the worker service.
type conversionTask struct {
	JobID string `json:"job_id"`
}

// StartConversion handles POST /api/v1/conversions
// Creates a PENDING conversion job for a document and queues it.
func (h *ConversionHandler) StartConversion(c *gin.Context) {
	h.logger.Info("StartConversion called",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
	)

	var req dto.StartConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "document_id is required",
		})
		return
	}

	if _, err := uuid.Parse(req.DocumentID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "document_id must be a valid UUID",
		})
		return
	}

	jobID, err := h.tracker.Start(c.Request.Context(), req.DocumentID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	job, err := h.store.GetJob(c.Request.Context(), jobID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	body, err := json.Marshal(conversionTask{JobID: job.ID})
	if err != nil {
		writeError(c, h.logger, fmt.Errorf("failed to encode task: %w", err))
		return
	}

	if err := h.publisher.PublishWithRetry(c.Request.Context(), body, "application/json"); err != nil {
		writeError(c, h.logger, fmt.Errorf("failed to queue conversion: %w", err))
		return
	}

	h.logger.Info("Conversion queued",
		slog.String("job_id", job.ID),
		slog.String("document_id", job.DocumentID),
	)

	c.JSON(http.StatusAccepted, dto.NewConversionDTO(job, nil))
}

// GetConversion handles GET /api/v1/conversions/:job_id
// Returns the job state including stage name, progress and artifacts.
func (h *ConversionHandler) GetConversion(c *gin.Context) {
	jobID := c.Param("job_id")

	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	job, err := h.store.GetJob(c.Request.Context(), jobID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	artifacts, err := h.store.ListArtifacts(c.Request.Context(), jobID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewConversionDTO(job, artifacts))
}

// ListConversions handles GET /api/v1/conversions
// Lists conversion jobs with optional filtering and cursor pagination
func (h *ConversionHandler) ListConversions(c *gin.Context) {
	var req dto.ListConversionsRequest
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

	jobs, err := h.store.ListJobs(c.Request.Context(), storage.JobFilter{
		Status:     req.Status,
		DocumentID: req.DocumentID,
		PageSize:   req.PageSize,
		Cursor:     cursor,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	response := dto.ListConversionsResponse{
		Conversions: make([]dto.ConversionDTO, len(jobs)),
	}
	for i := range jobs {
		response.Conversions[i] = dto.NewConversionDTO(&jobs[i], nil)
	}

	if hasMore {
		last := jobs[len(jobs)-1]
		response.NextCursor = EncodeCursor(&storage.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	c.JSON(http.StatusOK, response)
}

// DownloadArtifact handles GET /api/v1/conversions/:job_id/artifacts/:kind
// Streams the artifact file for a produced stage.
func (h *ConversionHandler) DownloadArtifact(c *gin.Context) {
	jobID := c.Param("job_id")
	kind := c.Param("kind")

	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	if !conversion.ValidArtifactKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("unknown artifact kind %q", kind),
		})
		return
	}

	artifact, err := h.store.GetArtifact(c.Request.Context(), jobID, kind)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	reader, err := h.blobs.Open(c.Request.Context(), artifact.StorageKey)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	defer reader.Close()

	fileName := filepath.Base(artifact.StorageKey)
	extraHeaders := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", fileName),
	}

	c.DataFromReader(http.StatusOK, artifact.SizeBytes, artifact.ContentType, reader, extraHeaders)
}

// DeleteConversion handles DELETE /api/v1/conversions/:job_id
// Removes the job, its artifact rows and their blobs.
func (h *ConversionHandler) DeleteConversion(c *gin.Context) {
	jobID := c.Param("job_id")

	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	artifacts, err := h.store.ListArtifacts(c.Request.Context(), jobID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	if err := h.store.DeleteJob(c.Request.Context(), jobID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	// Blob cleanup after the row delete; a leftover file is harmless,
	// a dangling row is not.
	for i := range artifacts {
		if err := h.blobs.Delete(c.Request.Context(), artifacts[i].StorageKey); err != nil {
			h.logger.Warn("Failed to delete artifact blob",
				slog.String("job_id", jobID),
				slog.String("storage_key", artifacts[i].StorageKey),
				slog.String("error", err.Error()),
			)
		}
	}

	h.logger.Info("Conversion deleted",
		slog.String("job_id", jobID),
		slog.Int("artifacts_removed", len(artifacts)),
	)

	c.Status(http.StatusNoContent)
}
