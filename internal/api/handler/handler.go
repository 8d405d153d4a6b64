package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/radai/aiflow/internal/api/storage"
	"github.com/radai/aiflow/internal/blobstore"
	"github.com/radai/aiflow/internal/conversion"
)

// Store is the metadata persistence handlers depend on.
// *storage.Storage is the production implementation.
type Store interface {
	CreateDocument(ctx context.Context, doc *conversion.Document) error
	GetDocument(ctx context.Context, documentID string) (*conversion.Document, error)
	ListDocuments(ctx context.Context, filter storage.DocumentFilter) ([]conversion.Document, error)
	CreateJob(ctx context.Context, job *conversion.Job) error
	GetJob(ctx context.Context, jobID string) (*conversion.Job, error)
	ListJobs(ctx context.Context, filter storage.JobFilter) ([]conversion.Job, error)
	DeleteJob(ctx context.Context, jobID string) error
	ListArtifacts(ctx context.Context, jobID string) ([]conversion.Artifact, error)
	GetArtifact(ctx context.Context, jobID, kind string) (*conversion.Artifact, error)
}

// Publisher pushes conversion tasks onto the queue.
type Publisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// Starter creates conversion jobs through the tracking pipeline, so the
// initial job state and its progress event come from one place.
// *pipeline.Tracker is the production implementation.
type Starter interface {
	Start(ctx context.Context, documentID string) (string, error)
}

// Pinger reports backing-store health.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger         *slog.Logger
	Store          Store
	Blobs          blobstore.Store
	Publisher      Publisher
	Tracker        Starter
	DB             Pinger
	MaxUploadBytes int64
}

// DocumentHandler handles document upload and retrieval requests
type DocumentHandler struct {
	logger         *slog.Logger
	store          Store
	blobs          blobstore.Store
	maxUploadBytes int64
}

// NewDocumentHandler creates a new DocumentHandler instance
func NewDocumentHandler(deps *Dependencies) *DocumentHandler {
	return &DocumentHandler{
		logger:         deps.Logger,
		store:          deps.Store,
		blobs:          deps.Blobs,
		maxUploadBytes: deps.MaxUploadBytes,
	}
}

// ConversionHandler handles conversion job HTTP requests
type ConversionHandler struct {
	logger    *slog.Logger
	store     Store
	blobs     blobstore.Store
	publisher Publisher
	tracker   Starter
}

// NewConversionHandler creates a new ConversionHandler instance
func NewConversionHandler(deps *Dependencies) *ConversionHandler {
	return &ConversionHandler{
		logger:    deps.Logger,
		store:     deps.Store,
		blobs:     deps.Blobs,
		publisher: deps.Publisher,
		tracker:   deps.Tracker,
	}
}

// writeError maps domain errors onto HTTP status codes.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	var validationErr *conversion.ValidationError
	var upstreamErr *conversion.UpstreamError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.Is(err, conversion.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, conversion.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid state transition"})
	case errors.As(err, &upstreamErr):
		logger.Error("Upstream failure", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream provider failure"})
	default:
		logger.Error("Internal error", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
