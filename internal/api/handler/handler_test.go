package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radai/aiflow/internal/api/storage"
	"github.com/radai/aiflow/internal/conversion"
	"github.com/radai/aiflow/internal/pipeline"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// stubStore is an in-memory Store for handler tests.
type stubStore struct {
	docs      map[string]*conversion.Document
	jobs      map[string]*conversion.Job
	artifacts map[string][]conversion.Artifact

	createdJobs []*conversion.Job
	deletedJobs []string

	listDocsResult []conversion.Document
	listJobsResult []conversion.Job
	lastDocFilter  storage.DocumentFilter
	lastJobFilter  storage.JobFilter

	err error
}

func newStubStore() *stubStore {
	return &stubStore{
		docs:      make(map[string]*conversion.Document),
		jobs:      make(map[string]*conversion.Job),
		artifacts: make(map[string][]conversion.Artifact),
	}
}

func (s *stubStore) CreateDocument(_ context.Context, doc *conversion.Document) error {
	if s.err != nil {
		return s.err
	}
	s.docs[doc.ID] = doc
	return nil
}

func (s *stubStore) GetDocument(_ context.Context, documentID string) (*conversion.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	doc, ok := s.docs[documentID]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", documentID, conversion.ErrNotFound)
	}
	return doc, nil
}

func (s *stubStore) ListDocuments(_ context.Context, filter storage.DocumentFilter) ([]conversion.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastDocFilter = filter
	return s.listDocsResult, nil
}

func (s *stubStore) CreateJob(_ context.Context, job *conversion.Job) error {
	if s.err != nil {
		return s.err
	}
	s.jobs[job.ID] = job
	s.createdJobs = append(s.createdJobs, job)
	return nil
}

func (s *stubStore) GetJob(_ context.Context, jobID string) (*conversion.Job, error) {
	if s.err != nil {
		return nil, s.err
	}
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", jobID, conversion.ErrNotFound)
	}
	return job, nil
}

func (s *stubStore) UpdateJob(_ context.Context, job *conversion.Job) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.jobs[job.ID]; !ok {
		return fmt.Errorf("job %s: %w", job.ID, conversion.ErrNotFound)
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *stubStore) AppendArtifact(_ context.Context, artifact *conversion.Artifact) error {
	if s.err != nil {
		return s.err
	}
	s.artifacts[artifact.JobID] = append(s.artifacts[artifact.JobID], *artifact)
	return nil
}

func (s *stubStore) ListJobs(_ context.Context, filter storage.JobFilter) ([]conversion.Job, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastJobFilter = filter
	return s.listJobsResult, nil
}

func (s *stubStore) DeleteJob(_ context.Context, jobID string) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.jobs[jobID]; !ok {
		return fmt.Errorf("job %s: %w", jobID, conversion.ErrNotFound)
	}
	delete(s.jobs, jobID)
	s.deletedJobs = append(s.deletedJobs, jobID)
	return nil
}

func (s *stubStore) ListArtifacts(_ context.Context, jobID string) ([]conversion.Artifact, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.artifacts[jobID], nil
}

func (s *stubStore) GetArtifact(_ context.Context, jobID, kind string) (*conversion.Artifact, error) {
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.artifacts[jobID] {
		if s.artifacts[jobID][i].Kind == kind {
			return &s.artifacts[jobID][i], nil
		}
	}
	return nil, fmt.Errorf("artifact %s/%s: %w", jobID, kind, conversion.ErrNotFound)
}

// stubBlobs is an in-memory blobstore.Store.
type stubBlobs struct {
	blobs   map[string][]byte
	deleted []string
	err     error
}

func newStubBlobs() *stubBlobs {
	return &stubBlobs{blobs: make(map[string][]byte)}
}

func (b *stubBlobs) Put(_ context.Context, key string, data []byte) error {
	if b.err != nil {
		return b.err
	}
	b.blobs[key] = data
	return nil
}

func (b *stubBlobs) Get(_ context.Context, key string) ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	data, ok := b.blobs[key]
	if !ok {
		return nil, fmt.Errorf("blob %q: %w", key, os.ErrNotExist)
	}
	return data, nil
}

func (b *stubBlobs) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, err := b.Get(context.Background(), key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *stubBlobs) Delete(_ context.Context, key string) error {
	if b.err != nil {
		return b.err
	}
	delete(b.blobs, key)
	b.deleted = append(b.deleted, key)
	return nil
}

// stubPublisher records published task bodies.
type stubPublisher struct {
	published [][]byte
	err       error
}

func (p *stubPublisher) PublishWithRetry(_ context.Context, body []byte, _ string) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, body)
	return nil
}

// recordingSink captures progress events for assertions.
type recordingSink struct {
	events []conversion.ProgressEvent
}

func (s *recordingSink) Publish(_ context.Context, evt conversion.ProgressEvent) {
	s.events = append(s.events, evt)
}

func newTestDeps(store *stubStore, blobs *stubBlobs, publisher *stubPublisher) *Dependencies {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Dependencies{
		Logger:         logger,
		Store:          store,
		Blobs:          blobs,
		Publisher:      publisher,
		Tracker:        pipeline.NewTracker(store, blobs, nil, logger),
		MaxUploadBytes: 1 << 20,
	}
}

// newTestRouter registers the same routes the production router exposes,
// without the middleware stack.
func newTestRouter(deps *Dependencies) *gin.Engine {
	r := gin.New()

	docs := NewDocumentHandler(deps)
	convs := NewConversionHandler(deps)

	v1 := r.Group("/api/v1")
	v1.POST("/documents", docs.UploadDocument)
	v1.GET("/documents", docs.ListDocuments)
	v1.GET("/documents/:document_id", docs.GetDocument)
	v1.POST("/conversions", convs.StartConversion)
	v1.GET("/conversions", convs.ListConversions)
	v1.GET("/conversions/:job_id", convs.GetConversion)
	v1.GET("/conversions/:job_id/artifacts/:kind", convs.DownloadArtifact)
	v1.DELETE("/conversions/:job_id", convs.DeleteConversion)

	return r
}

func doRequest(t *testing.T, r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCursorRoundtrip(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC)
	encoded := EncodeCursor(&storage.Cursor{CreatedAt: created, ID: "job-1"})

	decoded, err := DecodeCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, "job-1", decoded.ID)
	assert.True(t, decoded.CreatedAt.Equal(created))
}

func TestDecodeCursor(t *testing.T) {
	t.Run("empty cursor", func(t *testing.T) {
		cursor, err := DecodeCursor("")
		require.NoError(t, err)
		assert.Nil(t, cursor)
	})

	t.Run("not base64", func(t *testing.T) {
		_, err := DecodeCursor("%%%")
		assert.Error(t, err)
	})

	t.Run("missing separator", func(t *testing.T) {
		_, err := DecodeCursor("bm9zZXBhcmF0b3I=")
		assert.Error(t, err)
	})
}
