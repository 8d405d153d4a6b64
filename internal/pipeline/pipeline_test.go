package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/radai/aiflow/internal/conversion"
)

// memStore is an in-memory JobStore for tests.
type memStore struct {
	mu        sync.Mutex
	documents map[string]*conversion.Document
	jobs      map[string]*conversion.Job
	artifacts map[string][]conversion.Artifact
}

func newMemStore() *memStore {
	return &memStore{
		documents: make(map[string]*conversion.Document),
		jobs:      make(map[string]*conversion.Job),
		artifacts: make(map[string][]conversion.Artifact),
	}
}

func (m *memStore) addDocument(doc *conversion.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.ID] = doc
}

func (m *memStore) GetDocument(_ context.Context, id string) (*conversion.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, conversion.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (m *memStore) CreateJob(_ context.Context, job *conversion.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memStore) GetJob(_ context.Context, id string) (*conversion.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, conversion.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *memStore) UpdateJob(_ context.Context, job *conversion.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; !ok {
		return conversion.ErrNotFound
	}
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memStore) AppendArtifact(_ context.Context, a *conversion.Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifacts[a.JobID] = append(m.artifacts[a.JobID], *a)
	return nil
}

func (m *memStore) ListArtifacts(_ context.Context, jobID string) ([]conversion.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]conversion.Artifact(nil), m.artifacts[jobID]...), nil
}

// memBlobs is an in-memory blob store for tests.
type memBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemBlobs() *memBlobs {
	return &memBlobs{blobs: make(map[string][]byte)}
}

func (m *memBlobs) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (m *memBlobs) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, errors.New("blob not found: " + key)
	}
	return data, nil
}

func (m *memBlobs) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, err := m.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBlobs) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

// captureSink records emitted progress events.
type captureSink struct {
	mu     sync.Mutex
	events []conversion.ProgressEvent
}

func (s *captureSink) Publish(_ context.Context, evt conversion.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
}

func (s *captureSink) all() []conversion.ProgressEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]conversion.ProgressEvent(nil), s.events...)
}

func testDocument() *conversion.Document {
	return &conversion.Document{
		ID:         "3e1f9a4e-9a7e-4f6c-8f39-4f1f2a6d0c11",
		FileName:   "pfd.png",
		FileType:   "png",
		FileSize:   4,
		StorageKey: "documents/3e1f9a4e-9a7e-4f6c-8f39-4f1f2a6d0c11/pfd.png",
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}
