package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/radai/aiflow/internal/blobstore"
	"github.com/radai/aiflow/internal/conversion"
)

// JobStore is the persistence the tracker needs. Implementations must make
// single-row updates atomic; the tracker adds no locking of its own because
// one worker owns a job end-to-end.
type JobStore interface {
	GetDocument(ctx context.Context, documentID string) (*conversion.Document, error)
	CreateJob(ctx context.Context, job *conversion.Job) error
	GetJob(ctx context.Context, jobID string) (*conversion.Job, error)
	UpdateJob(ctx context.Context, job *conversion.Job) error
	AppendArtifact(ctx context.Context, artifact *conversion.Artifact) error
	ListArtifacts(ctx context.Context, jobID string) ([]conversion.Artifact, error)
}

// Tracker records a conversion job's movement through the fixed stage
// sequence. Stages only move forward; a terminal job rejects every further
// transition. Each transition emits a progress event.
type Tracker struct {
	store  JobStore
	blobs  blobstore.Store
	sink   conversion.ProgressSink
	logger *slog.Logger
	now    func() time.Time
}

func NewTracker(store JobStore, blobs blobstore.Store, sink conversion.ProgressSink, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = &conversion.LogSink{Logger: logger}
	}
	return &Tracker{
		store:  store,
		blobs:  blobs,
		sink:   sink,
		logger: logger,
		now:    time.Now,
	}
}

// Start creates a PENDING job at stage 0 for the given document.
// Returns conversion.ErrNotFound when the document does not exist.
func (t *Tracker) Start(ctx context.Context, documentID string) (string, error) {
	if documentID == "" {
		return "", conversion.NewValidationError("document_id", "is required")
	}

	doc, err := t.store.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}

	now := t.now()
	job := &conversion.Job{
		ID:         uuid.New().String(),
		DocumentID: doc.ID,
		Stage:      conversion.StageExtract,
		Status:     conversion.StatusPending,
		Progress:   0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := t.store.CreateJob(ctx, job); err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}

	t.emit(ctx, job, "")
	return job.ID, nil
}

// Advance records the result of the job's current stage, persists any
// produced artifact, and moves to the next stage, or to SUCCEEDED after
// the last one. A terminal job, or a result for the wrong stage, yields
// conversion.ErrInvalidTransition.
func (t *Tracker) Advance(ctx context.Context, jobID string, result conversion.StageResult) (*conversion.JobState, error) {
	job, err := t.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if conversion.IsTerminal(job.Status) {
		return nil, fmt.Errorf("%w: job %s is already %s", conversion.ErrInvalidTransition, jobID, job.Status)
	}
	if result.Stage != job.Stage {
		return nil, fmt.Errorf("%w: job %s is at stage %s, got result for %s",
			conversion.ErrInvalidTransition, jobID, job.Stage, result.Stage)
	}

	if result.Artifact != nil {
		if err := t.persistArtifact(ctx, job, result.Artifact); err != nil {
			return nil, err
		}
	}

	if result.EquipmentCount > 0 {
		job.EquipmentCount = result.EquipmentCount
	}
	if result.InstrumentCount > 0 {
		job.InstrumentCount = result.InstrumentCount
	}
	if result.ValveCount > 0 {
		job.ValveCount = result.ValveCount
	}

	now := t.now()
	completed := job.Stage
	job.Progress = completed.PercentAfter()
	job.UpdatedAt = now
	if completed == conversion.LastStage() {
		job.Status = conversion.StatusSucceeded
		job.CompletedAt = &now
	} else {
		job.Stage = completed + 1
		job.Status = conversion.StatusRunning
		if job.StartedAt == nil {
			job.StartedAt = &now
		}
	}

	if err := t.store.UpdateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}

	t.emit(ctx, job, completed.String())
	return t.Get(ctx, jobID)
}

// Fail moves the job to FAILED with the cause's message stored. The caller
// decides whether to retry with a fresh job; the tracker never retries.
func (t *Tracker) Fail(ctx context.Context, jobID string, cause error) error {
	job, err := t.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if conversion.IsTerminal(job.Status) {
		return fmt.Errorf("%w: job %s is already %s", conversion.ErrInvalidTransition, jobID, job.Status)
	}

	now := t.now()
	job.Status = conversion.StatusFailed
	job.ErrorMessage = cause.Error()
	job.CompletedAt = &now
	job.UpdatedAt = now

	if err := t.store.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}

	t.emit(ctx, job, job.Stage.String())
	return nil
}

// Get returns the poller-visible state of a job.
func (t *Tracker) Get(ctx context.Context, jobID string) (*conversion.JobState, error) {
	job, err := t.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	artifacts, err := t.store.ListArtifacts(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &conversion.JobState{Job: *job, Artifacts: artifacts}, nil
}

func (t *Tracker) persistArtifact(ctx context.Context, job *conversion.Job, data *conversion.ArtifactData) error {
	key := blobstore.ArtifactKey(job.ID, data.Kind, artifactFileName(data.Kind))
	if err := t.blobs.Put(ctx, key, data.Data); err != nil {
		return fmt.Errorf("failed to store artifact blob: %w", err)
	}

	art := &conversion.Artifact{
		ID:          uuid.New().String(),
		JobID:       job.ID,
		Kind:        data.Kind,
		StorageKey:  key,
		ContentType: data.ContentType,
		SizeBytes:   int64(len(data.Data)),
		CreatedAt:   t.now(),
	}
	if err := t.store.AppendArtifact(ctx, art); err != nil {
		return fmt.Errorf("failed to record artifact: %w", err)
	}

	t.logger.Info("Artifact stored",
		slog.String("job_id", job.ID),
		slog.String("kind", art.Kind),
		slog.Int64("size_bytes", art.SizeBytes),
	)
	return nil
}

func (t *Tracker) emit(ctx context.Context, job *conversion.Job, stageName string) {
	if stageName == "" {
		stageName = job.Stage.String()
	}
	t.sink.Publish(ctx, conversion.ProgressEvent{
		JobID:   job.ID,
		Stage:   stageName,
		Percent: job.Progress,
		Status:  job.Status,
		Message: job.ErrorMessage,
	})
}

func artifactFileName(kind string) string {
	switch kind {
	case conversion.ArtifactDrawing:
		return "drawing.svg"
	case conversion.ArtifactAssumptionsReport:
		return "assumptions_report.txt"
	case conversion.ArtifactInstrumentList:
		return "instrument_list.xlsx"
	case conversion.ArtifactValveList:
		return "valve_list.xlsx"
	default:
		return kind
	}
}
