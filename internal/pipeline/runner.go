package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/radai/aiflow/internal/blobstore"
	"github.com/radai/aiflow/internal/conversion"
	"github.com/radai/aiflow/internal/llm"
)

// AIClient is the slice of the AI adapter the runner needs.
type AIClient interface {
	ExtractPFD(ctx context.Context, image []byte, contentType string) (*llm.PFDAnalysis, error)
	GeneratePIDSpec(ctx context.Context, analysis *llm.PFDAnalysis) (*llm.PIDSpec, error)
	GenerateInstruments(ctx context.Context, spec *llm.PIDSpec) ([]llm.Instrument, error)
	GenerateValves(ctx context.Context, spec *llm.PIDSpec) ([]llm.Valve, error)
}

// ArtifactGenerator turns structured AI output into downloadable documents.
type ArtifactGenerator interface {
	AssumptionsReport(spec *llm.PIDSpec) *conversion.ArtifactData
	InstrumentList(instruments []llm.Instrument) (*conversion.ArtifactData, error)
	ValveList(valves []llm.Valve) (*conversion.ArtifactData, error)
	DrawingSVG(spec *llm.PIDSpec) (*conversion.ArtifactData, error)
}

// Runner drives one conversion job through the full stage sequence,
// advancing the tracker after each stage. Any stage failure marks the job
// FAILED and stops; later stages never run and their artifacts never exist.
type Runner struct {
	tracker *Tracker
	store   JobStore
	blobs   blobstore.Store
	ai      AIClient
	gen     ArtifactGenerator
	logger  *slog.Logger
}

func NewRunner(tracker *Tracker, store JobStore, blobs blobstore.Store, ai AIClient, gen ArtifactGenerator, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		tracker: tracker,
		store:   store,
		blobs:   blobs,
		ai:      ai,
		gen:     gen,
		logger:  logger,
	}
}

// Run executes the job end-to-end. The returned error is the stage failure
// (already recorded on the job) or nil on success.
func (r *Runner) Run(ctx context.Context, jobID string) error {
	state, err := r.tracker.Get(ctx, jobID)
	if err != nil {
		return err
	}
	job := state.Job
	if conversion.IsTerminal(job.Status) {
		return fmt.Errorf("%w: job %s is already %s", conversion.ErrInvalidTransition, jobID, job.Status)
	}

	doc, err := r.store.GetDocument(ctx, job.DocumentID)
	if err != nil {
		return r.fail(ctx, jobID, fmt.Errorf("failed to load document: %w", err))
	}
	image, err := r.blobs.Get(ctx, doc.StorageKey)
	if err != nil {
		return r.fail(ctx, jobID, fmt.Errorf("failed to load document file: %w", err))
	}

	r.logger.Info("Conversion started",
		slog.String("job_id", jobID),
		slog.String("document_id", doc.ID),
		slog.String("file_name", doc.FileName),
	)

	// Stage 0: extract
	analysis, err := r.ai.ExtractPFD(ctx, image, contentTypeForFile(doc.FileType))
	if err != nil {
		return r.fail(ctx, jobID, err)
	}
	if _, err := r.tracker.Advance(ctx, jobID, conversion.StageResult{
		Stage:          conversion.StageExtract,
		EquipmentCount: len(analysis.Equipment),
	}); err != nil {
		return err
	}

	// Stage 1: generate_spec
	spec, err := r.ai.GeneratePIDSpec(ctx, analysis)
	if err != nil {
		return r.fail(ctx, jobID, err)
	}
	if _, err := r.tracker.Advance(ctx, jobID, conversion.StageResult{
		Stage:    conversion.StageGenerateSpec,
		Artifact: r.gen.AssumptionsReport(spec),
	}); err != nil {
		return err
	}

	// Stage 2: generate_instruments
	instruments, err := r.ai.GenerateInstruments(ctx, spec)
	if err != nil {
		return r.fail(ctx, jobID, err)
	}
	instrumentList, err := r.gen.InstrumentList(instruments)
	if err != nil {
		return r.fail(ctx, jobID, err)
	}
	if _, err := r.tracker.Advance(ctx, jobID, conversion.StageResult{
		Stage:           conversion.StageGenerateInstruments,
		Artifact:        instrumentList,
		InstrumentCount: len(instruments),
	}); err != nil {
		return err
	}

	// Stage 3: generate_valves
	valves, err := r.ai.GenerateValves(ctx, spec)
	if err != nil {
		return r.fail(ctx, jobID, err)
	}
	valveList, err := r.gen.ValveList(valves)
	if err != nil {
		return r.fail(ctx, jobID, err)
	}
	if _, err := r.tracker.Advance(ctx, jobID, conversion.StageResult{
		Stage:      conversion.StageGenerateValves,
		Artifact:   valveList,
		ValveCount: len(valves),
	}); err != nil {
		return err
	}

	// Stage 4: render_drawing
	drawing, err := r.gen.DrawingSVG(spec)
	if err != nil {
		return r.fail(ctx, jobID, err)
	}
	if _, err := r.tracker.Advance(ctx, jobID, conversion.StageResult{
		Stage:    conversion.StageRenderDrawing,
		Artifact: drawing,
	}); err != nil {
		return err
	}

	r.logger.Info("Conversion succeeded", slog.String("job_id", jobID))
	return nil
}

func (r *Runner) fail(ctx context.Context, jobID string, cause error) error {
	if ferr := r.tracker.Fail(ctx, jobID, cause); ferr != nil {
		r.logger.Error("Failed to record job failure",
			slog.String("job_id", jobID),
			slog.String("error", ferr.Error()),
		)
	}
	return cause
}

// contentTypeForFile normalizes a stored file type (bare extension or
// full MIME type) to the MIME type the vision API expects.
func contentTypeForFile(fileType string) string {
	switch fileType {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	default:
		if strings.Contains(fileType, "/") {
			return fileType
		}
		return "application/octet-stream"
	}
}
