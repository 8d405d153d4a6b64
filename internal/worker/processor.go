package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/radai/aiflow/internal/conversion"
)

// touchInterval is how often a running job's updated_at is refreshed so a
// stalled-job sweep can tell live work from dead workers.
const touchInterval = 30 * time.Second

// processJob claims a conversion job and drives it through the pipeline
// under a per-job timeout. The returned error feeds the NACK decision.
func (w *Worker) processJob(ctx context.Context, msg *jobMessage) error {
	w.logger.Info("Processing job",
		slog.String("job_id", msg.JobID),
		slog.String("worker_id", w.workerID),
	)

	// Claim the job (PENDING → RUNNING, optimistic update)
	job, err := w.storage.ClaimJob(ctx, msg.JobID, w.workerID)
	if err != nil {
		if errors.Is(err, conversion.ErrJobAlreadyClaimed) {
			w.logger.Warn("Job already claimed, skipping",
				slog.String("job_id", msg.JobID),
			)
			return err
		}
		// Database error before the claim - could be transient
		return conversion.NewRetryableError(fmt.Errorf("failed to claim job: %w", err))
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	touchDone := make(chan struct{})
	go w.touchJob(jobCtx, job.ID, touchDone)
	defer close(touchDone)

	if err := w.runner.Run(jobCtx, job.ID); err != nil {
		// The runner has already marked the job FAILED with the cause;
		// the error here only drives the NACK decision
		w.logger.Error("Conversion failed",
			slog.String("job_id", job.ID),
			slog.String("document_id", job.DocumentID),
			slog.String("error", err.Error()),
		)
		return err
	}

	w.logger.Info("Conversion finished",
		slog.String("job_id", job.ID),
		slog.String("document_id", job.DocumentID),
	)

	return nil
}

// touchJob periodically refreshes the job's updated_at while it runs.
func (w *Worker) touchJob(ctx context.Context, jobID string, done <-chan struct{}) {
	ticker := time.NewTicker(touchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return

		case <-ctx.Done():
			return

		case <-ticker.C:
			if err := w.storage.Touch(ctx, jobID); err != nil {
				w.logger.Warn("Failed to touch job",
					slog.String("job_id", jobID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
