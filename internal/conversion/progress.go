package conversion

import (
	"context"
	"log/slog"
)

// ProgressEvent is emitted after every tracker transition so polling
// clients (and logs) can observe stage and percentage.
type ProgressEvent struct {
	JobID   string `json:"job_id"`
	Stage   string `json:"stage"`
	Percent int    `json:"percent"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ProgressSink consumes progress events. Implementations must not block
// job processing for long.
type ProgressSink interface {
	Publish(ctx context.Context, evt ProgressEvent)
}

// LogSink writes progress events to the structured log.
type LogSink struct {
	Logger *slog.Logger
}

func (s *LogSink) Publish(_ context.Context, evt ProgressEvent) {
	s.Logger.Info("Conversion progress",
		slog.String("job_id", evt.JobID),
		slog.String("stage", evt.Stage),
		slog.Int("percent", evt.Percent),
		slog.String("status", evt.Status),
	)
}
