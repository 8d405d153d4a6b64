package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/radai/aiflow/internal/pipeline"
	"github.com/radai/aiflow/internal/worker/storage"
	"github.com/radai/aiflow/shared/rabbitmq"
)

// jobMessage carries a dispatched conversion task from the consumer to a
// pool goroutine, keeping the delivery tag for the later ack/nack.
type jobMessage struct {
	JobID       string
	DeliveryTag uint64
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	Storage       *storage.Storage
	RabbitClient  *rabbitmq.Client
	Runner        *pipeline.Runner
	Concurrency   int
	JobTimeout    time.Duration
	PrefetchCount int
	QueueName     string
}

// Worker consumes conversion tasks from RabbitMQ and runs them through the
// conversion pipeline, one job per pool goroutine.
type Worker struct {
	logger        *slog.Logger
	storage       *storage.Storage
	rabbitClient  *rabbitmq.Client
	runner        *pipeline.Runner
	workerID      string
	concurrency   int
	jobTimeout    time.Duration
	prefetchCount int
	queueName     string

	jobsChan chan *jobMessage
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "worker"
	}

	return &Worker{
		logger:        cfg.Logger,
		storage:       cfg.Storage,
		rabbitClient:  cfg.RabbitClient,
		runner:        cfg.Runner,
		workerID:      fmt.Sprintf("%s-%s", hostname, uuid.New().String()[:8]),
		concurrency:   cfg.Concurrency,
		jobTimeout:    cfg.JobTimeout,
		prefetchCount: cfg.PrefetchCount,
		queueName:     cfg.QueueName,
		jobsChan:      make(chan *jobMessage),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming and processing conversion jobs. Blocks until the
// context is canceled or the delivery channel closes.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)

	w.startMessageDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker pool, waiting for in-flight jobs.
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...", slog.String("worker_id", w.workerID))
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped", slog.String("worker_id", w.workerID))
}
