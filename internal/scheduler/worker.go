package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cinebook/pkg/logger"
)

// HandlerFunc executes one claimed job. Returning an error retries or
// fails the job depending on the attempt count.
type HandlerFunc func(ctx context.Context, job *Job) error

// WorkerConfig contains polling behavior for the job worker.
type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	RetryBackoff time.Duration
	StaleAfter   time.Duration
}

func DefaultWorkerConfig() *WorkerConfig {
	return &WorkerConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    50,
		MaxAttempts:  3,
		RetryBackoff: 1 * time.Minute,
		StaleAfter:   10 * time.Minute,
	}
}

// Worker polls the jobs table and dispatches due jobs to registered
// handlers. One worker per process is enough; SKIP LOCKED claiming keeps
// extra replicas safe anyway.
type Worker struct {
	repo     Repository
	config   *WorkerConfig
	handlers map[string]HandlerFunc
	log      *logger.Logger

	mu      sync.Mutex
	done    chan struct{}
	running bool
}

func NewWorker(repo Repository, config *WorkerConfig) *Worker {
	if config == nil {
		config = DefaultWorkerConfig()
	}
	return &Worker{
		repo:     repo,
		config:   config,
		handlers: make(map[string]HandlerFunc),
		log:      logger.GetDefault(),
		done:     make(chan struct{}),
	}
}

// RegisterHandler binds a job kind to its handler. Must be called before
// Start; unregistered kinds fail their jobs immediately.
func (w *Worker) RegisterHandler(kind string, handler HandlerFunc) {
	w.handlers[kind] = handler
}

func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.run(ctx)

	w.log.Info("scheduler worker started",
		slog.Duration("poll_interval", w.config.PollInterval),
		slog.Int("batch_size", w.config.BatchSize),
	)
}

func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	close(w.done)
	w.log.Info("scheduler worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	if w.config.StaleAfter > 0 {
		w.recoverStale(ctx)
	}

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// Drain anything already due before the first tick.
	w.tick(ctx)

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-w.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) recoverStale(ctx context.Context) {
	requeued, err := w.repo.RequeueStale(ctx, time.Now().Add(-w.config.StaleAfter))
	if err != nil {
		w.log.Error("failed to requeue stale jobs", slog.String("error", err.Error()))
		return
	}
	if requeued > 0 {
		w.log.Warn("requeued stale jobs", slog.Int64("count", requeued))
	}
}

func (w *Worker) tick(ctx context.Context) {
	jobs, err := w.repo.ClaimDue(ctx, time.Now(), w.config.BatchSize)
	if err != nil {
		w.log.Error("failed to claim due jobs", slog.String("error", err.Error()))
		return
	}

	for i := range jobs {
		w.process(ctx, &jobs[i])
	}
}

func (w *Worker) process(ctx context.Context, job *Job) {
	handler, ok := w.handlers[job.Kind]
	if !ok {
		err := fmt.Errorf("no handler registered for job kind %q", job.Kind)
		w.log.Error("unhandled job", slog.String("kind", job.Kind), slog.String("job_id", job.ID.String()))
		if markErr := w.repo.MarkFailed(ctx, job.ID, err, nil); markErr != nil {
			w.log.Error("failed to mark job failed", slog.String("error", markErr.Error()))
		}
		return
	}

	if err := handler(ctx, job); err != nil {
		w.log.Error("job failed",
			slog.String("kind", job.Kind),
			slog.String("job_id", job.ID.String()),
			slog.Int("attempt", job.Attempts),
			slog.String("error", err.Error()),
		)

		var retryAt *time.Time
		if job.Attempts < w.config.MaxAttempts {
			at := time.Now().Add(w.config.RetryBackoff)
			retryAt = &at
		}
		if markErr := w.repo.MarkFailed(ctx, job.ID, err, retryAt); markErr != nil {
			w.log.Error("failed to mark job failed", slog.String("error", markErr.Error()))
		}
		return
	}

	if err := w.repo.MarkDone(ctx, job.ID); err != nil {
		w.log.Error("failed to mark job done",
			slog.String("kind", job.Kind),
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}
