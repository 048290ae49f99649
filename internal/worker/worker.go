package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iiresodh/prequal-api/internal/domain/analysis"
	"github.com/iiresodh/prequal-api/internal/infrastructure/metrics"
)

// Worker drains the save queue. It runs on the process context, not any
// request's: a client disconnect never cancels a scheduled save.
type Worker struct {
	id          int
	queue       *Queue
	repo        analysis.Repository
	taskTimeout time.Duration
	log         zerolog.Logger
	stopChan    chan struct{}
}

// NewWorker creates a background worker.
func NewWorker(id int, queue *Queue, repo analysis.Repository, taskTimeout time.Duration, log zerolog.Logger) *Worker {
	return &Worker{
		id:          id,
		queue:       queue,
		repo:        repo,
		taskTimeout: taskTimeout,
		log:         log.With().Int("worker_id", id).Str("component", "worker").Logger(),
		stopChan:    make(chan struct{}),
	}
}

// Start processes tasks until ctx ends or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info().Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("worker stopped by context")
			return
		case <-w.stopChan:
			w.log.Info().Msg("worker stopped")
			return
		case task := <-w.queue.next():
			w.process(ctx, task)
		}
	}
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	close(w.stopChan)
}

func (w *Worker) process(ctx context.Context, task *Task) {
	metrics.SaveQueueDepth.Set(float64(w.queue.Depth()))

	taskCtx, cancel := context.WithTimeout(ctx, w.taskTimeout)
	defer cancel()

	err := w.repo.SaveAnalysis(taskCtx, task.Record)
	if err != nil {
		// Best-effort persistence: log and move on, nothing to surface.
		metrics.AnalysisSavesTotal.WithLabelValues("error").Inc()
		w.log.Error().Err(err).
			Str("user_id", task.Record.UserID).
			Str("title", task.Record.Title).
			Dur("queued_for", time.Since(task.QueuedAt)).
			Msg("analysis save failed")
		return
	}

	metrics.AnalysisSavesTotal.WithLabelValues("ok").Inc()
	w.log.Info().
		Str("user_id", task.Record.UserID).
		Dur("queued_for", time.Since(task.QueuedAt)).
		Msg("analysis saved")
}
