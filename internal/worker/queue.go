package worker

import (
	"errors"
	"time"

	"github.com/iiresodh/prequal-api/internal/domain/analysis"
	"github.com/iiresodh/prequal-api/internal/infrastructure/metrics"
)

// ErrQueueFull is returned when the save queue cannot take another task.
// The caller treats it as a dropped best-effort write.
var ErrQueueFull = errors.New("worker: save queue full")

// Task is one pending persistence write.
type Task struct {
	Record   analysis.Prequalification
	QueuedAt time.Time
}

// Queue is the in-memory buffer between request handlers and the background
// workers. Scheduling never blocks the response stream.
type Queue struct {
	tasks chan *Task
}

// NewQueue creates a queue holding at most size pending tasks.
func NewQueue(size int) *Queue {
	return &Queue{tasks: make(chan *Task, size)}
}

// Schedule enqueues a completed analysis for persistence. A full queue
// drops the task and reports ErrQueueFull.
func (q *Queue) Schedule(record analysis.Prequalification) error {
	task := &Task{Record: record, QueuedAt: time.Now()}
	select {
	case q.tasks <- task:
		metrics.SaveQueueDepth.Set(float64(len(q.tasks)))
		return nil
	default:
		metrics.AnalysisSavesTotal.WithLabelValues("dropped").Inc()
		return ErrQueueFull
	}
}

// Depth returns the number of pending tasks.
func (q *Queue) Depth() int {
	return len(q.tasks)
}

func (q *Queue) next() <-chan *Task {
	return q.tasks
}

var _ analysis.Scheduler = (*Queue)(nil)
