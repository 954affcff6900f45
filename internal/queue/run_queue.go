// Package queue manages pending verification runs for the daemon: a bounded
// worker queue with per-commit single-flight, an active set, and a bounded
// history ring.
package queue

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pipewright/pipewright/internal/event"
	"github.com/pipewright/pipewright/internal/logfields"
	"github.com/pipewright/pipewright/internal/pipeline"
)

// RunType records what triggered a queued run.
type RunType string

const (
	RunTypeManual    RunType = "manual"
	RunTypeWebhook   RunType = "webhook"
	RunTypeScheduled RunType = "scheduled"
	RunTypeWatch     RunType = "watch"
)

// RunStatus is the queue-level state of a run job.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCanceled  RunStatus = "canceled"
)

// RunJob is one queued verification run.
type RunJob struct {
	ID          string        `json:"id"`
	Type        RunType       `json:"type"`
	Event       event.Event   `json:"event"`
	Status      RunStatus     `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Error       string        `json:"error,omitempty"`
	RunID       string        `json:"run_id,omitempty"` // engine run ID once started

	cancel context.CancelFunc
}

// Executor runs the pipeline for a job. Satisfied by the engine.
type Executor interface {
	Run(ctx context.Context, ev event.Event) (*pipeline.RunResult, error)
}

// Errors returned by Enqueue.
var (
	ErrQueueFull = stdErrors.New("run queue is full")
	ErrDuplicate = stdErrors.New("a run for this commit is already queued or running")
)

// RunQueue serializes verification runs through a worker pool.
type RunQueue struct {
	jobs        chan *RunJob
	workers     int
	executor    Executor
	mu          sync.RWMutex
	active      map[string]*RunJob
	byCommit    map[string]string // commit SHA -> job ID, for single-flight
	history     []*RunJob
	historySize int
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

// New creates a run queue with the given capacity and worker count.
func New(maxSize, workers int, executor Executor) *RunQueue {
	if maxSize <= 0 {
		maxSize = 100
	}
	if workers <= 0 {
		workers = 1
	}
	if executor == nil {
		panic("queue.New: executor is required")
	}
	return &RunQueue{
		jobs:        make(chan *RunJob, maxSize),
		workers:     workers,
		executor:    executor,
		active:      make(map[string]*RunJob),
		byCommit:    make(map[string]string),
		history:     make([]*RunJob, 0),
		historySize: 50,
		stopChan:    make(chan struct{}),
	}
}

// Start begins processing jobs with the configured number of workers.
func (q *RunQueue) Start(ctx context.Context) {
	slog.Info("starting run queue", slog.Int("workers", q.workers), slog.Int("capacity", cap(q.jobs)))
	for i := range q.workers {
		q.wg.Add(1)
		go q.worker(ctx, fmt.Sprintf("worker-%d", i))
	}
}

// Stop cancels active jobs and waits for workers to drain.
func (q *RunQueue) Stop(_ context.Context) {
	close(q.stopChan)

	q.mu.Lock()
	for _, job := range q.active {
		if job.cancel != nil {
			job.cancel()
		}
	}
	q.mu.Unlock()

	q.wg.Wait()
}

// Enqueue adds a run job. A job for a commit that is already queued or
// running is rejected with ErrDuplicate.
func (q *RunQueue) Enqueue(job *RunJob) error {
	if job == nil {
		return stdErrors.New("job cannot be nil")
	}
	if job.ID == "" {
		return stdErrors.New("job ID is required")
	}

	q.mu.Lock()
	if job.Event.Commit != "" {
		if _, exists := q.byCommit[job.Event.Commit]; exists {
			q.mu.Unlock()
			return ErrDuplicate
		}
	}
	job.Status = RunStatusQueued
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.Event.Commit != "" {
		q.byCommit[job.Event.Commit] = job.ID
	}
	q.mu.Unlock()

	select {
	case q.jobs <- job:
		return nil
	default:
		q.mu.Lock()
		delete(q.byCommit, job.Event.Commit)
		q.mu.Unlock()
		return ErrQueueFull
	}
}

// Length returns the number of queued (not yet started) jobs.
func (q *RunQueue) Length() int { return len(q.jobs) }

// ActiveJobs returns a snapshot of currently running jobs.
func (q *RunQueue) ActiveJobs() []*RunJob {
	q.mu.RLock()
	defer q.mu.RUnlock()

	active := make([]*RunJob, 0, len(q.active))
	for _, job := range q.active {
		cp := *job
		active = append(active, &cp)
	}
	return active
}

// History returns a snapshot of completed jobs, newest first.
func (q *RunQueue) History() []*RunJob {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]*RunJob, len(q.history))
	for i, job := range q.history {
		cp := *job
		out[len(q.history)-1-i] = &cp
	}
	return out
}

// Cancel aborts a running job. Queued jobs cannot be canceled; they drain
// through a worker first.
func (q *RunQueue) Cancel(id string) bool {
	q.mu.RLock()
	job, ok := q.active[id]
	q.mu.RUnlock()
	if !ok || job.cancel == nil {
		return false
	}
	job.cancel()
	return true
}

// JobSnapshot returns a copy of a job (active first, then history).
func (q *RunQueue) JobSnapshot(id string) (*RunJob, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if j, ok := q.active[id]; ok {
		cp := *j
		return &cp, true
	}
	for _, j := range q.history {
		if j.ID == id {
			cp := *j
			return &cp, true
		}
	}
	return nil, false
}

func (q *RunQueue) worker(ctx context.Context, workerID string) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stopChan:
			return
		case job := <-q.jobs:
			if job != nil {
				q.processJob(ctx, job, workerID)
			}
		}
	}
}

func (q *RunQueue) processJob(ctx context.Context, job *RunJob, workerID string) {
	jobCtx, cancel := context.WithCancel(ctx)
	job.cancel = cancel
	defer cancel()

	start := time.Now()
	q.mu.Lock()
	job.StartedAt = &start
	job.Status = RunStatusRunning
	q.active[job.ID] = job
	q.mu.Unlock()

	slog.Info("processing run job",
		logfields.Worker(workerID),
		logfields.Event(string(job.Event.Kind)),
		logfields.Ref(job.Event.Ref),
		slog.String("job_id", job.ID))

	result, err := q.executor.Run(jobCtx, job.Event)

	end := time.Now()
	q.mu.Lock()
	defer q.mu.Unlock()

	job.CompletedAt = &end
	job.Duration = end.Sub(start)
	switch {
	case jobCtx.Err() != nil && result == nil:
		job.Status = RunStatusCanceled
		job.Error = jobCtx.Err().Error()
	case err != nil:
		job.Status = RunStatusFailed
		job.Error = err.Error()
	case !result.Success():
		job.Status = RunStatusFailed
		job.RunID = result.RunID
		if ferr := result.FirstError(); ferr != nil {
			job.Error = ferr.Error()
		}
	default:
		job.Status = RunStatusCompleted
		job.RunID = result.RunID
	}

	delete(q.active, job.ID)
	delete(q.byCommit, job.Event.Commit)
	q.history = append(q.history, job)
	if len(q.history) > q.historySize {
		q.history = q.history[len(q.history)-q.historySize:]
	}
}
