package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipewright/pipewright/internal/event"
	"github.com/pipewright/pipewright/internal/pipeline"
)

// blockingExecutor counts runs and can hold jobs until released.
type blockingExecutor struct {
	runs    atomic.Int32
	release chan struct{}
	fail    bool
}

func (e *blockingExecutor) Run(ctx context.Context, ev event.Event) (*pipeline.RunResult, error) {
	e.runs.Add(1)
	if e.release != nil {
		select {
		case <-e.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	result := &pipeline.RunResult{
		RunID: "run-" + ev.Commit,
		Event: ev,
		Jobs:  []pipeline.JobResult{{Runner: "linux", Status: pipeline.JobSuccess}},
	}
	if e.fail {
		result.Jobs[0].Status = pipeline.JobFailed
		result.Jobs[0].Err = errors.New("build failed")
	}
	return result, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition not met in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestEnqueueAndProcess(t *testing.T) {
	exec := &blockingExecutor{}
	q := New(10, 1, exec)
	q.Start(context.Background())
	defer q.Stop(context.Background())

	job := &RunJob{ID: "j1", Type: RunTypeManual, Event: event.Push("acme/widget", "main", "abc")}
	require.NoError(t, q.Enqueue(job))

	waitFor(t, func() bool {
		snap, ok := q.JobSnapshot("j1")
		return ok && snap.Status == RunStatusCompleted
	})

	snap, ok := q.JobSnapshot("j1")
	require.True(t, ok)
	assert.Equal(t, "run-abc", snap.RunID)
	assert.NotNil(t, snap.StartedAt)
	assert.NotNil(t, snap.CompletedAt)
}

func TestFailedRunMarksJobFailed(t *testing.T) {
	exec := &blockingExecutor{fail: true}
	q := New(10, 1, exec)
	q.Start(context.Background())
	defer q.Stop(context.Background())

	require.NoError(t, q.Enqueue(&RunJob{ID: "j1", Event: event.Push("acme/widget", "main", "abc")}))
	waitFor(t, func() bool {
		snap, ok := q.JobSnapshot("j1")
		return ok && snap.Status == RunStatusFailed
	})

	snap, _ := q.JobSnapshot("j1")
	assert.Contains(t, snap.Error, "build failed")
}

func TestSingleFlightPerCommit(t *testing.T) {
	exec := &blockingExecutor{release: make(chan struct{})}
	q := New(10, 1, exec)
	q.Start(context.Background())
	defer func() {
		close(exec.release)
		q.Stop(context.Background())
	}()

	require.NoError(t, q.Enqueue(&RunJob{ID: "j1", Event: event.Push("acme/widget", "main", "abc")}))
	err := q.Enqueue(&RunJob{ID: "j2", Event: event.Push("acme/widget", "main", "abc")})
	assert.ErrorIs(t, err, ErrDuplicate)

	// A different commit is accepted.
	require.NoError(t, q.Enqueue(&RunJob{ID: "j3", Event: event.Push("acme/widget", "main", "def")}))
}

func TestQueueFull(t *testing.T) {
	exec := &blockingExecutor{release: make(chan struct{})}
	q := New(1, 1, exec)
	// Not started: jobs stay in the channel.

	require.NoError(t, q.Enqueue(&RunJob{ID: "j1", Event: event.Push("acme/widget", "main", "c1")}))
	err := q.Enqueue(&RunJob{ID: "j2", Event: event.Push("acme/widget", "main", "c2")})
	assert.ErrorIs(t, err, ErrQueueFull)

	// The rejected job's commit is released for future enqueues.
	q2 := New(10, 1, exec)
	require.NoError(t, q2.Enqueue(&RunJob{ID: "j3", Event: event.Push("acme/widget", "main", "c2")}))
}

func TestEnqueueValidation(t *testing.T) {
	q := New(10, 1, &blockingExecutor{})
	assert.Error(t, q.Enqueue(nil))
	assert.Error(t, q.Enqueue(&RunJob{}))
}

func TestHistoryNewestFirst(t *testing.T) {
	exec := &blockingExecutor{}
	q := New(10, 1, exec)
	q.Start(context.Background())
	defer q.Stop(context.Background())

	require.NoError(t, q.Enqueue(&RunJob{ID: "j1", Event: event.Push("acme/widget", "main", "c1")}))
	waitFor(t, func() bool { _, ok := q.JobSnapshot("j1"); return ok && len(q.History()) == 1 })
	require.NoError(t, q.Enqueue(&RunJob{ID: "j2", Event: event.Push("acme/widget", "main", "c2")}))
	waitFor(t, func() bool { return len(q.History()) == 2 })

	history := q.History()
	assert.Equal(t, "j2", history[0].ID)
	assert.Equal(t, "j1", history[1].ID)
}

func TestCancelRunningJob(t *testing.T) {
	exec := &blockingExecutor{release: make(chan struct{})}
	q := New(10, 1, exec)
	q.Start(context.Background())
	defer q.Stop(context.Background())

	require.NoError(t, q.Enqueue(&RunJob{ID: "j1", Event: event.Push("acme/widget", "main", "abc")}))
	waitFor(t, func() bool {
		snap, ok := q.JobSnapshot("j1")
		return ok && snap.Status == RunStatusRunning
	})

	require.True(t, q.Cancel("j1"))
	waitFor(t, func() bool {
		snap, ok := q.JobSnapshot("j1")
		return ok && snap.Status == RunStatusCanceled
	})

	assert.False(t, q.Cancel("j1"), "completed jobs cannot be canceled")
	assert.False(t, q.Cancel("nope"))
}
