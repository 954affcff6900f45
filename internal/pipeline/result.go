package pipeline

import (
	"time"

	"github.com/pipewright/pipewright/internal/event"
	"github.com/pipewright/pipewright/internal/step"
)

// JobStatus is the final state of one matrix job.
type JobStatus string

const (
	JobSuccess JobStatus = "success"
	JobFailed  JobStatus = "failed"
	JobTimeout JobStatus = "timeout"
)

// JobResult holds the execution record of one matrix entry.
type JobResult struct {
	Runner   string        `json:"runner"`
	Status   JobStatus     `json:"status"`
	Steps    []step.Record `json:"steps"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// Degraded reports whether any step degraded (cache problems) while the job
// still passed.
func (j *JobResult) Degraded() bool {
	for _, rec := range j.Steps {
		if rec.Outcome == step.OutcomeDegraded {
			return true
		}
	}
	return false
}

// StepRecord returns the record for a named step, if it was reached.
func (j *JobResult) StepRecord(name string) (step.Record, bool) {
	for _, rec := range j.Steps {
		if rec.Step == name {
			return rec, true
		}
	}
	return step.Record{}, false
}

// RunResult is the outcome of a whole verification run.
type RunResult struct {
	RunID    string        `json:"run_id"`
	Event    event.Event   `json:"event"`
	Jobs     []JobResult   `json:"jobs"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

// Success reports whether every job passed. The run status is the AND over
// all executed steps of all jobs.
func (r *RunResult) Success() bool {
	for i := range r.Jobs {
		if r.Jobs[i].Status != JobSuccess {
			return false
		}
	}
	return true
}

// Job returns the result for a runner, if present.
func (r *RunResult) Job(runner string) (*JobResult, bool) {
	for i := range r.Jobs {
		if r.Jobs[i].Runner == runner {
			return &r.Jobs[i], true
		}
	}
	return nil, false
}

// FirstError returns the first failed job's error, if any.
func (r *RunResult) FirstError() error {
	for i := range r.Jobs {
		if r.Jobs[i].Err != nil {
			return r.Jobs[i].Err
		}
	}
	return nil
}

// Outcome is the label recorded for run metrics.
func (r *RunResult) Outcome() string {
	if r.Success() {
		return "success"
	}
	for i := range r.Jobs {
		if r.Jobs[i].Status == JobTimeout {
			return "timeout"
		}
	}
	return "failed"
}
