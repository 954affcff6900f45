package metrics

import "time"

// ResultLabel enumerates step result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailure  ResultLabel = "failure"
	ResultDegraded ResultLabel = "degraded"
	ResultSkipped  ResultLabel = "skipped"
)

// Recorder defines observability hooks for run, job, and step metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. The
// NoopRecorder allows optional injection.
type Recorder interface {
	ObserveStepDuration(runner, step string, d time.Duration)
	ObserveJobDuration(runner string, d time.Duration)
	IncStepResult(runner, step string, result ResultLabel)
	IncRunOutcome(outcome string) // outcome: success|failed|timeout
	IncPublishAttempt(success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStepDuration(string, string, time.Duration) {}
func (NoopRecorder) ObserveJobDuration(string, time.Duration)          {}
func (NoopRecorder) IncStepResult(string, string, ResultLabel)         {}
func (NoopRecorder) IncRunOutcome(string)                              {}
func (NoopRecorder) IncPublishAttempt(bool)                            {}
