// Package eventstore persists run lifecycle events in an append-only log,
// backed by SQLite. The daemon's status page and run history are projections
// over this log.
package eventstore

import "time"

// Event types recorded for a verification run.
const (
	TypeRunStarted   = "run.started"
	TypeStepFinished = "step.finished"
	TypeRunCompleted = "run.completed"
)

// Event is one persisted log entry.
type Event struct {
	ID        int64             `json:"id"`
	RunID     string            `json:"run_id"`
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   []byte            `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// RunStartedPayload is the payload for TypeRunStarted.
type RunStartedPayload struct {
	EventKind  string `json:"event_kind"`
	Repository string `json:"repository"`
	Ref        string `json:"ref"`
	Commit     string `json:"commit"`
}

// StepFinishedPayload is the payload for TypeStepFinished.
type StepFinishedPayload struct {
	Runner     string `json:"runner"`
	Step       string `json:"step"`
	Outcome    string `json:"outcome"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// RunCompletedPayload is the payload for TypeRunCompleted.
type RunCompletedPayload struct {
	Outcome    string `json:"outcome"`
	DurationMS int64  `json:"duration_ms"`
}
