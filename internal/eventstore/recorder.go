package eventstore

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pipewright/pipewright/internal/event"
	"github.com/pipewright/pipewright/internal/logfields"
	"github.com/pipewright/pipewright/internal/pipeline"
	"github.com/pipewright/pipewright/internal/step"
)

// Recorder adapts a Store to the engine's Emitter interface. Persistence is
// best-effort: failures are logged and never interrupt a run.
type Recorder struct {
	store Store
}

// NewRecorder creates a Recorder over the given store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

func (r *Recorder) append(ctx context.Context, runID, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("failed to marshal run event", logfields.RunID(runID), logfields.Error(err))
		return
	}
	if err := r.store.Append(ctx, runID, eventType, data, nil); err != nil {
		slog.Warn("failed to persist run event", logfields.RunID(runID), logfields.Error(err))
	}
}

// RunStarted records the start of a run.
func (r *Recorder) RunStarted(ctx context.Context, runID string, ev event.Event) {
	r.append(ctx, runID, TypeRunStarted, RunStartedPayload{
		EventKind:  string(ev.Kind),
		Repository: ev.Repository,
		Ref:        ev.Ref,
		Commit:     ev.Commit,
	})
}

// StepFinished records one step execution.
func (r *Recorder) StepFinished(ctx context.Context, runID, runner string, rec step.Record) {
	r.append(ctx, runID, TypeStepFinished, StepFinishedPayload{
		Runner:     runner,
		Step:       rec.Step,
		Outcome:    string(rec.Outcome),
		DurationMS: rec.Duration.Milliseconds(),
		Error:      rec.Error,
	})
}

// RunCompleted records the final run outcome.
func (r *Recorder) RunCompleted(ctx context.Context, result *pipeline.RunResult) {
	r.append(ctx, result.RunID, TypeRunCompleted, RunCompletedPayload{
		Outcome:    result.Outcome(),
		DurationMS: result.Duration.Milliseconds(),
	})
}
