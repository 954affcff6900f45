package eventstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned when a run ID has no recorded events.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is a projection of one run's event stream.
type RunSummary struct {
	RunID      string                `json:"run_id"`
	Repository string                `json:"repository"`
	Ref        string                `json:"ref"`
	Commit     string                `json:"commit"`
	EventKind  string                `json:"event_kind"`
	Started    time.Time             `json:"started"`
	Outcome    string                `json:"outcome"` // empty while running
	DurationMS int64                 `json:"duration_ms"`
	Steps      []StepFinishedPayload `json:"steps"`
}

// Running reports whether the run has not completed yet.
func (s *RunSummary) Running() bool { return s.Outcome == "" }

// ProjectRun folds a run's events into a summary.
func ProjectRun(ctx context.Context, store Store, runID string) (*RunSummary, error) {
	events, err := store.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}

	summary := &RunSummary{RunID: runID}
	for _, ev := range events {
		switch ev.Type {
		case TypeRunStarted:
			var p RunStartedPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				return nil, fmt.Errorf("decode %s: %w", ev.Type, err)
			}
			summary.Repository = p.Repository
			summary.Ref = p.Ref
			summary.Commit = p.Commit
			summary.EventKind = p.EventKind
			summary.Started = ev.Timestamp
		case TypeStepFinished:
			var p StepFinishedPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				return nil, fmt.Errorf("decode %s: %w", ev.Type, err)
			}
			summary.Steps = append(summary.Steps, p)
		case TypeRunCompleted:
			var p RunCompletedPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				return nil, fmt.Errorf("decode %s: %w", ev.Type, err)
			}
			summary.Outcome = p.Outcome
			summary.DurationMS = p.DurationMS
		}
	}
	return summary, nil
}

// RecentRuns projects summaries for the most recent runs, newest first.
func RecentRuns(ctx context.Context, store Store, limit int) ([]*RunSummary, error) {
	ids, err := store.RunIDs(ctx, limit)
	if err != nil {
		return nil, err
	}
	summaries := make([]*RunSummary, 0, len(ids))
	for _, id := range ids {
		summary, err := ProjectRun(ctx, store, id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
