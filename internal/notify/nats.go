// Package notify publishes run lifecycle events to NATS for external
// consumers (dashboards, chat bots). Publication is best-effort; a broker
// outage never affects a run.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/pipewright/pipewright/internal/event"
	"github.com/pipewright/pipewright/internal/logfields"
	"github.com/pipewright/pipewright/internal/pipeline"
	"github.com/pipewright/pipewright/internal/step"
)

// Message is the JSON envelope published for every run event.
type Message struct {
	Type       string    `json:"type"` // run.started | step.finished | run.completed
	RunID      string    `json:"run_id"`
	Timestamp  time.Time `json:"timestamp"`
	Repository string    `json:"repository,omitempty"`
	Ref        string    `json:"ref,omitempty"`
	Runner     string    `json:"runner,omitempty"`
	Step       string    `json:"step,omitempty"`
	Outcome    string    `json:"outcome,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Publisher sends run events to a NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// Connect dials the NATS server. The client's own reconnect handling keeps
// the connection alive across broker restarts.
func Connect(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Name("pipewright"),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, subject: subject}, nil
}

// NewPublisher wraps an existing connection (used by tests).
func NewPublisher(conn *nats.Conn, subject string) *Publisher {
	return &Publisher{conn: conn, subject: subject}
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}

func (p *Publisher) publish(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("failed to marshal notify message", logfields.RunID(msg.RunID), logfields.Error(err))
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		slog.Warn("failed to publish notify message", logfields.RunID(msg.RunID), logfields.Error(err))
	}
}

// RunStarted implements pipeline.Emitter.
func (p *Publisher) RunStarted(_ context.Context, runID string, ev event.Event) {
	p.publish(Message{
		Type:       "run.started",
		RunID:      runID,
		Timestamp:  time.Now(),
		Repository: ev.Repository,
		Ref:        ev.Ref,
	})
}

// StepFinished implements pipeline.Emitter.
func (p *Publisher) StepFinished(_ context.Context, runID, runner string, rec step.Record) {
	p.publish(Message{
		Type:      "step.finished",
		RunID:     runID,
		Timestamp: time.Now(),
		Runner:    runner,
		Step:      rec.Step,
		Outcome:   string(rec.Outcome),
		Error:     rec.Error,
	})
}

// RunCompleted implements pipeline.Emitter.
func (p *Publisher) RunCompleted(_ context.Context, result *pipeline.RunResult) {
	p.publish(Message{
		Type:       "run.completed",
		RunID:      result.RunID,
		Timestamp:  time.Now(),
		Repository: result.Event.Repository,
		Ref:        result.Event.Ref,
		Outcome:    result.Outcome(),
	})
}
