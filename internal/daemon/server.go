package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pipewright/pipewright/internal/event"
	"github.com/pipewright/pipewright/internal/eventstore"
	founderrors "github.com/pipewright/pipewright/internal/foundation/errors"
	"github.com/pipewright/pipewright/internal/logfields"
	"github.com/pipewright/pipewright/internal/metrics"
	"github.com/pipewright/pipewright/internal/queue"
	"github.com/pipewright/pipewright/internal/report"
)

func (d *Daemon) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", d.handleWebhook)
	mux.HandleFunc("GET /healthz", d.handleHealth)
	mux.HandleFunc("GET /api/runs", d.handleRunList)
	mux.HandleFunc("GET /api/runs/{id}", d.handleRunDetail)
	mux.HandleFunc("GET /api/queue", d.handleQueue)
	mux.HandleFunc("GET /status", d.handleStatus)
	mux.Handle("GET /metrics", metrics.Handler(d.registry))
	return mux
}

// webhookPayload is the JSON body forges POST to /webhook.
type webhookPayload struct {
	Event      string `json:"event"` // push | pull_request
	Repository string `json:"repository"`
	Ref        string `json:"ref"`
	Commit     string `json:"commit"`
}

func (p webhookPayload) toEvent() (event.Event, error) {
	switch event.Kind(p.Event) {
	case event.KindPush, event.KindPullRequest:
	default:
		return event.Event{}, founderrors.ValidationError("unsupported event type").
			WithContext("event", p.Event).
			Build()
	}
	if p.Repository == "" || p.Ref == "" {
		return event.Event{}, founderrors.ValidationError("webhook payload requires repository and ref").Build()
	}
	return event.Event{
		Kind:       event.Kind(p.Event),
		Repository: p.Repository,
		Ref:        p.Ref,
		Commit:     p.Commit,
	}, nil
}

func (d *Daemon) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		d.httpErrors.WriteErrorResponse(w, founderrors.WrapError(err, founderrors.CategoryValidation, "invalid JSON payload").Build())
		return
	}
	ev, err := payload.toEvent()
	if err != nil {
		d.httpErrors.WriteErrorResponse(w, err)
		return
	}

	job := &queue.RunJob{
		ID:        uuid.New().String(),
		Type:      queue.RunTypeWebhook,
		Event:     ev,
		Status:    queue.RunStatusQueued,
		CreatedAt: time.Now(),
	}
	if err := d.queue.Enqueue(job); err != nil {
		switch {
		case errors.Is(err, queue.ErrDuplicate):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, queue.ErrQueueFull):
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return
	}

	slog.Info("webhook run queued",
		logfields.Job(job.ID),
		logfields.Event(payload.Event),
		logfields.Repository(ev.Repository),
		logfields.Ref(ev.Ref))
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID, "status": string(job.Status)})
}

func (d *Daemon) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"queue_length": d.queue.Length(),
	})
}

func (d *Daemon) handleRunList(w http.ResponseWriter, r *http.Request) {
	summaries, err := eventstore.RecentRuns(r.Context(), d.store, 20)
	if err != nil {
		d.httpErrors.WriteErrorResponse(w, founderrors.WrapError(err, founderrors.CategoryEventStore, "failed to load runs").Build())
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (d *Daemon) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	summary, err := eventstore.ProjectRun(r.Context(), d.store, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, eventstore.ErrRunNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
			return
		}
		d.httpErrors.WriteErrorResponse(w, founderrors.WrapError(err, founderrors.CategoryEventStore, "failed to load run").Build())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (d *Daemon) handleQueue(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"length":  d.queue.Length(),
		"active":  d.queue.ActiveJobs(),
		"history": d.queue.History(),
	})
}

func (d *Daemon) handleStatus(w http.ResponseWriter, r *http.Request) {
	summaries, err := eventstore.RecentRuns(r.Context(), d.store, 10)
	if err != nil {
		d.httpErrors.WriteErrorResponse(w, founderrors.WrapError(err, founderrors.CategoryEventStore, "failed to load runs").Build())
		return
	}
	fragment, err := report.RenderHTML(statusMarkdown(d.cfg.Repository.URL, summaries))
	if err != nil {
		d.httpErrors.WriteErrorResponse(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, statusPage, fragment)
}

func statusMarkdown(repoURL string, summaries []*eventstore.RunSummary) string {
	var b strings.Builder
	b.WriteString("# Pipewright Status\n\n")
	fmt.Fprintf(&b, "Repository: `%s`\n\n", repoURL)
	if len(summaries) == 0 {
		b.WriteString("No runs recorded yet.\n")
		return b.String()
	}
	b.WriteString("| Run | Event | Ref | Outcome | Duration |\n")
	b.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, s := range summaries {
		outcome := s.Outcome
		if s.Running() {
			outcome = "running"
		}
		fmt.Fprintf(&b, "| `%s` | %s | `%s` | %s | %s |\n",
			shortRunID(s.RunID), s.EventKind, s.Ref, outcome,
			(time.Duration(s.DurationMS) * time.Millisecond).Round(10*time.Millisecond))
	}
	return b.String()
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

const statusPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>pipewright</title>
<style>
body { font-family: sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.3rem 0.6rem; }
code { background: #f4f4f4; padding: 0.1rem 0.25rem; }
</style>
</head>
<body>
%s
</body>
</html>
`

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", logfields.Error(err))
	}
}
