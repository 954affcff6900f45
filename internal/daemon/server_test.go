package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipewright/pipewright/internal/config"
	"github.com/pipewright/pipewright/internal/event"
	"github.com/pipewright/pipewright/internal/eventstore"
	founderrors "github.com/pipewright/pipewright/internal/foundation/errors"
	"github.com/pipewright/pipewright/internal/pipeline"
	"github.com/pipewright/pipewright/internal/queue"
)

type stubExecutor struct{}

func (stubExecutor) Run(_ context.Context, ev event.Event) (*pipeline.RunResult, error) {
	return &pipeline.RunResult{RunID: "stub-run", Event: ev}, nil
}

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{
		Repository: config.RepositoryConfig{
			URL:        "https://example.com/acme/widget.git",
			Name:       "acme/widget",
			MainBranch: "main",
		},
	}
	return &Daemon{
		cfg:        cfg,
		store:      store,
		queue:      queue.New(4, 1, stubExecutor{}),
		registry:   prom.NewRegistry(),
		httpErrors: founderrors.NewHTTPErrorAdapter(nil),
	}
}

func postWebhook(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestWebhookEnqueuesRun(t *testing.T) {
	d := newTestDaemon(t)
	handler := d.routes()

	rec := postWebhook(t, handler, `{
		"event": "push",
		"repository": "acme/widget",
		"ref": "refs/heads/main",
		"commit": "abc123"
	}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["job_id"])
	assert.Equal(t, "queued", resp["status"])
	assert.Equal(t, 1, d.queue.Length())
}

func TestWebhookRejectsUnknownEvent(t *testing.T) {
	d := newTestDaemon(t)
	rec := postWebhook(t, d.routes(), `{"event": "deployment", "repository": "acme/widget", "ref": "refs/heads/main"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unsupported event type", body["error"])
	assert.Equal(t, "validation", body["category"])
}

func TestWebhookRejectsMissingFields(t *testing.T) {
	d := newTestDaemon(t)
	rec := postWebhook(t, d.routes(), `{"event": "push"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRejectsMalformedJSON(t *testing.T) {
	d := newTestDaemon(t)
	rec := postWebhook(t, d.routes(), `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookDuplicateCommitConflicts(t *testing.T) {
	d := newTestDaemon(t)
	handler := d.routes()
	body := `{"event": "push", "repository": "acme/widget", "ref": "refs/heads/main", "commit": "abc123"}`

	require.Equal(t, http.StatusAccepted, postWebhook(t, handler, body).Code)
	assert.Equal(t, http.StatusConflict, postWebhook(t, handler, body).Code)
}

func TestHealthEndpoint(t *testing.T) {
	d := newTestDaemon(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	d.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func seedRun(t *testing.T, store eventstore.Store, runID, outcome string) {
	t.Helper()
	ctx := context.Background()
	started, err := json.Marshal(eventstore.RunStartedPayload{
		Repository: "acme/widget",
		Ref:        "refs/heads/main",
		Commit:     "abc123",
		EventKind:  "push",
	})
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, runID, eventstore.TypeRunStarted, started, nil))

	completed, err := json.Marshal(eventstore.RunCompletedPayload{
		Outcome:    outcome,
		DurationMS: 1500,
	})
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, runID, eventstore.TypeRunCompleted, completed, nil))
}

func TestRunListAndDetail(t *testing.T) {
	d := newTestDaemon(t)
	seedRun(t, d.store, "run-1", "success")
	seedRun(t, d.store, "run-2", "failed")
	handler := d.routes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []*eventstore.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, "run-2", summaries[0].RunID)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/run-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var summary eventstore.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "success", summary.Outcome)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusPageRendersRuns(t *testing.T) {
	d := newTestDaemon(t)
	seedRun(t, d.store, "run-1", "success")

	rec := httptest.NewRecorder()
	d.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Pipewright Status")
	assert.Contains(t, rec.Body.String(), "refs/heads/main")
	assert.Contains(t, rec.Body.String(), "success")
}

func TestStatusPageWithoutRuns(t *testing.T) {
	d := newTestDaemon(t)
	rec := httptest.NewRecorder()
	d.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No runs recorded yet")
}

func TestMetricsEndpoint(t *testing.T) {
	d := newTestDaemon(t)
	rec := httptest.NewRecorder()
	d.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSchedulerDisabledWithZeroInterval(t *testing.T) {
	d := newTestDaemon(t)
	sched, err := NewScheduler(d.cfg, d.queue)
	require.NoError(t, err)
	assert.Nil(t, sched.scheduler)
	sched.Start(context.Background())
	require.NoError(t, sched.Stop(context.Background()))
}

type capturingExecutor struct {
	events chan event.Event
}

func (c *capturingExecutor) Run(_ context.Context, ev event.Event) (*pipeline.RunResult, error) {
	c.events <- ev
	return &pipeline.RunResult{RunID: "stub-run", Event: ev}, nil
}

func TestScheduledRunTargetsMainBranch(t *testing.T) {
	d := newTestDaemon(t)
	exec := &capturingExecutor{events: make(chan event.Event, 1)}
	q := queue.New(4, 1, exec)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	t.Cleanup(func() { q.Stop(context.Background()) })

	sched := &Scheduler{cfg: d.cfg, queue: q}
	sched.enqueueScheduledRun()

	select {
	case ev := <-exec.events:
		assert.Equal(t, event.KindPush, ev.Kind)
		assert.Equal(t, "refs/heads/main", ev.Ref)
		assert.Equal(t, "acme/widget", ev.Repository)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled run was not executed")
	}
}
