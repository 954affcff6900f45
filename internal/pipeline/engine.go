// Package pipeline contains the verification engine: it expands the runner
// matrix into isolated jobs, executes each job's step sequence fail-fast
// under the whole-job timeout, and aggregates the results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pipewright/pipewright/internal/config"
	"github.com/pipewright/pipewright/internal/event"
	founderrors "github.com/pipewright/pipewright/internal/foundation/errors"
	"github.com/pipewright/pipewright/internal/logfields"
	"github.com/pipewright/pipewright/internal/metrics"
	"github.com/pipewright/pipewright/internal/step"
	"github.com/pipewright/pipewright/internal/workspace"
)

// Emitter receives run lifecycle notifications. Implementations persist them
// (eventstore) or forward them (notify); the engine treats them as
// best-effort and never fails a run over an emitter error.
type Emitter interface {
	RunStarted(ctx context.Context, runID string, ev event.Event)
	StepFinished(ctx context.Context, runID, runner string, rec step.Record)
	RunCompleted(ctx context.Context, result *RunResult)
}

// NoopEmitter discards all notifications.
type NoopEmitter struct{}

func (NoopEmitter) RunStarted(context.Context, string, event.Event)          {}
func (NoopEmitter) StepFinished(context.Context, string, string, step.Record) {}
func (NoopEmitter) RunCompleted(context.Context, *RunResult)                 {}

// MultiEmitter fans out to several emitters.
type MultiEmitter []Emitter

func (m MultiEmitter) RunStarted(ctx context.Context, runID string, ev event.Event) {
	for _, e := range m {
		e.RunStarted(ctx, runID, ev)
	}
}

func (m MultiEmitter) StepFinished(ctx context.Context, runID, runner string, rec step.Record) {
	for _, e := range m {
		e.StepFinished(ctx, runID, runner, rec)
	}
}

func (m MultiEmitter) RunCompleted(ctx context.Context, result *RunResult) {
	for _, e := range m {
		e.RunCompleted(ctx, result)
	}
}

// Engine executes verification runs.
type Engine struct {
	cfg      *config.Config
	deps     step.Deps
	recorder metrics.Recorder
	emitter  Emitter
	baseDir  string
	timeout  time.Duration
	keepWork bool
}

// Option configures engine behavior.
type Option func(*Engine)

// WithRecorder injects a metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(e *Engine) { e.recorder = rec }
}

// WithEmitter injects a run lifecycle emitter.
func WithEmitter(em Emitter) Option {
	return func(e *Engine) { e.emitter = em }
}

// WithWorkspaceBase sets the directory run workspaces are created under.
func WithWorkspaceBase(dir string) Option {
	return func(e *Engine) { e.baseDir = dir }
}

// WithTimeout overrides the configured whole-job timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithKeepWorkspace leaves run workspaces on disk for inspection.
func WithKeepWorkspace(keep bool) Option {
	return func(e *Engine) { e.keepWork = keep }
}

// New creates an engine for the given configuration and step collaborators.
func New(cfg *config.Config, deps step.Deps, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		deps:     deps,
		recorder: metrics.NoopRecorder{},
		emitter:  NoopEmitter{},
		timeout:  time.Duration(cfg.TimeoutMinutes) * time.Minute,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the full pipeline for an event. The returned error covers
// setup problems only; step failures live in the result.
func (e *Engine) Run(ctx context.Context, ev event.Event) (*RunResult, error) {
	runID := uuid.NewString()
	result := &RunResult{
		RunID:   runID,
		Event:   ev,
		Started: time.Now(),
	}

	ws := workspace.NewManager(e.baseDir)
	if err := ws.Create(); err != nil {
		return nil, founderrors.WrapError(err, founderrors.CategoryFileSystem, "workspace setup failed").Build()
	}
	if !e.keepWork {
		defer func() {
			if err := ws.Cleanup(); err != nil {
				slog.Warn("workspace cleanup failed", logfields.RunID(runID), logfields.Error(err))
			}
		}()
	}

	slog.Info("run started",
		logfields.RunID(runID),
		logfields.Event(string(ev.Kind)),
		logfields.Repository(ev.Repository),
		logfields.Ref(ev.Ref))
	e.emitter.RunStarted(ctx, runID, ev)

	primary := primaryRunner(e.cfg)
	env := environFor(e.cfg)

	results := make([]JobResult, len(e.cfg.Matrix.Runners))
	var wg sync.WaitGroup
	for i, runner := range e.cfg.Matrix.Runners {
		jobDir, err := ws.JobDir(runner)
		if err != nil {
			return nil, founderrors.WrapError(err, founderrors.CategoryFileSystem, "job workspace setup failed").
				WithContext("runner", runner).
				Build()
		}
		wg.Add(1)
		go func(idx int, runner, dir string) {
			defer wg.Done()
			results[idx] = e.runJob(ctx, runID, runner, primary, dir, env, ev)
		}(i, runner, jobDir)
	}
	wg.Wait()

	result.Jobs = results
	result.Duration = time.Since(result.Started)

	e.recorder.IncRunOutcome(result.Outcome())
	e.emitter.RunCompleted(ctx, result)

	slog.Info("run finished",
		logfields.RunID(runID),
		logfields.Outcome(result.Outcome()),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))
	return result, nil
}

// runJob executes one matrix entry's step sequence under the job timeout.
func (e *Engine) runJob(parent context.Context, runID, runner, primary, dir string, env []string, ev event.Event) JobResult {
	jobStart := time.Now()
	ctx, cancel := context.WithTimeout(parent, e.timeout)
	defer cancel()

	jc := &step.JobContext{
		RunID:         runID,
		Runner:        runner,
		PrimaryRunner: primary,
		Event:         ev,
		Cfg:           e.cfg,
		Dir:           dir,
		Env:           env,
	}

	job := JobResult{Runner: runner, Status: JobSuccess}
	for _, s := range step.Sequence(e.deps) {
		rec := e.runStep(ctx, jc, s)
		job.Steps = append(job.Steps, rec)
		e.emitter.StepFinished(ctx, runID, runner, rec)

		if rec.Outcome == step.OutcomeFailure {
			job.Err = rec.Err
			job.Status = JobFailed
			if errors.Is(rec.Err, context.DeadlineExceeded) {
				job.Status = JobTimeout
			}
			break
		}
	}

	job.Duration = time.Since(jobStart)
	e.recorder.ObserveJobDuration(runner, job.Duration)
	return job
}

// runStep evaluates the gate and executes a single step, classifying the
// outcome. Degrading steps turn their errors into degraded outcomes so the
// job continues.
func (e *Engine) runStep(ctx context.Context, jc *step.JobContext, s step.Step) step.Record {
	if !s.Condition(jc) {
		e.recorder.IncStepResult(jc.Runner, s.Name(), metrics.ResultSkipped)
		return step.Record{Step: s.Name(), Outcome: step.OutcomeSkipped}
	}

	// The job deadline may already have expired while an earlier step ran.
	if err := ctx.Err(); err != nil {
		timeoutErr := founderrors.TimeoutError("job timeout exceeded").Build()
		e.recorder.IncStepResult(jc.Runner, s.Name(), metrics.ResultFailure)
		return step.Record{
			Step:    s.Name(),
			Outcome: step.OutcomeFailure,
			Err:     fmt.Errorf("%w: %w", context.DeadlineExceeded, timeoutErr),
			Error:   timeoutErr.Error(),
		}
	}

	start := time.Now()
	err := s.Run(ctx, jc)
	rec := step.Record{
		Step:     s.Name(),
		Duration: time.Since(start),
	}

	switch {
	case err == nil:
		rec.Outcome = step.OutcomeSuccess
	case s.Degrades():
		rec.Outcome = step.OutcomeDegraded
		rec.Err = err
		rec.Error = err.Error()
		slog.Warn("step degraded",
			logfields.RunID(jc.RunID),
			logfields.Runner(jc.Runner),
			logfields.Step(s.Name()),
			logfields.Error(err))
	default:
		rec.Outcome = step.OutcomeFailure
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", context.DeadlineExceeded,
				founderrors.TimeoutError("job timeout exceeded").Build())
		}
		rec.Err = err
		rec.Error = err.Error()
		slog.Error("step failed",
			logfields.RunID(jc.RunID),
			logfields.Runner(jc.Runner),
			logfields.Step(s.Name()),
			logfields.Error(err))
	}

	if s.Name() == "publish" && rec.Outcome != step.OutcomeSkipped {
		e.recorder.IncPublishAttempt(rec.Outcome == step.OutcomeSuccess)
	}
	e.recorder.ObserveStepDuration(jc.Runner, s.Name(), rec.Duration)
	e.recorder.IncStepResult(jc.Runner, s.Name(), resultLabel(rec.Outcome))
	return rec
}

func resultLabel(o step.Outcome) metrics.ResultLabel {
	switch o {
	case step.OutcomeSuccess:
		return metrics.ResultSuccess
	case step.OutcomeDegraded:
		return metrics.ResultDegraded
	case step.OutcomeSkipped:
		return metrics.ResultSkipped
	default:
		return metrics.ResultFailure
	}
}

// environFor materializes the process environment for step commands: the
// parent environment with the configured pipeline variables appended in
// sorted order.
func environFor(cfg *config.Config) []string {
	env := os.Environ()
	keys := make([]string, 0, len(cfg.Env))
	for k := range cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, cfg.Env[k]))
	}
	return env
}
