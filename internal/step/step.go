// Package step implements the pipeline's individual steps: checkout,
// toolchain install, cache restore/save, format check, lint, build, test,
// and publish. Each step carries a gating predicate evaluated against the
// job it runs in; the engine executes whatever passes the gate, in declared
// order, fail-fast.
package step

import (
	"context"
	"os"
	"time"

	"github.com/pipewright/pipewright/internal/config"
	"github.com/pipewright/pipewright/internal/event"
)

// Outcome classifies how a step ended.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailure  Outcome = "failure"
	OutcomeDegraded Outcome = "degraded" // cache steps only: job continues cold
	OutcomeSkipped  Outcome = "skipped"  // gate evaluated false
)

// Step is one unit of the per-job sequence.
type Step interface {
	// Name identifies the step in logs, reports, and metrics.
	Name() string
	// Condition is the gating predicate. A false gate records a skip.
	Condition(jc *JobContext) bool
	// Degrades reports whether a failure degrades instead of failing the
	// job. True only for the cache steps.
	Degrades() bool
	// Run executes the step. ctx carries the whole-job deadline.
	Run(ctx context.Context, jc *JobContext) error
}

// JobContext is the per-matrix-entry state shared by that job's steps.
// Jobs never share a JobContext.
type JobContext struct {
	RunID  string
	Runner string // this job's matrix OS
	// PrimaryRunner hosts the single-OS steps (format, lint, publish).
	// It is the linux matrix entry when present.
	PrimaryRunner string
	Event         event.Event
	Cfg           *config.Config
	Dir           string   // isolated job workspace
	Env           []string // materialized process environment for commands

	// CommitSHA is filled by the checkout step.
	CommitSHA string
	// CacheKey is filled by the restore step and reused by save.
	CacheKey string
}

// IsPrimary reports whether this job is the matrix entry that hosts the
// single-OS steps.
func (jc *JobContext) IsPrimary() bool {
	return jc.PrimaryRunner != "" && jc.Runner == jc.PrimaryRunner
}

// Record is the execution record of one step within one job.
type Record struct {
	Step     string        `json:"step"`
	Outcome  Outcome       `json:"outcome"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
}

// CommandRunner executes external commands. The production implementation
// shells out; tests substitute fakes.
type CommandRunner interface {
	Run(ctx context.Context, dir string, env []string, cmd config.Command) error
}

// CheckoutClient fetches source at a commit.
type CheckoutClient interface {
	CheckoutCommit(dir, sha string) (string, error)
}

// CacheStore is the keyed dependency cache.
type CacheStore interface {
	Key(workspaceDir, runner string) string
	Restore(workspaceDir, key string) (bool, error)
	Save(workspaceDir, key string) error
}

// Publisher uploads an artifact to the package registry.
type Publisher interface {
	Publish(ctx context.Context, token string, artifact []byte) error
}

// Deps aggregates the collaborators the step sequence needs.
type Deps struct {
	Commands  CommandRunner
	Checkout  CheckoutClient
	Cache     CacheStore // nil disables cache steps
	Publisher Publisher  // nil disables the publish step
	// LookupEnv resolves the registry token at publish time. Defaults to
	// os.Getenv.
	LookupEnv func(string) string
}

func (d Deps) lookupEnv(key string) string {
	if d.LookupEnv != nil {
		return d.LookupEnv(key)
	}
	return os.Getenv(key)
}

// Sequence returns the full ordered step list for one job.
func Sequence(deps Deps) []Step {
	return []Step{
		&CheckoutStep{deps: deps},
		&ToolchainStep{deps: deps},
		&CacheRestoreStep{deps: deps},
		&FormatStep{deps: deps},
		&LintStep{deps: deps},
		&BuildStep{deps: deps},
		&TestStep{deps: deps},
		&CacheSaveStep{deps: deps},
		&PublishStep{deps: deps},
	}
}
