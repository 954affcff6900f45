package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pipewright/pipewright/internal/cache"
	"github.com/pipewright/pipewright/internal/config"
	"github.com/pipewright/pipewright/internal/event"
	"github.com/pipewright/pipewright/internal/gitops"
	"github.com/pipewright/pipewright/internal/pipeline"
	"github.com/pipewright/pipewright/internal/registry"
	"github.com/pipewright/pipewright/internal/report"
	"github.com/pipewright/pipewright/internal/step"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Event         string `help:"Trigger event type (push or pull_request)" enum:"push,pull_request" default:"push"`
	Branch        string `short:"b" help:"Branch the event points at" default:"main"`
	Tag           string `short:"t" help:"Tag the event points at (push only, overrides --branch)"`
	Commit        string `help:"Commit SHA at the tip of the ref"`
	KeepWorkspace bool   `help:"Keep the run workspace for inspection"`
}

func (r *RunCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ev, err := r.toEvent(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	engine, err := BuildEngine(cfg, pipeline.WithKeepWorkspace(r.KeepWorkspace))
	if err != nil {
		return err
	}
	result, err := engine.Run(ctx, ev)
	if err != nil {
		return err
	}

	fmt.Fprint(os.Stdout, report.Markdown(result))
	return resultError(result)
}

// resultError turns a failed run into the command error. The first failing
// step's classification is preserved so the exit code reflects its class
// (environment errors exit 3, step failures 1).
func resultError(result *pipeline.RunResult) error {
	if result.Success() {
		return nil
	}
	if first := result.FirstError(); first != nil {
		return fmt.Errorf("verification failed: %w", first)
	}
	return errors.New("verification failed")
}

func (r *RunCmd) toEvent(cfg *config.Config) (event.Event, error) {
	repo := cfg.Repository.Name
	switch r.Event {
	case "pull_request":
		if r.Tag != "" {
			return event.Event{}, errors.New("--tag is only valid for push events")
		}
		return event.PullRequest(repo, r.Branch, r.Commit), nil
	default:
		if r.Tag != "" {
			return event.TagPush(repo, r.Tag, r.Commit), nil
		}
		return event.Push(repo, r.Branch, r.Commit), nil
	}
}

// BuildEngine wires the engine's collaborators from configuration. Shared by
// run and watch.
func BuildEngine(cfg *config.Config, opts ...pipeline.Option) (*pipeline.Engine, error) {
	deps := step.Deps{
		Commands: step.ExecRunner{},
		Checkout: gitops.NewClient(cfg.Repository.URL),
	}
	if cfg.Cache.Enabled {
		store, err := cache.NewStore(cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("open cache store: %w", err)
		}
		deps.Cache = store
	}
	if cfg.Publish.Enabled {
		deps.Publisher = registry.NewClient(cfg.Publish.RegistryURL)
	}
	return pipeline.New(cfg, deps, opts...), nil
}
