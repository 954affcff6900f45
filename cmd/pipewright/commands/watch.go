package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/pipewright/pipewright/internal/config"
	"github.com/pipewright/pipewright/internal/event"
	"github.com/pipewright/pipewright/internal/logfields"
	"github.com/pipewright/pipewright/internal/report"
	"github.com/pipewright/pipewright/internal/watch"
)

// WatchCmd implements the 'watch' command: a local pre-push feedback loop
// that re-runs verification when the working tree changes.
type WatchCmd struct {
	Path     string        `short:"p" help:"Directory to watch" default:"."`
	Branch   string        `short:"b" help:"Branch the synthetic push event points at" default:"main"`
	Debounce time.Duration `help:"Quiet period before a change triggers a run" default:"500ms"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	engine, err := BuildEngine(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runOnce := func() {
		ev := event.Push(cfg.Repository.Name, w.Branch, "")
		result, err := engine.Run(ctx, ev)
		if err != nil {
			slog.Error("verification run failed", logfields.Error(err))
			return
		}
		fmt.Print(report.Markdown(result))
	}

	slog.Info("watching for changes", logfields.Path(w.Path))
	runOnce()
	return watch.New(w.Path, w.Debounce, runOnce).Run(ctx)
}
