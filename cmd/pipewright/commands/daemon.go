package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/pipewright/pipewright/internal/config"
	"github.com/pipewright/pipewright/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Listen  string `short:"l" help:"HTTP listen address (overrides config)"`
	DataDir string `short:"d" help:"Data directory for daemon state (overrides config)"`
}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if d.Listen != "" {
		cfg.Daemon.Listen = d.Listen
	}
	if cfg.Daemon.Listen == "" {
		cfg.Daemon.Listen = ":8420"
	}
	if d.DataDir != "" {
		cfg.Daemon.DataDir = d.DataDir
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dm, err := daemon.New(cfg)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	slog.Info("daemon starting", slog.String("config", root.Config))
	return dm.Run(ctx)
}
