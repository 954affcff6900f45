package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/pipewright/pipewright/internal/exitcode"
	founderr "github.com/pipewright/pipewright/internal/foundation/errors"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"pipewright.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run      RunCmd      `cmd:"" help:"Run the verification pipeline for a push, tag, or pull request event"`
	Validate ValidateCmd `cmd:"" help:"Validate the pipeline configuration without running anything"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
	Watch    WatchCmd    `cmd:"" help:"Watch the working tree and run verification on changes"`
	Daemon   DaemonCmd   `cmd:"" help:"Start daemon mode: webhooks, scheduled runs, status page"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// ExitCode maps a command error to the process exit code, printing the
// formatted error first.
func ExitCode(err error) int {
	if err == nil {
		return exitcode.Success
	}
	adapter := founderr.NewCLIErrorAdapter(false, slog.Default())
	fmt.Fprintln(os.Stderr, adapter.FormatError(err))
	return adapter.ExitCodeFor(err)
}
