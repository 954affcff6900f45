package errors

import (
	"fmt"
	"log/slog"

	"github.com/pipewright/pipewright/internal/exitcode"
)

// CLIErrorAdapter handles error presentation and exit code determination for
// the pipewright CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return exitcode.Success
	}
	if classified, ok := AsClassified(err); ok {
		return exitCodeFromClassified(classified)
	}
	return exitcode.RunFailure
}

// exitCodeFromClassified maps ClassifiedError categories to exit codes.
func exitCodeFromClassified(err *ClassifiedError) int {
	switch err.Category() {
	case CategoryConfig, CategoryValidation:
		return exitcode.ConfigError
	case CategoryGit, CategoryNetwork, CategoryToolchain, CategoryFileSystem:
		return exitcode.EnvError
	case CategoryFormat, CategoryLint, CategoryBuild, CategoryTest,
		CategoryRegistry, CategoryTimeout, CategoryCache:
		return exitcode.RunFailure
	default:
		return exitcode.RunFailure
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	msg := fmt.Sprintf("Error (%s): %s", classified.Category(), classified.Message())
	if a.verbose {
		if cause := classified.Cause(); cause != nil {
			msg += fmt.Sprintf("\n  cause: %v", cause)
		}
		for k, v := range classified.Context() {
			msg += fmt.Sprintf("\n  %s: %v", k, v)
		}
	}
	return msg
}

// LogError writes an error to the adapter's logger at a level matching the
// error's severity.
func (a *CLIErrorAdapter) LogError(err error) {
	if err == nil {
		return
	}
	classified, ok := AsClassified(err)
	if !ok {
		a.logger.Error("command failed", slog.String("error", err.Error()))
		return
	}
	attrs := []any{
		slog.String("category", string(classified.Category())),
		slog.String("error", classified.Message()),
	}
	switch classified.Severity() {
	case SeverityWarning:
		a.logger.Warn("command degraded", attrs...)
	case SeverityInfo:
		a.logger.Info("command note", attrs...)
	default:
		a.logger.Error("command failed", attrs...)
	}
}
