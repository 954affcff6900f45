// Package exitcode defines the exit codes returned by the pipewright CLI.
// External tools integrating with pipewright can check these symbolically
// rather than using magic numbers.
package exitcode

const (
	// Success indicates the run completed with every executed step passing.
	Success = 0

	// RunFailure indicates a pipeline step failed (format, lint, build,
	// test, or publish).
	RunFailure = 1

	// ConfigError indicates the pipeline configuration is missing, invalid,
	// or failed validation.
	ConfigError = 2

	// EnvError indicates an environment problem (missing external tool,
	// unusable workspace, unreachable source repository).
	EnvError = 3
)
