package errors

import "maps"

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryConfig represents user-facing configuration and input errors.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// CategoryGit and CategoryNetwork represent external system errors.
	CategoryGit      ErrorCategory = "git"
	CategoryNetwork  ErrorCategory = "network"
	CategoryRegistry ErrorCategory = "registry"

	// Step execution categories.
	CategoryToolchain ErrorCategory = "toolchain"
	CategoryFormat    ErrorCategory = "format"
	CategoryLint      ErrorCategory = "lint"
	CategoryBuild     ErrorCategory = "build"
	CategoryTest      ErrorCategory = "test"
	CategoryCache     ErrorCategory = "cache"
	CategoryTimeout   ErrorCategory = "timeout"

	// CategoryRuntime represents runtime and infrastructure errors.
	CategoryRuntime    ErrorCategory = "runtime"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryEventStore ErrorCategory = "eventstore"
	CategoryDaemon     ErrorCategory = "daemon"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution completely
	SeverityError   ErrorSeverity = "error"   // Fails the current operation
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	out := maps.Clone(c)
	out[key] = value
	return out
}

// Merge combines this context with another, the other taking precedence.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	if c == nil && other == nil {
		return nil
	}
	out := make(ErrorContext, len(c)+len(other))
	maps.Copy(out, c)
	maps.Copy(out, other)
	return out
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}
