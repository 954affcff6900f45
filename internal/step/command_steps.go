package step

import (
	"context"

	founderrors "github.com/pipewright/pipewright/internal/foundation/errors"
)

// ToolchainStep installs the language toolchain and the auxiliary runtime
// the format check depends on. Failure is fatal.
type ToolchainStep struct {
	deps Deps
}

func (s *ToolchainStep) Name() string { return "toolchain" }

func (s *ToolchainStep) Condition(jc *JobContext) bool {
	return !jc.Cfg.Steps.Toolchain.Empty() || !jc.Cfg.Steps.AuxRuntime.Empty()
}

func (s *ToolchainStep) Degrades() bool { return false }

func (s *ToolchainStep) Run(ctx context.Context, jc *JobContext) error {
	if !jc.Cfg.Steps.Toolchain.Empty() {
		if err := s.deps.Commands.Run(ctx, jc.Dir, jc.Env, jc.Cfg.Steps.Toolchain); err != nil {
			return founderrors.WrapError(err, founderrors.CategoryToolchain, "toolchain install failed").Build()
		}
	}
	if !jc.Cfg.Steps.AuxRuntime.Empty() {
		if err := s.deps.Commands.Run(ctx, jc.Dir, jc.Env, jc.Cfg.Steps.AuxRuntime); err != nil {
			return founderrors.WrapError(err, founderrors.CategoryToolchain, "auxiliary runtime install failed").Build()
		}
	}
	return nil
}

// FormatStep verifies formatting. It runs only on the primary (linux) matrix
// entry; a non-zero exit fails the job.
type FormatStep struct {
	deps Deps
}

func (s *FormatStep) Name() string                 { return "format" }
func (s *FormatStep) Condition(jc *JobContext) bool { return jc.IsPrimary() }
func (s *FormatStep) Degrades() bool               { return false }

func (s *FormatStep) Run(ctx context.Context, jc *JobContext) error {
	if err := s.deps.Commands.Run(ctx, jc.Dir, jc.Env, jc.Cfg.Steps.Format); err != nil {
		return founderrors.WrapError(err, founderrors.CategoryFormat, "formatting check failed").Build()
	}
	return nil
}

// LintStep runs static analysis with warnings escalated to errors. Primary
// matrix entry only; any finding fails the job.
type LintStep struct {
	deps Deps
}

func (s *LintStep) Name() string                 { return "lint" }
func (s *LintStep) Condition(jc *JobContext) bool { return jc.IsPrimary() }
func (s *LintStep) Degrades() bool               { return false }

func (s *LintStep) Run(ctx context.Context, jc *JobContext) error {
	if err := s.deps.Commands.Run(ctx, jc.Dir, jc.Env, jc.Cfg.Steps.Lint); err != nil {
		return founderrors.WrapError(err, founderrors.CategoryLint, "lint findings").Build()
	}
	return nil
}

// BuildStep compiles all targets with all optional features.
type BuildStep struct {
	deps Deps
}

func (s *BuildStep) Name() string                { return "build" }
func (s *BuildStep) Condition(*JobContext) bool  { return true }
func (s *BuildStep) Degrades() bool              { return false }

func (s *BuildStep) Run(ctx context.Context, jc *JobContext) error {
	if err := s.deps.Commands.Run(ctx, jc.Dir, jc.Env, jc.Cfg.Steps.Build); err != nil {
		return founderrors.WrapError(err, founderrors.CategoryBuild, "build failed").Build()
	}
	return nil
}

// TestStep runs the full test suite across all targets and features.
type TestStep struct {
	deps Deps
}

func (s *TestStep) Name() string               { return "test" }
func (s *TestStep) Condition(*JobContext) bool { return true }
func (s *TestStep) Degrades() bool             { return false }

func (s *TestStep) Run(ctx context.Context, jc *JobContext) error {
	if err := s.deps.Commands.Run(ctx, jc.Dir, jc.Env, jc.Cfg.Steps.Test); err != nil {
		return founderrors.WrapError(err, founderrors.CategoryTest, "tests failed").Build()
	}
	return nil
}
