package step

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	founderrors "github.com/pipewright/pipewright/internal/foundation/errors"
	"github.com/pipewright/pipewright/internal/logfields"
)

// PublishStep uploads the package to the registry. Its gate is the
// conjunction that guarantees at most one publish attempt per tagged push:
// the repository matches the canonical upstream, the triggering ref is a
// version tag, and this job is the primary (linux) matrix entry.
type PublishStep struct {
	deps Deps
}

func (s *PublishStep) Name() string { return "publish" }

func (s *PublishStep) Condition(jc *JobContext) bool {
	pub := jc.Cfg.Publish
	if !pub.Enabled || s.deps.Publisher == nil {
		return false
	}
	return jc.Event.Repository == pub.CanonicalRepo &&
		jc.Event.IsVersionTag() &&
		jc.IsPrimary()
}

func (s *PublishStep) Degrades() bool { return false }

func (s *PublishStep) Run(ctx context.Context, jc *JobContext) error {
	// The registry credential is read only here, never at config load.
	token := s.deps.lookupEnv(jc.Cfg.Publish.TokenEnv)

	if !jc.Cfg.Steps.Package.Empty() {
		if err := s.deps.Commands.Run(ctx, jc.Dir, jc.Env, jc.Cfg.Steps.Package); err != nil {
			return founderrors.WrapError(err, founderrors.CategoryRegistry, "packaging failed").Build()
		}
	}

	artifact, err := os.ReadFile(filepath.Join(jc.Dir, jc.Cfg.Publish.Artifact))
	if err != nil {
		return founderrors.WrapError(err, founderrors.CategoryRegistry, "publish artifact missing").
			WithContext("artifact", jc.Cfg.Publish.Artifact).
			Build()
	}

	if err := s.deps.Publisher.Publish(ctx, token, artifact); err != nil {
		return founderrors.WrapError(err, founderrors.CategoryRegistry, "publish rejected").Build()
	}

	slog.Info("package published",
		logfields.RunID(jc.RunID),
		logfields.Ref(jc.Event.Ref),
		logfields.URL(jc.Cfg.Publish.RegistryURL))
	return nil
}
