package step

import (
	"context"
	"log/slog"

	founderrors "github.com/pipewright/pipewright/internal/foundation/errors"
	"github.com/pipewright/pipewright/internal/logfields"
)

// CacheRestoreStep restores the keyed dependency cache. Best-effort: a miss
// or an IO error degrades the job to a cold start instead of failing it.
type CacheRestoreStep struct {
	deps Deps
}

func (s *CacheRestoreStep) Name() string { return "cache-restore" }

func (s *CacheRestoreStep) Condition(jc *JobContext) bool {
	return jc.Cfg.Cache.Enabled && s.deps.Cache != nil
}

func (s *CacheRestoreStep) Degrades() bool { return true }

func (s *CacheRestoreStep) Run(ctx context.Context, jc *JobContext) error {
	key := s.deps.Cache.Key(jc.Dir, jc.Runner)
	jc.CacheKey = key
	hit, err := s.deps.Cache.Restore(jc.Dir, key)
	if err != nil {
		return founderrors.WrapError(err, founderrors.CategoryCache, "cache restore failed").Warning().Build()
	}
	if !hit {
		slog.Debug("cache cold", logfields.RunID(jc.RunID), logfields.Runner(jc.Runner), logfields.CacheKey(key))
	}
	return nil
}

// CacheSaveStep snapshots dependencies back into the cache. Gated to the
// main branch; best-effort like restore.
type CacheSaveStep struct {
	deps Deps
}

func (s *CacheSaveStep) Name() string { return "cache-save" }

func (s *CacheSaveStep) Condition(jc *JobContext) bool {
	if !jc.Cfg.Cache.Enabled || s.deps.Cache == nil {
		return false
	}
	return jc.Event.BranchName() == jc.Cfg.Repository.MainBranch
}

func (s *CacheSaveStep) Degrades() bool { return true }

func (s *CacheSaveStep) Run(ctx context.Context, jc *JobContext) error {
	key := jc.CacheKey
	if key == "" {
		key = s.deps.Cache.Key(jc.Dir, jc.Runner)
	}
	if err := s.deps.Cache.Save(jc.Dir, key); err != nil {
		return founderrors.WrapError(err, founderrors.CategoryCache, "cache save failed").Warning().Build()
	}
	return nil
}
