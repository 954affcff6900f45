package config

import (
	founderrors "github.com/pipewright/pipewright/internal/foundation/errors"
	"github.com/pipewright/pipewright/internal/util/sets"
)

// Validate checks the configuration for problems a run would otherwise hit
// halfway through. Returns a classified validation error on the first issue.
func (c *Config) Validate() error {
	if c.Repository.URL == "" {
		return founderrors.ValidationError("repository.url is required").Build()
	}
	if c.Repository.Name == "" {
		return founderrors.ValidationError("repository.name is required").Build()
	}

	seen := sets.New[string]()
	for _, runner := range c.Matrix.Runners {
		if !KnownRunner(runner) {
			return founderrors.ValidationError("unknown matrix runner").
				WithContext("runner", runner).
				Build()
		}
		if seen.Has(runner) {
			return founderrors.ValidationError("duplicate matrix runner").
				WithContext("runner", runner).
				Build()
		}
		seen.Add(runner)
	}

	required := []struct {
		name string
		cmd  Command
	}{
		{"steps.format", c.Steps.Format},
		{"steps.lint", c.Steps.Lint},
		{"steps.build", c.Steps.Build},
		{"steps.test", c.Steps.Test},
	}
	for _, r := range required {
		if r.cmd.Empty() {
			return founderrors.ValidationError("step command is required").
				WithContext("step", r.name).
				Build()
		}
	}

	if c.Publish.Enabled {
		if c.Publish.CanonicalRepo == "" {
			return founderrors.ValidationError("publish.canonical_repo is required when publish is enabled").Build()
		}
		if c.Publish.RegistryURL == "" {
			return founderrors.ValidationError("publish.registry_url is required when publish is enabled").Build()
		}
	}

	if c.Cache.Enabled && len(c.Cache.Paths) == 0 {
		return founderrors.ValidationError("cache.paths is required when cache is enabled").Build()
	}

	return nil
}
