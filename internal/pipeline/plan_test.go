package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipewright/pipewright/internal/config"
	"github.com/pipewright/pipewright/internal/event"
	"github.com/pipewright/pipewright/internal/step"
)

func planDeps() step.Deps {
	return step.Deps{
		Commands:  &scriptedRunner{},
		Checkout:  stubCheckout{},
		Cache:     &flakyCache{},
		Publisher: &countingPublisher{},
	}
}

func TestBuildPlanExpandsMatrix(t *testing.T) {
	cfg := fullConfig(t)
	plan := BuildPlan(cfg, event.Push("acme/widget", "main", "abc"), planDeps())

	require.Len(t, plan.Jobs, 3)
	for _, jp := range plan.Jobs {
		require.Len(t, jp.Steps, 9)
		assert.Equal(t, "checkout", jp.Steps[0].Name)
		assert.Equal(t, "publish", jp.Steps[8].Name)
	}
}

func TestBuildPlanGates(t *testing.T) {
	cfg := fullConfig(t)
	plan := BuildPlan(cfg, event.TagPush("acme/widget", "v1.0.0", "abc"), planDeps())

	gated := func(runner, name string) bool {
		t.Helper()
		for _, jp := range plan.Jobs {
			if jp.Runner != runner {
				continue
			}
			for _, ps := range jp.Steps {
				if ps.Name == name {
					return ps.Gated
				}
			}
		}
		t.Fatalf("step %s not found for runner %s", name, runner)
		return false
	}

	assert.False(t, gated(config.RunnerLinux, "format"))
	assert.True(t, gated(config.RunnerMacOS, "format"))
	assert.False(t, gated(config.RunnerLinux, "publish"))
	assert.True(t, gated(config.RunnerWindows, "publish"))
	// Cache save gate: tag pushes are not the main branch.
	assert.True(t, gated(config.RunnerLinux, "cache-save"))
}

func TestPrimaryRunnerSelection(t *testing.T) {
	cfg := fullConfig(t)
	assert.Equal(t, config.RunnerLinux, primaryRunner(cfg))

	cfg.Matrix.Runners = []string{config.RunnerMacOS, config.RunnerWindows}
	assert.Equal(t, "", primaryRunner(cfg), "no linux entry means no primary")
}
