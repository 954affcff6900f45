package step

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipewright/pipewright/internal/config"
	"github.com/pipewright/pipewright/internal/event"
	founderrors "github.com/pipewright/pipewright/internal/foundation/errors"
)

// fakeRunner records executed commands and fails those listed in failOn.
type fakeRunner struct {
	executed []string
	failOn   map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, _ string, _ []string, cmd config.Command) error {
	f.executed = append(f.executed, cmd.Program())
	if f.failOn[cmd.Program()] {
		return errors.New("exit status 1")
	}
	return nil
}

type fakeCache struct {
	restored bool
	saved    bool
	hit      bool
	err      error
}

func (f *fakeCache) Key(_, runner string) string { return "deps-" + runner + "-abc" }
func (f *fakeCache) Restore(_, _ string) (bool, error) {
	f.restored = true
	return f.hit, f.err
}
func (f *fakeCache) Save(_, _ string) error {
	f.saved = true
	return f.err
}

type fakePublisher struct {
	calls  int
	tokens []string
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, token string, _ []byte) error {
	f.calls++
	f.tokens = append(f.tokens, token)
	return f.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(`
repository:
  url: https://example.com/acme/widget.git
  name: acme/widget
steps:
  toolchain: [toolchain-install]
  aux_runtime: [aux-install]
  format: [fmtcheck]
  lint: [lintrun]
  build: [buildall]
  test: [testall]
publish:
  enabled: true
  canonical_repo: acme/widget
  registry_url: https://registry.example.com/publish
cache:
  enabled: true
  paths: [deps]
`))
	require.NoError(t, err)
	return cfg
}

func newJobContext(t *testing.T, cfg *config.Config, runner string, ev event.Event) *JobContext {
	t.Helper()
	return &JobContext{
		RunID:         "run-1",
		Runner:        runner,
		PrimaryRunner: config.RunnerLinux,
		Event:         ev,
		Cfg:           cfg,
		Dir:           t.TempDir(),
	}
}

func TestFormatAndLintGateToPrimaryRunner(t *testing.T) {
	cfg := testConfig(t)
	ev := event.Push("acme/widget", "main", "abc")

	format := &FormatStep{}
	lint := &LintStep{}

	assert.True(t, format.Condition(newJobContext(t, cfg, config.RunnerLinux, ev)))
	assert.True(t, lint.Condition(newJobContext(t, cfg, config.RunnerLinux, ev)))
	assert.False(t, format.Condition(newJobContext(t, cfg, config.RunnerMacOS, ev)))
	assert.False(t, lint.Condition(newJobContext(t, cfg, config.RunnerWindows, ev)))
}

func TestPublishGateConjunction(t *testing.T) {
	cfg := testConfig(t)
	pub := &PublishStep{deps: Deps{Publisher: &fakePublisher{}}}

	cases := []struct {
		name   string
		runner string
		ev     event.Event
		want   bool
	}{
		{"canonical version tag on linux", config.RunnerLinux, event.TagPush("acme/widget", "v1.0.0", "abc"), true},
		{"canonical version tag on macos", config.RunnerMacOS, event.TagPush("acme/widget", "v1.0.0", "abc"), false},
		{"canonical version tag on windows", config.RunnerWindows, event.TagPush("acme/widget", "v1.0.0", "abc"), false},
		{"fork version tag", config.RunnerLinux, event.TagPush("fork/widget", "v1.0.0", "abc"), false},
		{"branch push", config.RunnerLinux, event.Push("acme/widget", "main", "abc"), false},
		{"pull request", config.RunnerLinux, event.PullRequest("acme/widget", "main", "abc"), false},
		{"non-version tag", config.RunnerLinux, event.TagPush("acme/widget", "nightly", "abc"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, pub.Condition(newJobContext(t, cfg, tc.runner, tc.ev)))
		})
	}
}

func TestPublishGateDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Publish.Enabled = false
	pub := &PublishStep{deps: Deps{Publisher: &fakePublisher{}}}
	jc := newJobContext(t, cfg, config.RunnerLinux, event.TagPush("acme/widget", "v1.0.0", "abc"))
	assert.False(t, pub.Condition(jc))
}

func TestCacheSaveGatedToMainBranch(t *testing.T) {
	cfg := testConfig(t)
	save := &CacheSaveStep{deps: Deps{Cache: &fakeCache{}}}

	assert.True(t, save.Condition(newJobContext(t, cfg, config.RunnerLinux, event.Push("acme/widget", "main", "abc"))))
	assert.False(t, save.Condition(newJobContext(t, cfg, config.RunnerLinux, event.Push("acme/widget", "feature", "abc"))))
	assert.False(t, save.Condition(newJobContext(t, cfg, config.RunnerLinux, event.TagPush("acme/widget", "v1.0.0", "abc"))))
	assert.False(t, save.Condition(newJobContext(t, cfg, config.RunnerLinux, event.PullRequest("acme/widget", "main", "abc"))))
}

func TestCacheStepsDegrade(t *testing.T) {
	restore := &CacheRestoreStep{deps: Deps{Cache: &fakeCache{err: errors.New("disk full")}}}
	assert.True(t, restore.Degrades())

	cfg := testConfig(t)
	jc := newJobContext(t, cfg, config.RunnerLinux, event.Push("acme/widget", "main", "abc"))
	err := restore.Run(context.Background(), jc)
	require.Error(t, err)
	classified, ok := founderrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, founderrors.SeverityWarning, classified.Severity())
}

func TestCacheRestoreMissSucceeds(t *testing.T) {
	fc := &fakeCache{hit: false}
	restore := &CacheRestoreStep{deps: Deps{Cache: fc}}
	cfg := testConfig(t)
	jc := newJobContext(t, cfg, config.RunnerLinux, event.Push("acme/widget", "main", "abc"))

	require.NoError(t, restore.Run(context.Background(), jc))
	assert.True(t, fc.restored)
	assert.Equal(t, "deps-linux-abc", jc.CacheKey)
}

func TestToolchainRunsBothInstallers(t *testing.T) {
	runner := &fakeRunner{}
	tc := &ToolchainStep{deps: Deps{Commands: runner}}
	cfg := testConfig(t)
	jc := newJobContext(t, cfg, config.RunnerLinux, event.Push("acme/widget", "main", "abc"))

	require.NoError(t, tc.Run(context.Background(), jc))
	assert.Equal(t, []string{"toolchain-install", "aux-install"}, runner.executed)
}

func TestCommandStepFailureIsClassified(t *testing.T) {
	runner := &fakeRunner{failOn: map[string]bool{"lintrun": true}}
	lint := &LintStep{deps: Deps{Commands: runner}}
	cfg := testConfig(t)
	jc := newJobContext(t, cfg, config.RunnerLinux, event.Push("acme/widget", "main", "abc"))

	err := lint.Run(context.Background(), jc)
	require.Error(t, err)
	assert.Equal(t, founderrors.CategoryLint, founderrors.CategoryOf(err))
}

func TestPublishReadsTokenAtRunTime(t *testing.T) {
	cfg := testConfig(t)
	pub := &fakePublisher{}
	deps := Deps{
		Commands:  &fakeRunner{},
		Publisher: pub,
		LookupEnv: func(key string) string {
			if key == "REGISTRY_TOKEN" {
				return "sekrit"
			}
			return ""
		},
	}
	s := &PublishStep{deps: deps}
	jc := newJobContext(t, cfg, config.RunnerLinux, event.TagPush("acme/widget", "v1.0.0", "abc"))

	// Stage the packaged artifact where the step expects it.
	artifact := filepath.Join(jc.Dir, cfg.Publish.Artifact)
	require.NoError(t, os.MkdirAll(filepath.Dir(artifact), 0o755))
	require.NoError(t, os.WriteFile(artifact, []byte("pkg"), 0o644))

	require.NoError(t, s.Run(context.Background(), jc))
	require.Equal(t, 1, pub.calls)
	assert.Equal(t, []string{"sekrit"}, pub.tokens)
}

func TestPublishMissingArtifactFails(t *testing.T) {
	cfg := testConfig(t)
	s := &PublishStep{deps: Deps{Commands: &fakeRunner{}, Publisher: &fakePublisher{}}}
	jc := newJobContext(t, cfg, config.RunnerLinux, event.TagPush("acme/widget", "v1.0.0", "abc"))

	err := s.Run(context.Background(), jc)
	require.Error(t, err)
	assert.Equal(t, founderrors.CategoryRegistry, founderrors.CategoryOf(err))
}

func TestSequenceOrder(t *testing.T) {
	steps := Sequence(Deps{})
	var names []string
	for _, s := range steps {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{
		"checkout", "toolchain", "cache-restore", "format", "lint",
		"build", "test", "cache-save", "publish",
	}, names)
}
