package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ExampleYAML is the starter configuration written by `pipewright init`.
const ExampleYAML = `# pipewright pipeline configuration
repository:
  url: https://example.com/acme/widget.git
  name: acme/widget
  main_branch: main

matrix:
  runners: [linux, macos, windows]

# Defaults already disable incremental compilation, set CI=true, enable full
# backtraces, and escalate warnings to errors. Add overrides here.
env: {}

steps:
  toolchain: [toolchain-install, stable]
  aux_runtime: [aux-install]
  format: [fmtcheck, --all, --check]
  lint: [lintrun, --all-targets, --all-features]
  build: [buildall, --all-targets, --all-features]
  test: [testall, --all-targets, --all-features]
  package: [packageall]

cache:
  enabled: true
  paths: [deps]
  key_files: [lockfile]

publish:
  enabled: false
  canonical_repo: acme/widget
  registry_url: https://registry.example.com/api/v1/publish
  token_env: REGISTRY_TOKEN
  artifact: dist/package.tgz

timeout_minutes: 30
`

// Init writes the starter configuration to path. Existing files are only
// overwritten with force.
func Init(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	return os.WriteFile(path, []byte(ExampleYAML), 0o644)
}
