package config

import "path/filepath"

// Runner OS names accepted in the matrix.
const (
	RunnerLinux   = "linux"
	RunnerMacOS   = "macos"
	RunnerWindows = "windows"
)

// DefaultTimeoutMinutes is the whole-job wall-clock limit.
const DefaultTimeoutMinutes = 30

// Environment defaults for every step. Incremental compilation off for
// reproducibility, CI flag set, full backtraces, compiler warnings escalated
// to errors.
var defaultEnv = map[string]string{
	"CI":          "true",
	"INCREMENTAL": "0",
	"BACKTRACE":   "full",
	"BUILD_FLAGS": "--deny-warnings",
}

// applyDefaults fills in unset fields. Explicit values always win.
func (c *Config) applyDefaults() {
	if len(c.Matrix.Runners) == 0 {
		c.Matrix.Runners = []string{RunnerLinux, RunnerMacOS, RunnerWindows}
	}
	if c.TimeoutMinutes <= 0 {
		c.TimeoutMinutes = DefaultTimeoutMinutes
	}
	if c.Repository.MainBranch == "" {
		c.Repository.MainBranch = "main"
	}

	if c.Env == nil {
		c.Env = make(map[string]string, len(defaultEnv))
	}
	for k, v := range defaultEnv {
		if _, set := c.Env[k]; !set {
			c.Env[k] = v
		}
	}

	if c.Publish.Enabled && c.Publish.TokenEnv == "" {
		c.Publish.TokenEnv = "REGISTRY_TOKEN"
	}
	if c.Publish.Enabled && c.Publish.Artifact == "" {
		c.Publish.Artifact = filepath.Join("dist", "package.tgz")
	}
	if c.Daemon.Listen == "" {
		c.Daemon.Listen = ":8080"
	}
	if c.Daemon.NATSSubject == "" {
		c.Daemon.NATSSubject = "pipewright.runs"
	}
}

// KnownRunner reports whether the OS name is a supported matrix entry.
func KnownRunner(name string) bool {
	switch name {
	case RunnerLinux, RunnerMacOS, RunnerWindows:
		return true
	}
	return false
}
