// Package config loads and validates the declarative pipeline configuration.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	founderrors "github.com/pipewright/pipewright/internal/foundation/errors"
)

// Config is the root pipeline configuration.
type Config struct {
	Repository RepositoryConfig `yaml:"repository"`
	Matrix     MatrixConfig     `yaml:"matrix"`
	Env        map[string]string `yaml:"env,omitempty"`
	Steps      StepsConfig      `yaml:"steps"`
	Cache      CacheConfig      `yaml:"cache"`
	Publish    PublishConfig    `yaml:"publish"`
	Daemon     DaemonConfig     `yaml:"daemon,omitempty"`

	// TimeoutMinutes aborts a whole matrix job when exceeded.
	TimeoutMinutes int `yaml:"timeout_minutes,omitempty"`
}

// RepositoryConfig identifies the source repository under verification.
type RepositoryConfig struct {
	URL        string `yaml:"url"`
	Name       string `yaml:"name"`                  // owner/name identity used by gates
	MainBranch string `yaml:"main_branch,omitempty"` // cache save gate, defaults to main
}

// MatrixConfig declares the runner operating systems. Each entry becomes an
// independent job.
type MatrixConfig struct {
	Runners []string `yaml:"runners,omitempty"`
}

// Command is an argv-style external command.
type Command []string

// Empty reports whether the command has no program to run.
func (c Command) Empty() bool { return len(c) == 0 }

// Program returns the executable name, or "".
func (c Command) Program() string {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// Args returns the arguments after the program name.
func (c Command) Args() []string {
	if len(c) <= 1 {
		return nil
	}
	return c[1:]
}

// StepsConfig holds the external tool command lines the pipeline invokes.
// The project under verification is opaque to pipewright; these commands are
// the whole contract with it.
type StepsConfig struct {
	Toolchain  Command `yaml:"toolchain,omitempty"`  // language toolchain installer
	AuxRuntime Command `yaml:"aux_runtime,omitempty"` // auxiliary runtime used by the format check
	Format     Command `yaml:"format"`
	Lint       Command `yaml:"lint"`
	Build      Command `yaml:"build"`
	Test       Command `yaml:"test"`
	Package    Command `yaml:"package,omitempty"` // produces the publish artifact
}

// CacheConfig controls the best-effort dependency cache.
type CacheConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Dir      string   `yaml:"dir,omitempty"`       // cache root, defaults under the user cache dir
	Paths    []string `yaml:"paths,omitempty"`     // workspace-relative paths to cache
	KeyFiles []string `yaml:"key_files,omitempty"` // lockfiles hashed into the cache key
}

// PublishConfig controls the publish step and its gate.
type PublishConfig struct {
	Enabled       bool   `yaml:"enabled"`
	CanonicalRepo string `yaml:"canonical_repo,omitempty"` // owner/name of the upstream allowed to publish
	RegistryURL   string `yaml:"registry_url,omitempty"`
	TokenEnv      string `yaml:"token_env,omitempty"` // name of the env var holding the registry token
	Artifact      string `yaml:"artifact,omitempty"`  // workspace-relative path to the packaged artifact
}

// DaemonConfig configures the long-running daemon mode.
type DaemonConfig struct {
	Listen          string `yaml:"listen,omitempty"`           // HTTP listen address
	ScheduleMinutes int    `yaml:"schedule_minutes,omitempty"` // periodic verification interval, 0 disables
	NATSUrl         string `yaml:"nats_url,omitempty"`         // optional run event publication
	NATSSubject     string `yaml:"nats_subject,omitempty"`
	DataDir         string `yaml:"data_dir,omitempty"` // run event store location
}

// Load reads, normalizes, and validates a configuration file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, founderrors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, founderrors.WrapError(err, founderrors.CategoryConfig, "failed to read configuration").
			WithContext("path", configPath).
			Build()
	}
	return Parse(data)
}

// Parse decodes configuration bytes, applies defaults, and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, founderrors.WrapError(err, founderrors.CategoryConfig, "failed to parse configuration").Build()
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
