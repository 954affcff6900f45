// Package workspace manages isolated per-run directory trees. Each matrix
// job gets its own subdirectory so jobs never share mutable state.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pipewright/pipewright/internal/logfields"
)

// Manager handles workspace directories for a single verification run.
type Manager struct {
	baseDir string
	runDir  string
}

// NewManager creates a workspace manager rooted at baseDir. An empty baseDir
// falls back to the system temp directory.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// Create creates a timestamped run directory.
func (m *Manager) Create() error {
	timestamp := time.Now().Format("20060102-150405")
	runDir := filepath.Join(m.baseDir, fmt.Sprintf("pipewright-%s", timestamp))
	if err := os.MkdirAll(runDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	m.runDir = runDir
	slog.Debug("created workspace", logfields.Path(runDir))
	return nil
}

// Path returns the run directory.
func (m *Manager) Path() string { return m.runDir }

// JobDir creates and returns an isolated directory for one matrix job.
func (m *Manager) JobDir(runner string) (string, error) {
	if m.runDir == "" {
		return "", fmt.Errorf("workspace not created")
	}
	dir := filepath.Join(m.runDir, runner)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create job directory for %s: %w", runner, err)
	}
	return dir, nil
}

// Cleanup removes the run directory and everything under it.
func (m *Manager) Cleanup() error {
	if m.runDir == "" {
		return nil
	}
	if err := os.RemoveAll(m.runDir); err != nil {
		return fmt.Errorf("failed to clean up workspace: %w", err)
	}
	slog.Debug("cleaned up workspace", logfields.Path(m.runDir))
	m.runDir = ""
	return nil
}
