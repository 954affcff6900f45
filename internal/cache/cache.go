// Package cache implements the best-effort dependency cache. A miss or any
// IO failure degrades the job to a cold start; nothing here ever fails a
// run.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pipewright/pipewright/internal/config"
	"github.com/pipewright/pipewright/internal/logfields"
)

// Store is a keyed directory cache under a root directory.
type Store struct {
	root string
	cfg  config.CacheConfig
}

// NewStore creates a cache store. An empty root falls back to a pipewright
// directory under the user cache dir.
func NewStore(cfg config.CacheConfig) (*Store, error) {
	root := cfg.Dir
	if root == "" {
		userCache, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve user cache dir: %w", err)
		}
		root = filepath.Join(userCache, "pipewright")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache root: %w", err)
	}
	return &Store{root: root, cfg: cfg}, nil
}

// Key derives the cache key for a workspace: a hash over the configured key
// files' contents plus the runner OS, so each matrix entry caches
// independently.
func (s *Store) Key(workspaceDir, runner string) string {
	h := sha256.New()
	fmt.Fprintf(h, "os=%s\n", runner)
	for _, name := range s.cfg.KeyFiles {
		data, err := os.ReadFile(filepath.Join(workspaceDir, name))
		if err != nil {
			// A missing key file still yields a stable key.
			fmt.Fprintf(h, "missing=%s\n", name)
			continue
		}
		fmt.Fprintf(h, "file=%s\n", name)
		h.Write(data)
	}
	return fmt.Sprintf("deps-%s-%s", runner, hex.EncodeToString(h.Sum(nil))[:16])
}

// Restore copies cached paths into the workspace. Returns true on a warm
// hit. A miss or copy failure logs and returns false with the error for the
// caller to record as degraded.
func (s *Store) Restore(workspaceDir, key string) (bool, error) {
	entry := filepath.Join(s.root, key)
	if _, err := os.Stat(entry); err != nil {
		slog.Debug("cache miss", logfields.CacheKey(key))
		return false, nil
	}
	for _, rel := range s.cfg.Paths {
		src := filepath.Join(entry, rel)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := copyTree(src, filepath.Join(workspaceDir, rel)); err != nil {
			return false, fmt.Errorf("cache restore of %s: %w", rel, err)
		}
	}
	slog.Debug("cache restored", logfields.CacheKey(key))
	return true, nil
}

// Save snapshots the configured workspace paths under the key. Existing
// entries for the key are replaced.
func (s *Store) Save(workspaceDir, key string) error {
	entry := filepath.Join(s.root, key)
	if err := os.RemoveAll(entry); err != nil {
		return fmt.Errorf("cache save: %w", err)
	}
	for _, rel := range s.cfg.Paths {
		src := filepath.Join(workspaceDir, rel)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := copyTree(src, filepath.Join(entry, rel)); err != nil {
			return fmt.Errorf("cache save of %s: %w", rel, err)
		}
	}
	slog.Debug("cache saved", logfields.CacheKey(key))
	return nil
}

// copyTree recursively copies a directory (or single file).
func copyTree(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFile(src, dest, info.Mode())
	}
	if err := os.MkdirAll(dest, info.Mode().Perm()|0o700); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := copyTree(filepath.Join(src, entry.Name()), filepath.Join(dest, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dest string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm())
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
