// Package watch re-triggers verification when local source files change.
// Used by the `pipewright watch` command for a pre-push feedback loop.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pipewright/pipewright/internal/logfields"
)

// Watcher watches a source tree and invokes a callback after changes have
// settled for the debounce interval.
type Watcher struct {
	root     string
	debounce time.Duration
	onChange func()
}

// New creates a watcher for the tree rooted at root. A zero debounce
// defaults to 500ms.
func New(root string, debounce time.Duration, onChange func()) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{root: root, debounce: debounce, onChange: onChange}
}

// ignored filters noise: VCS metadata and editor swap files.
func ignored(path string) bool {
	base := filepath.Base(path)
	if base == ".git" {
		return true
	}
	return strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, "~")
}

// Run watches until ctx is done. New directories created while running are
// added to the watch set.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	addTree := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if ignored(path) {
				return filepath.SkipDir
			}
			return fsw.Add(path)
		})
	}
	if err := addTree(w.root); err != nil {
		return err
	}

	slog.Info("watching for changes", logfields.Path(w.root))

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ignored(ev.Name) {
				continue
			}
			if ev.Op.Has(fsnotify.Create) {
				// Best-effort: the path may already be gone.
				_ = addTree(ev.Name)
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", logfields.Error(err))
		case <-timerC:
			timer = nil
			timerC = nil
			w.onChange()
		}
	}
}
