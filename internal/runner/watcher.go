package runner

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDuration batches editor save bursts into one re-check.
const debounceDuration = 100 * time.Millisecond

// PathFilter decides which changed paths are relevant. *discover.Discoverer satisfies it.
type PathFilter interface {
	Accepts(path string) bool
	Prunes(dirName string) bool
}

// Watcher monitors root paths and reports changed target files.
type Watcher struct {
	roots  []string
	filter PathFilter
	logger *slog.Logger
	Ready  chan struct{}

	newWatcher func() (*fsnotify.Watcher, error)

	// dirs are watched recursively; files are roots named explicitly.
	dirs  map[string]bool
	files map[string]bool
}

// NewWatcher creates a Watcher for the given roots.
func NewWatcher(roots []string, filter PathFilter, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		roots:      roots,
		filter:     filter,
		logger:     logger.With("component", "watcher"),
		Ready:      make(chan struct{}),
		newWatcher: fsnotify.NewWatcher,
		dirs:       make(map[string]bool),
		files:      make(map[string]bool),
	}
}

// Watch blocks until ctx is cancelled, calling callback with the sorted set
// of files changed since the previous call. Callbacks run on the calling
// goroutine, one at a time.
func (w *Watcher) Watch(ctx context.Context, callback func(files []string)) error {
	watcher, err := w.newWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, root := range w.roots {
		if err := w.addRoot(watcher, root); err != nil {
			return err
		}
	}

	w.logger.Info("Watching for changes", "roots", w.roots)
	if w.Ready != nil {
		close(w.Ready)
	}

	pending := make(map[string]bool)
	timer := time.NewTimer(debounceDuration)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if path := w.handleEvent(watcher, event); path != "" {
				pending[path] = true
				timer.Reset(debounceDuration)
			}
		case <-timer.C:
			files := make([]string, 0, len(pending))
			for p := range pending {
				files = append(files, p)
			}
			clear(pending)
			slices.Sort(files)
			callback(files)
		}
	}
}

func (w *Watcher) addRoot(watcher *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		w.files[filepath.Clean(root)] = true
		return watcher.Add(filepath.Dir(root))
	}
	return w.addRecursive(watcher, root)
}

// addRecursive adds root and all its non-pruned subdirectories to the watcher.
func (w *Watcher) addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.filter.Prunes(d.Name()) {
			return filepath.SkipDir
		}
		w.dirs[filepath.Clean(path)] = true
		return watcher.Add(path)
	})
}

// handleEvent returns the changed target path, or "" if the event is not relevant.
// New directories under a recursive root are added to the watcher.
func (w *Watcher) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) string {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return ""
	}
	path := filepath.Clean(event.Name)
	parentRecursive := w.dirs[filepath.Dir(path)]

	if event.Has(fsnotify.Create) && parentRecursive {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			if w.filter.Prunes(info.Name()) {
				return ""
			}
			if err := w.addRecursive(watcher, path); err != nil {
				w.logger.Error("Failed to watch new directory", "path", path, "error", err)
			}
			return ""
		}
	}

	switch {
	case w.files[path]:
		return path
	case parentRecursive && w.filter.Accepts(path):
		return path
	default:
		return ""
	}
}
