// Package discover finds the files a formatter run operates on.
package discover

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	rfs "github.com/andyballingall/cmake-format-runner/internal/fs"
)

// Discoverer walks root paths and collects recognised, non-excluded files.
type Discoverer struct {
	patterns Patterns
	matcher  Matcher
	resolver rfs.PathResolver
	logger   *slog.Logger

	// only, when non-nil, restricts results to these canonical paths.
	only map[string]bool
}

// New creates a Discoverer. A nil patterns set behaves as NewPatterns().
func New(patterns Patterns, matcher Matcher, resolver rfs.PathResolver, logger *slog.Logger) *Discoverer {
	if patterns == nil {
		patterns = Patterns{DefaultExclude: {}}
	}
	if resolver == nil {
		resolver = rfs.NewPathResolver()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Discoverer{
		patterns: patterns,
		matcher:  matcher,
		resolver: resolver,
		logger:   logger.With("component", "discover"),
	}
}

// SetOnly restricts discovery to the given files. Paths are canonicalised
// before comparison, so callers may pass absolute or relative spellings.
func (d *Discoverer) SetOnly(paths []string) {
	d.only = make(map[string]bool, len(paths))
	for _, p := range paths {
		d.only[d.key(p)] = true
	}
}

// Discover returns the sorted, de-duplicated list of target files under roots.
// An empty result is not an error; the caller decides how to report it.
func (d *Discoverer) Discover(roots []string) ([]string, error) {
	// canonical path -> chosen spelling
	found := make(map[string]string)

	add := func(path string) {
		k := d.key(path)
		if d.only != nil && !d.only[k] {
			return
		}
		// Keep the smallest spelling so the result does not depend on root order.
		if prev, ok := found[k]; !ok || path < prev {
			found[k] = path
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, &MissingRootError{Path: root}
			}
			return nil, err
		}

		if !info.IsDir() {
			name := filepath.Base(root)
			if d.matcher.Match(name) && !d.patterns.Match(name) {
				add(filepath.Clean(root))
			}
			continue
		}

		if err := filepath.WalkDir(root, d.walkFunc(root, add)); err != nil {
			return nil, err
		}
	}

	files := make([]string, 0, len(found))
	for _, p := range found {
		files = append(files, p)
	}
	slices.Sort(files)

	d.logger.Debug("discovery finished", "roots", roots, "files", len(files))
	return files, nil
}

func (d *Discoverer) walkFunc(root string, add func(string)) fs.WalkDirFunc {
	return func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			d.logger.Warn("skipping unreadable path", "path", path, "error", err)
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := entry.Name()
		if entry.IsDir() {
			// The root itself was named explicitly and is never pruned.
			if path != root && d.patterns.Match(name) {
				d.logger.Debug("pruning excluded directory", "path", path)
				return filepath.SkipDir
			}
			return nil
		}

		if d.patterns.Match(name) || !d.matcher.Match(name) {
			return nil
		}
		add(path)
		return nil
	}
}

// key identifies a file independent of how its path was spelled.
func (d *Discoverer) key(path string) string {
	if c, err := d.resolver.CanonicalPath(path); err == nil {
		return c
	}
	if a, err := d.resolver.Abs(path); err == nil {
		return a
	}
	return filepath.Clean(path)
}

// Accepts reports whether a single file path would be discovered, judging
// only its own name and the restriction set. Ancestors are the caller's concern.
func (d *Discoverer) Accepts(path string) bool {
	name := filepath.Base(path)
	if d.patterns.Match(name) || !d.matcher.Match(name) {
		return false
	}
	return d.only == nil || d.only[d.key(path)]
}

// Prunes reports whether a directory with this name is skipped during a walk.
func (d *Discoverer) Prunes(dirName string) bool {
	return d.patterns.Match(dirName)
}
