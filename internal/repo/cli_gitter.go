package repo

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
)

// absPath is a variable for filepath.Abs to allow mocking in tests.
var absPath = filepath.Abs

// UnknownRevisionError is returned when rev does not name a commit.
type UnknownRevisionError struct {
	Revision Revision
}

func (e *UnknownRevisionError) Error() string {
	return fmt.Sprintf("unknown git revision '%s'", e.Revision)
}

// CLIGitter is the concrete implementation of Gitter using the git CLI.
type CLIGitter struct {
	// dir is where git runs. Empty means the current directory.
	dir string
}

// NewCLIGitter creates a CLIGitter running git in dir.
func NewCLIGitter(dir string) *CLIGitter {
	return &CLIGitter{dir: dir}
}

func (g *CLIGitter) git(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git %s failed: %w (output: %s)", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// getGitRoot finds the top-level directory of the git repository.
func (g *CLIGitter) getGitRoot(ctx context.Context) (string, error) {
	out, err := g.git(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("failed to find git root: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (g *CLIGitter) verify(ctx context.Context, rev Revision) error {
	if _, err := g.git(ctx, "rev-parse", "--verify", "--quiet", rev.String()+"^{commit}"); err != nil {
		return &UnknownRevisionError{Revision: rev}
	}
	return nil
}

// ChangedFiles implements Gitter.
func (g *CLIGitter) ChangedFiles(ctx context.Context, rev Revision, paths []string) ([]Change, error) {
	absPaths := make([]string, len(paths))
	for i, p := range paths {
		a, err := absPath(p)
		if err != nil {
			return nil, err
		}
		absPaths[i] = a
	}

	root, err := g.getGitRoot(ctx)
	if err != nil {
		return nil, err
	}
	if err := g.verify(ctx, rev); err != nil {
		return nil, err
	}

	//nolint:gosec // arguments are a verified revision and absolute paths
	diffArgs := append([]string{"diff", "--name-status", "-M", "--diff-filter=ACMR", rev.String(), "--"}, absPaths...)
	out, err := g.git(ctx, diffArgs...)
	if err != nil {
		return nil, err
	}

	found := make(map[string]bool)
	for line := range strings.Lines(string(out)) {
		fields := strings.Split(strings.TrimRight(line, "\n"), "\t")
		if len(fields) < 2 {
			continue
		}
		// Renames and copies list the old and new paths; keep the new one.
		path := fields[len(fields)-1]

		// git diff returns paths relative to the repo root.
		found[filepath.Join(root, path)] = strings.HasPrefix(fields[0], "A")
	}

	lsArgs := append([]string{"ls-files", "--others", "--exclude-standard", "--full-name", "--"}, absPaths...)
	out, err = g.git(ctx, lsArgs...)
	if err != nil {
		return nil, err
	}
	for line := range strings.Lines(string(out)) {
		if path := strings.TrimRight(line, "\n"); path != "" {
			found[filepath.Join(root, path)] = true
		}
	}

	changes := make([]Change, 0, len(found))
	for path, isNew := range found {
		changes = append(changes, Change{Path: path, IsNew: isNew})
	}
	slices.SortFunc(changes, func(a, b Change) int {
		return strings.Compare(a.Path, b.Path)
	})
	return changes, nil
}
