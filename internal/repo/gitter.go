// Package repo narrows a run to the files git reports as changed.
package repo

import "context"

// Revision is any git revision: a tag, branch or commit hash.
type Revision string

func (r Revision) String() string { return string(r) }

// Change is a file that differs from a revision in the working tree.
type Change struct {
	Path  string // absolute
	IsNew bool   // added since the revision, or untracked
}

// Gitter defines the git operations the runner needs.
type Gitter interface {
	// ChangedFiles lists files under paths that were added, modified or renamed
	// between rev and the working tree, plus untracked files. Deleted files are
	// not reported.
	ChangedFiles(ctx context.Context, rev Revision, paths []string) ([]Change, error)
}

// Paths returns the paths of changes.
func Paths(changes []Change) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.Path
	}
	return out
}

// CountNew returns how many changes are new files.
func CountNew(changes []Change) int {
	n := 0
	for _, c := range changes {
		if c.IsNew {
			n++
		}
	}
	return n
}
