package discover

import (
	"slices"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExclude is always part of an exclusion set so build trees are never walked.
const DefaultExclude = "build"

// Patterns is a set of glob patterns matched against single path segment names.
// Classes negate with either [!...] or [^...]; {a,b} alternates.
type Patterns map[string]struct{}

// NewPatterns returns a set holding DefaultExclude plus the given globs.
func NewPatterns(globs ...string) (Patterns, error) {
	p := Patterns{DefaultExclude: {}}
	for _, g := range globs {
		if err := p.Add(g); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Add validates glob and inserts it. Empty globs are ignored.
func (p Patterns) Add(glob string) error {
	glob = strings.TrimSpace(glob)
	if glob == "" {
		return nil
	}
	if !doublestar.ValidatePattern(glob) {
		return &InvalidPatternError{Pattern: glob, Wrapped: doublestar.ErrBadPattern}
	}
	p[glob] = struct{}{}
	return nil
}

// Match reports whether name matches any pattern in the set.
func (p Patterns) Match(name string) bool {
	for glob := range p {
		if doublestar.MatchUnvalidated(glob, name) {
			return true
		}
	}
	return false
}

// List returns the patterns in sorted order.
func (p Patterns) List() []string {
	out := make([]string, 0, len(p))
	for glob := range p {
		out = append(out, glob)
	}
	slices.Sort(out)
	return out
}

// SplitPatternList splits a raw exclusion argument on commas and whitespace,
// which covers both "a,b" and newline separated lists coming from CI config.
func SplitPatternList(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}
