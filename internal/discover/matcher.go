package discover

import (
	"slices"
	"strings"
)

// Matcher decides which file names are formatter targets.
type Matcher struct {
	// Suffixes are compared case-insensitively against the end of the name.
	Suffixes []string
	// Names must match exactly.
	Names []string
}

// DefaultMatcher recognises CMake modules and list files.
func DefaultMatcher() Matcher {
	return Matcher{
		Suffixes: []string{".cmake"},
		Names:    []string{"CMakeLists.txt"},
	}
}

// Match reports whether name is a recognised source file.
func (m Matcher) Match(name string) bool {
	if slices.Contains(m.Names, name) {
		return true
	}
	lower := strings.ToLower(name)
	for _, s := range m.Suffixes {
		if strings.HasSuffix(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}
