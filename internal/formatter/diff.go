package formatter

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DiffContext is the number of unchanged lines shown around each hunk.
const DiffContext = 3

// MakeDiff returns the unified diff between original and formatted as a
// sequence of lines without terminators. The result is empty when the two
// sides are identical.
func MakeDiff(label string, original, formatted []string) []string {
	ud := difflib.UnifiedDiff{
		A:        terminate(original),
		B:        terminate(formatted),
		FromFile: label,
		FromDate: "(original)",
		ToFile:   label,
		ToDate:   "(reformatted)",
		Context:  DiffContext,
		Eol:      "\n",
	}

	// Writing to a strings.Builder cannot fail.
	text, _ := difflib.GetUnifiedDiffString(ud)
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func terminate(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}

// SplitLines splits text into lines, accepting "\n", "\r\n" and "\r" as
// terminators. A final terminator does not produce a trailing empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
