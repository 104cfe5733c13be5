// Package report renders formatter run results for humans and machines.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/andyballingall/cmake-format-runner/internal/runner"
)

// Reporter receives the events of one run, in order: Start, any number of
// Report and Trouble calls, then Finish. Calls are never concurrent.
type Reporter interface {
	// Start announces the discovered files.
	Start(files []string)
	// Report renders one result and returns the status it contributes.
	Report(r runner.Result) runner.ExitStatus
	// Trouble reports a failure not tied to a single result.
	Trouble(msg string)
	// Finish completes the run with its aggregate status.
	Finish(status runner.ExitStatus) error
}

// Options shared by all reporters.
type Options struct {
	Quiet   bool
	InPlace bool
}

// ColorMode selects when ANSI colors are used.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ColorModes lists the accepted values in help order.
var ColorModes = []ColorMode{ColorAuto, ColorAlways, ColorNever}

// InvalidColorModeError is returned by ParseColorMode.
type InvalidColorModeError struct {
	Value string
}

func (e *InvalidColorModeError) Error() string {
	names := make([]string, len(ColorModes))
	for i, m := range ColorModes {
		names[i] = string(m)
	}
	return fmt.Sprintf("invalid color mode %q: must be one of %s", e.Value, strings.Join(names, ", "))
}

// ParseColorMode validates s.
func ParseColorMode(s string) (ColorMode, error) {
	for _, m := range ColorModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", &InvalidColorModeError{Value: s}
}

// Enabled reports whether output written to w should be colored.
// In auto mode only terminals get color.
func (m ColorMode) Enabled(w io.Writer) bool {
	switch m {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
