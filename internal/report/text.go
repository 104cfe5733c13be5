package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/andyballingall/cmake-format-runner/internal/formatter"
	"github.com/andyballingall/cmake-format-runner/internal/runner"
)

// TextReporter writes diffs to stdout and diagnostics to stderr.
type TextReporter struct {
	stdout io.Writer
	stderr io.Writer
	opts   Options

	// stdout palette
	separator *color.Color
	hunk      *color.Color
	added     *color.Color
	removed   *color.Color

	// stderr palette
	errorLabel *color.Color
}

// NewTextReporter creates a TextReporter. Color is decided separately for
// each stream from mode.
func NewTextReporter(stdout, stderr io.Writer, mode ColorMode, opts Options) *TextReporter {
	tr := &TextReporter{
		stdout:     stdout,
		stderr:     stderr,
		opts:       opts,
		separator:  color.New(color.Bold),
		hunk:       color.New(color.FgCyan),
		added:      color.New(color.FgGreen),
		removed:    color.New(color.FgRed),
		errorLabel: color.New(color.Bold, color.FgRed),
	}
	setColor(mode.Enabled(stdout), tr.separator, tr.hunk, tr.added, tr.removed)
	setColor(mode.Enabled(stderr), tr.errorLabel)
	return tr
}

func setColor(enabled bool, cs ...*color.Color) {
	for _, c := range cs {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

func (tr *TextReporter) Start(files []string) {
	if tr.opts.Quiet {
		return
	}
	fmt.Fprintf(tr.stdout, "Processing %d files: %s\n", len(files), strings.Join(files, ", "))
}

func (tr *TextReporter) Report(r runner.Result) runner.ExitStatus {
	var ue *formatter.UnexpectedError
	var ie *formatter.InvocationError

	switch {
	case errors.As(r.Err, &ue):
		tr.Trouble(ue.Error())
		fmt.Fprint(tr.stderr, ue.Trace)
		if ue.Trace != "" && !strings.HasSuffix(ue.Trace, "\n") {
			fmt.Fprintln(tr.stderr)
		}
	case errors.As(r.Err, &ie):
		tr.Trouble(ie.Error())
		writeLines(tr.stderr, r.Stderr)
	case r.Err != nil:
		tr.Trouble(r.Err.Error())
	default:
		writeLines(tr.stderr, r.Stderr)
		if len(r.Diff) > 0 && !tr.opts.InPlace && !tr.opts.Quiet {
			tr.writeDiff(r.Diff)
		}
	}

	return r.Status(tr.opts.InPlace)
}

func (tr *TextReporter) Trouble(msg string) {
	fmt.Fprintf(tr.stderr, "%s %s\n", tr.errorLabel.Sprint("error:"), msg)
}

func (tr *TextReporter) Finish(runner.ExitStatus) error {
	return nil
}

func (tr *TextReporter) writeDiff(lines []string) {
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "--- "), strings.HasPrefix(line, "+++ "):
			line = tr.separator.Sprint(line)
		case strings.HasPrefix(line, "@@ "):
			line = tr.hunk.Sprint(line)
		case strings.HasPrefix(line, "+"):
			line = tr.added.Sprint(line)
		case strings.HasPrefix(line, "-"):
			line = tr.removed.Sprint(line)
		}
		fmt.Fprintln(tr.stdout, line)
	}
}

func writeLines(w io.Writer, lines []string) {
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}
