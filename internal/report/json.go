package report

import (
	"encoding/json"
	"errors"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/andyballingall/cmake-format-runner/internal/formatter"
	"github.com/andyballingall/cmake-format-runner/internal/runner"
)

// JSONReporter buffers a run and writes one JSON document at Finish.
// Formatter stderr is still passed through to stderr as it arrives.
type JSONReporter struct {
	stdout io.Writer
	stderr io.Writer
	opts   Options
	now    func() time.Time

	start    time.Time
	files    []string
	results  []jsonFile
	troubles []string
}

type jsonFile struct {
	Path   string            `json:"path"`
	Status runner.ExitStatus `json:"status"`
	Diff   []string          `json:"diff,omitempty"`
	Stderr []string          `json:"stderr,omitempty"`
	Error  *jsonError        `json:"error,omitempty"`

	changed bool
}

type jsonError struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Command  string `json:"command,omitempty"`
	ExitCode int    `json:"exitCode,omitempty"`
}

type jsonOutput struct {
	Status   runner.ExitStatus `json:"status"`
	ExitCode int               `json:"exitCode"`
	InPlace  bool              `json:"inPlace"`
	Duration string            `json:"duration"`
	Stats    struct {
		Discovered int `json:"discovered"`
		Processed  int `json:"processed"`
		Changed    int `json:"changed"`
		Failed     int `json:"failed"`
	} `json:"stats"`
	Troubles []string   `json:"troubles"`
	Files    []jsonFile `json:"files"`
}

// NewJSONReporter creates a JSONReporter writing the document to stdout.
func NewJSONReporter(stdout, stderr io.Writer, opts Options) *JSONReporter {
	return &JSONReporter{
		stdout: stdout,
		stderr: stderr,
		opts:   opts,
		now:    time.Now,
	}
}

func (jr *JSONReporter) Start(files []string) {
	jr.start = jr.now()
	jr.files = files
	jr.results = nil
	jr.troubles = nil
}

func (jr *JSONReporter) Report(r runner.Result) runner.ExitStatus {
	writeLines(jr.stderr, r.Stderr)

	entry := jsonFile{
		Path:   r.File,
		Status: r.Status(jr.opts.InPlace),
		Stderr: r.Stderr,
		// In place, a diff means the file was rewritten.
		changed: len(r.Diff) > 0,
	}
	if !jr.opts.InPlace {
		entry.Diff = r.Diff
	}

	var ue *formatter.UnexpectedError
	var ie *formatter.InvocationError
	switch {
	case errors.As(r.Err, &ue):
		entry.Error = &jsonError{Kind: "unexpected", Message: ue.Error()}
	case errors.As(r.Err, &ie):
		entry.Error = &jsonError{
			Kind:     "invocation",
			Message:  ie.Error(),
			Command:  formatter.CommandLine(ie.Command),
			ExitCode: ie.ExitCode,
		}
	case r.Err != nil:
		entry.Error = &jsonError{Kind: "error", Message: r.Err.Error()}
	}

	jr.results = append(jr.results, entry)
	return entry.Status
}

func (jr *JSONReporter) Trouble(msg string) {
	jr.troubles = append(jr.troubles, msg)
}

func (jr *JSONReporter) Finish(status runner.ExitStatus) error {
	out := jsonOutput{
		Status:   status,
		ExitCode: status.Code(),
		InPlace:  jr.opts.InPlace,
		Troubles: jr.troubles,
		Files:    slices.Clone(jr.results),
	}
	if !jr.start.IsZero() {
		out.Duration = jr.now().Sub(jr.start).String()
	}
	if out.Troubles == nil {
		out.Troubles = []string{}
	}
	if out.Files == nil {
		out.Files = []jsonFile{}
	}
	slices.SortFunc(out.Files, func(a, b jsonFile) int {
		return strings.Compare(a.Path, b.Path)
	})

	out.Stats.Discovered = len(jr.files)
	out.Stats.Processed = len(jr.results)
	for _, f := range jr.results {
		if f.Error != nil {
			out.Stats.Failed++
		} else if f.changed {
			out.Stats.Changed++
		}
	}

	enc := json.NewEncoder(jr.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
