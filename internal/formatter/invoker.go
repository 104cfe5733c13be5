// Package formatter runs the external formatter on single files and turns its
// output into unified diffs.
package formatter

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultBinary is the formatter looked up on PATH when none is configured.
	DefaultBinary = "cmake-format"

	// StyleFile leaves config discovery to the formatter.
	StyleFile = "file"

	// waitDelay bounds how long a cancelled run waits for the formatter's
	// children to release its output pipes.
	waitDelay = 500 * time.Millisecond

	inPlaceFlag = "-i"
	configFlag  = "--config-files"
)

// Options configure every invocation made by an Invoker.
type Options struct {
	// Binary is the formatter executable. Defaults to DefaultBinary.
	Binary string
	// InPlace asks the formatter to rewrite the file itself.
	InPlace bool
	// Style selects the formatter configuration. StyleFile or "" passes nothing,
	// anything else is passed as a config file.
	Style string
	// Args are extra formatter flags, passed after the file name.
	Args []string
}

// Output is what the formatter produced for one file.
type Output struct {
	Original  []string
	Formatted []string
	Stderr    []string
}

// Invoker runs the formatter. It is safe for concurrent use.
type Invoker struct {
	opts   Options
	logger *slog.Logger
	locker Locker
}

// NewInvoker creates an Invoker. In-place runs take an advisory file lock on
// each target while the formatter rewrites it.
func NewInvoker(opts Options, logger *slog.Logger) *Invoker {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Invoker{
		opts:   opts,
		logger: logger.With("component", "formatter"),
		locker: FlockLocker{RetryDelay: 50 * time.Millisecond},
	}
}

// Command returns the argv used to format file.
func (inv *Invoker) Command(file string) []string {
	argv := []string{inv.opts.Binary, file}
	if inv.opts.Style != "" && inv.opts.Style != StyleFile {
		argv = append(argv, configFlag, inv.opts.Style)
	}
	argv = append(argv, inv.opts.Args...)
	if inv.opts.InPlace {
		argv = append(argv, inPlaceFlag)
	}
	return argv
}

// Format feeds the content of file to the formatter on stdin and returns the
// original lines, the formatted lines and any stderr lines. For in-place runs
// the formatted lines are read back from the rewritten file.
//
// A non-zero exit yields *InvocationError. If ctx is done, ctx.Err() is
// returned as is. Every other failure yields *UnexpectedError.
func (inv *Invoker) Format(ctx context.Context, file string) (*Output, error) {
	out, err := inv.format(ctx, file)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var ie *InvocationError
		if errors.As(err, &ie) {
			return nil, ie
		}
		return nil, newUnexpectedError(file, err)
	}
	return out, nil
}

func (inv *Invoker) format(ctx context.Context, file string) (*Output, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, &DecodeError{Path: file, Source: "file"}
	}

	if inv.opts.InPlace {
		unlock, lErr := inv.locker.Lock(ctx, file)
		if lErr != nil {
			return nil, lErr
		}
		defer unlock()
	}

	argv := inv.Command(file)
	inv.logger.Debug("invoking formatter", "command", CommandLine(argv))

	//nolint:gosec // the binary and arguments come from the runner's own configuration
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.Exited() {
			return nil, &InvocationError{
				File:     file,
				Command:  argv,
				ExitCode: exitErr.ExitCode(),
				Stderr:   SplitLines(stderr.String()),
			}
		}
		return nil, err
	}

	formatted := stdout.Bytes()
	if inv.opts.InPlace {
		// The formatter rewrote the file and printed nothing useful.
		if formatted, err = os.ReadFile(file); err != nil {
			return nil, err
		}
	}
	if !utf8.Valid(formatted) {
		return nil, &DecodeError{Path: file, Source: "formatter output"}
	}

	return &Output{
		Original:  SplitLines(string(data)),
		Formatted: SplitLines(string(formatted)),
		Stderr:    SplitLines(stderr.String()),
	}, nil
}

// CommandLine renders argv for humans, quoting arguments that need it.
func CommandLine(argv []string) string {
	parts := make([]string, len(argv))
	for i, a := range argv {
		parts[i] = quoteArg(a)
	}
	return strings.Join(parts, " ")
}

func quoteArg(a string) string {
	if a == "" {
		return `""`
	}
	if !strings.ContainsAny(a, " \t\n\"'\\") {
		return a
	}
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(a) + `"`
}
