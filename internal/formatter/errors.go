package formatter

import (
	"fmt"
	"runtime/debug"
)

// InvocationError reports that the formatter ran but exited non-zero for one file.
// Other files are unaffected.
type InvocationError struct {
	File     string
	Command  []string
	ExitCode int
	Stderr   []string
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("Command '%s' returned non-zero exit status %d", CommandLine(e.Command), e.ExitCode)
}

// UnexpectedError wraps any failure other than a non-zero formatter exit:
// unreadable files, a missing binary, undecodable content.
type UnexpectedError struct {
	File string
	// Kind is the Go type of the underlying error, e.g. "*exec.Error".
	Kind  string
	Err   error
	Trace string
}

func newUnexpectedError(file string, err error) *UnexpectedError {
	return &UnexpectedError{
		File:  file,
		Kind:  fmt.Sprintf("%T", err),
		Err:   err,
		Trace: string(debug.Stack()),
	}
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.File, e.Kind, e.Err)
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}

// DecodeError reports content that is not valid UTF-8.
type DecodeError struct {
	Path   string
	Source string // "file" or "formatter output"
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s is not valid UTF-8 (%s)", e.Path, e.Source)
}
