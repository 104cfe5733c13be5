package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/andyballingall/cmake-format-runner/internal/fs"
	"github.com/andyballingall/cmake-format-runner/internal/runner"
)

// Run executes the command line and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer, envProvider fs.EnvProvider) int {
	logLevel := &slog.LevelVar{}
	logLevel.Set(slog.LevelInfo)

	// Local lazy instance ensures t.Parallel() safety
	lazy := &LazyManager{}

	if envProvider == nil {
		envProvider = fs.NewEnvProvider()
	}

	rootCmd := NewRootCmd(lazy, logLevel, stdout, stderr, envProvider)
	rootCmd.SetArgs(args[1:]) // Skip the program name
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	return exitCode(rootCmd.ExecuteContext(ctx), stderr)
}

// exitCode maps the command's error to an exit code. Errors other than a run
// status have not been reported yet, so they are printed here.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return runner.Success.Code()
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status.Code()
	}
	// Print error to stderr for script tests and CLI users (SilenceErrors is set)
	fmt.Fprintf(stderr, "error: %v\n", err)
	return runner.Trouble.Code()
}
