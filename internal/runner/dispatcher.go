// Package runner fans formatter invocations out over a worker pool and
// aggregates their outcomes.
package runner

import (
	"context"
	"errors"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/andyballingall/cmake-format-runner/internal/formatter"
)

// Result is the outcome of formatting one file.
type Result struct {
	File   string
	Diff   []string
	Stderr []string
	// Err is a *formatter.InvocationError or *formatter.UnexpectedError.
	Err error
}

// Unexpected reports whether r carries an error that should abort the run.
func (r Result) Unexpected() bool {
	var ue *formatter.UnexpectedError
	return errors.As(r.Err, &ue)
}

// Status is the outcome r contributes to the run. Any error is Trouble. A
// non-empty diff is Diff unless the formatter rewrote the file in place.
func (r Result) Status(inPlace bool) ExitStatus {
	switch {
	case r.Err != nil:
		return Trouble
	case len(r.Diff) > 0 && !inPlace:
		return Diff
	default:
		return Success
	}
}

// Formatter is the part of formatter.Invoker the dispatcher needs.
type Formatter interface {
	Format(ctx context.Context, file string) (*formatter.Output, error)
}

// ResolveJobs returns the worker count for files targets. A requested value
// of zero or less means one more than the number of CPUs. The result never
// exceeds files and is at least one when files is positive.
func ResolveJobs(requested, files int) int {
	jobs := requested
	if jobs <= 0 {
		jobs = runtime.NumCPU() + 1
	}
	return max(min(jobs, files), 0)
}

// Dispatcher runs a Formatter over a fixed list of files.
type Dispatcher struct {
	formatter Formatter
	jobs      int
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher. jobs follows ResolveJobs.
func NewDispatcher(f Formatter, jobs int, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		formatter: f,
		jobs:      jobs,
		logger:    logger.With("component", "dispatcher"),
	}
}

// Run processes every file and calls emit once per completed file, always
// from the calling goroutine, in completion order.
//
// A result carrying a *formatter.UnexpectedError stops the run: in-flight
// formatter processes are cancelled, nothing further is emitted, and the
// error is returned. Invocation errors are emitted and the run continues.
// If ctx is cancelled, Run returns ctx.Err() and files cut short by the
// cancellation are not emitted.
func (d *Dispatcher) Run(ctx context.Context, files []string, emit func(Result)) error {
	jobs := ResolveJobs(d.jobs, len(files))
	d.logger.Debug("dispatching", "files", len(files), "jobs", jobs)

	if jobs <= 1 {
		return d.runSequential(ctx, files, emit)
	}
	return d.runPool(ctx, files, jobs, emit)
}

func (d *Dispatcher) runSequential(ctx context.Context, files []string, emit func(Result)) error {
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		r := d.process(ctx, f)
		if interrupted(r.Err) {
			return r.Err
		}
		emit(r)
		if r.Unexpected() {
			return r.Err
		}
	}
	return nil
}

func (d *Dispatcher) runPool(ctx context.Context, files []string, jobs int, emit func(Result)) error {
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(jobs)

	resultC := make(chan Result)

	// Producer: g.Go blocks while all workers are busy.
	go func() {
		defer close(resultC)
		for _, f := range files {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				r := d.process(gctx, f)
				if interrupted(r.Err) {
					return r.Err
				}
				select {
				case resultC <- r:
				case <-gctx.Done():
					return gctx.Err()
				}
				if r.Unexpected() {
					return r.Err
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r, ok := <-resultC:
			if !ok {
				return ctx.Err()
			}
			emit(r)
			if r.Unexpected() {
				// Abandon pending work; workers see the cancellation and their
				// formatter processes are killed.
				cancelRun()
				return r.Err
			}
		}
	}
}

// interrupted reports whether err is a cancellation rather than a per-file fault.
func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (d *Dispatcher) process(ctx context.Context, file string) Result {
	out, err := d.formatter.Format(ctx, file)
	if err != nil {
		r := Result{File: file, Err: err}
		var ie *formatter.InvocationError
		if errors.As(err, &ie) {
			r.Stderr = ie.Stderr
		}
		return r
	}
	return Result{
		File:   file,
		Diff:   formatter.MakeDiff(file, out.Original, out.Formatted),
		Stderr: out.Stderr,
	}
}
