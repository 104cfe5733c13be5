package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/andyballingall/cmake-format-runner/internal/discover"
	"github.com/andyballingall/cmake-format-runner/internal/formatter"
	"github.com/andyballingall/cmake-format-runner/internal/repo"
	"github.com/andyballingall/cmake-format-runner/internal/report"
	"github.com/andyballingall/cmake-format-runner/internal/runner"
)

// CheckRequest is one fully resolved run: flags merged over the runner config.
type CheckRequest struct {
	Paths     []string
	Since     repo.Revision
	Jobs      int
	Output    string
	Color     report.ColorMode
	Quiet     bool
	Formatter formatter.Options
	Patterns  discover.Patterns
	Matcher   discover.Matcher
}

// Manager defines the operations behind the command line.
type Manager interface {
	// Check discovers the requested files, formats them and reports the outcome.
	// Failures that belong in the report are reported and reflected in the
	// returned status rather than returned as errors.
	Check(ctx context.Context, req CheckRequest) (runner.ExitStatus, error)
	// Watch runs Check, then re-checks changed files until ctx is cancelled.
	Watch(ctx context.Context, req CheckRequest, readyChan chan<- struct{}) error
}

// Ensure the interface is satisfied.
var _ Manager = (*LazyManager)(nil)

// LazyManager acts as a placeholder for a real Manager implementation, allowing
// for deferred initialization of dependencies.
type LazyManager struct {
	inner Manager
}

func (l *LazyManager) SetInner(m Manager) {
	l.inner = m
}

// HasInner returns true if the inner manager has been set.
// This is used by PersistentPreRunE to skip initialization if already configured (e.g., in tests).
func (l *LazyManager) HasInner() bool {
	return l.inner != nil
}

func (l *LazyManager) check() Manager {
	if l.inner == nil {
		panic("LazyManager accessed before initialization; check command wiring.")
	}
	return l.inner
}

func (l *LazyManager) Check(ctx context.Context, req CheckRequest) (runner.ExitStatus, error) {
	return l.check().Check(ctx, req)
}

func (l *LazyManager) Watch(ctx context.Context, req CheckRequest, readyChan chan<- struct{}) error {
	return l.check().Watch(ctx, req, readyChan)
}

// Ensure the interface is satisfied.
var _ Manager = (*CLIManager)(nil)

// CLIManager is the concrete implementation of the Manager interface.
type CLIManager struct {
	logger *slog.Logger
	gitter repo.Gitter
	stdout io.Writer
	stderr io.Writer
}

func NewCLIManager(l *slog.Logger, g repo.Gitter, stdout, stderr io.Writer) *CLIManager {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &CLIManager{
		logger: l,
		gitter: g,
		stdout: stdout,
		stderr: stderr,
	}
}

func (m *CLIManager) newReporter(req CheckRequest) report.Reporter {
	opts := report.Options{Quiet: req.Quiet, InPlace: req.Formatter.InPlace}
	if req.Output == "json" {
		return report.NewJSONReporter(m.stdout, m.stderr, opts)
	}
	return report.NewTextReporter(m.stdout, m.stderr, req.Color, opts)
}

func (m *CLIManager) newDiscoverer(req CheckRequest) *discover.Discoverer {
	return discover.New(req.Patterns, req.Matcher, nil, m.logger)
}

func (m *CLIManager) Check(ctx context.Context, req CheckRequest) (runner.ExitStatus, error) {
	m.logger.Debug("checking", "paths", req.Paths, "since", req.Since, "jobs", req.Jobs,
		"inPlace", req.Formatter.InPlace, "exclude", req.Patterns.List())

	rep := m.newReporter(req)
	disc := m.newDiscoverer(req)

	fail := func(msg string) (runner.ExitStatus, error) {
		rep.Trouble(msg)
		return runner.Trouble, rep.Finish(runner.Trouble)
	}

	if req.Since != "" {
		changes, err := m.gitter.ChangedFiles(ctx, req.Since, req.Paths)
		if err != nil {
			return fail(err.Error())
		}
		added := repo.CountNew(changes)
		m.logger.Debug("changed files since revision", "since", req.Since,
			"added", added, "modified", len(changes)-added)
		disc.SetOnly(repo.Paths(changes))
	}

	files, err := disc.Discover(req.Paths)
	if err != nil {
		return fail(err.Error())
	}

	if len(files) == 0 {
		if req.Since != "" {
			// Nothing changed is a clean result, not a misconfiguration.
			m.logger.Info("No changed files since " + req.Since.String())
			rep.Start(files)
			return runner.Success, rep.Finish(runner.Success)
		}
		return fail("No files found")
	}

	rep.Start(files)
	status := m.run(ctx, req, rep, files)
	return status, rep.Finish(status)
}

// run formats files and feeds every result to rep.
func (m *CLIManager) run(ctx context.Context, req CheckRequest, rep report.Reporter, files []string) runner.ExitStatus {
	inv := formatter.NewInvoker(req.Formatter, m.logger)
	d := runner.NewDispatcher(inv, req.Jobs, m.logger)

	status := runner.Success
	err := d.Run(ctx, files, func(r runner.Result) {
		status = status.Merge(rep.Report(r))
	})
	if err != nil {
		var ue *formatter.UnexpectedError
		switch {
		case errors.As(err, &ue):
			// Reported with its result.
		case errors.Is(err, context.Canceled):
			rep.Trouble("interrupted")
		default:
			rep.Trouble(err.Error())
		}
		status = runner.Trouble
	}
	return status
}

// Watch runs a full check, then re-checks only the files that change.
func (m *CLIManager) Watch(ctx context.Context, req CheckRequest, readyChan chan<- struct{}) error {
	status, err := m.Check(ctx, req)
	if err != nil {
		return err
	}
	m.logger.Debug("initial check finished", "status", status)

	watcher := runner.NewWatcher(req.Paths, m.newDiscoverer(req), m.logger)

	callback := func(changed []string) {
		files := existing(changed)
		if len(files) == 0 {
			return
		}
		m.logger.Info("Files changed:", "files", files)

		rep := m.newReporter(req)
		rep.Start(files)
		status := m.run(ctx, req, rep, files)
		if err := rep.Finish(status); err != nil {
			m.logger.Error("Failed to write report", "error", err)
		}
		m.logger.Debug("re-check finished", "status", status)
	}

	// Forward watcher Ready signal if caller wants notification
	if readyChan != nil {
		stopped := make(chan struct{})
		defer close(stopped)
		go func() {
			select {
			case <-watcher.Ready:
			case <-stopped:
				return
			}
			select {
			case readyChan <- struct{}{}:
			case <-stopped:
			}
		}()
	}

	return watcher.Watch(ctx, callback)
}

// existing drops paths that were removed again before the batch fired.
func existing(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			out = append(out, p)
		}
	}
	return out
}
