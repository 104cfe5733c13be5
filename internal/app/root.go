package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/andyballingall/cmake-format-runner/internal/config"
	"github.com/andyballingall/cmake-format-runner/internal/formatter"
	"github.com/andyballingall/cmake-format-runner/internal/fs"
	"github.com/andyballingall/cmake-format-runner/internal/repo"
	"github.com/andyballingall/cmake-format-runner/internal/report"
	"github.com/andyballingall/cmake-format-runner/internal/runner"
)

// Version is the current version of cmake-format-runner, set at build time.
var Version = "dev"

var LongDescription = `
cmake-format-runner runs cmake-format over CMake sources in parallel and prints
a unified diff for every file that is not formatted. Directories are searched
recursively for *.cmake and CMakeLists.txt files; build directories are skipped.

Exit status is 0 when every file is formatted, 1 when differences were found and
2 when something went wrong.
`

// NewRootCmd creates the root command and wires up dependencies.
func NewRootCmd(lazy *LazyManager, ll *slog.LevelVar, stdout, stderr io.Writer, envProvider fs.EnvProvider) *cobra.Command {
	var (
		debug     bool
		inPlace   bool
		check     bool
		quiet     bool
		watch     bool
		jobs      int
		style     string
		since     string
		fmtFlags  formatterFlags
		exclude   patternsValue
		binary    pathValue
		cfgPath   pathValue
		cfg       *config.Config
		outputVal = formatValue("text")
		colorVal  = colorValue(report.ColorAuto)
	)

	rootCmd := &cobra.Command{
		Use:           "cmake-format-runner [flags] <file|dir>...",
		Short:         "Check CMake sources with cmake-format",
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Long:          LongDescription,
		Args:          cobra.MinimumNArgs(1),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			// 1. Setup Logging
			if debug {
				ll.Set(slog.LevelDebug)
			}

			// 2. Load runner config
			path, required := string(cfgPath), true
			if path == "" {
				path, required = config.FileName, false
			}
			var err error
			if cfg, err = config.Load(path, required, envProvider); err != nil {
				return err
			}

			// Skip if already initialised (e.g., in tests)
			if lazy.HasInner() {
				return nil
			}

			logger, _, err := setupLogger(stderr, ll, cfg.LogFile)
			if err != nil {
				logger.Warn("logging to file disabled", "error", err)
			}
			if cfg.Path != "" {
				logger.Debug("loaded runner config", "path", cfg.Path)
			}

			// 3. Hydrate the Lazy Wrapper
			lazy.SetInner(NewCLIManager(logger, repo.NewCLIGitter(""), stdout, stderr))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if check && inPlace {
				return &ConflictingFlagsError{Flags: []string{"check", "in-place"}}
			}
			flags := cmd.Flags()

			req := CheckRequest{
				Paths:  args,
				Since:  repo.Revision(since),
				Jobs:   cfg.Jobs,
				Output: outputVal.String(),
				Color:  report.ColorMode(colorVal),
				Quiet:  quiet,
				Formatter: formatter.Options{
					Binary:  cfg.Formatter,
					InPlace: inPlace,
					Style:   cfg.Style,
					Args:    fmtFlags.Args(),
				},
				Matcher: cfg.Matcher(),
			}
			if flags.Changed("jobs") {
				req.Jobs = jobs
			}
			if flags.Changed("formatter") {
				req.Formatter.Binary = string(binary)
			}
			if flags.Changed("style") || flags.Changed("config") {
				req.Formatter.Style = style
			}
			var err error
			if req.Patterns, err = exclude.Patterns(cfg.Exclude...); err != nil {
				return err
			}

			ctx := cmd.Context()
			if watch {
				err := lazy.Watch(ctx, req, nil)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}

			status, err := lazy.Check(ctx, req)
			if err != nil {
				return err
			}
			if status != runner.Success {
				return &StatusError{Status: status}
			}
			return nil
		},
	}

	f := rootCmd.Flags()
	f.BoolVarP(&inPlace, "in-place", "i", false, "Let the formatter rewrite files instead of printing diffs")
	// Support alternate spelling
	f.BoolVar(&inPlace, "inplace", false, "")
	_ = f.MarkHidden("inplace")
	f.BoolVar(&check, "check", false, "Only report differences (cannot be combined with --in-place)")

	f.IntVar(&fmtFlags.lineWidth, "line-width", 0, "Formatter line width")
	f.IntVar(&fmtFlags.tabSize, "tab-size", 0, "Formatter indentation width")
	f.BoolVar(&fmtFlags.noTabIndentation, "no-tab-indentation", false, "Tell the formatter not to indent with tabs")
	f.StringVar(&fmtFlags.commentStyle, "comment-style", "", "Formatter comment style")
	f.BoolVar(&fmtFlags.removeEmpty, "remove-empty", false, "Tell the formatter to remove empty lines")

	f.StringVar(&style, "style", formatter.StyleFile,
		"Formatter config file, or 'file' to let the formatter find the nearest one")
	f.StringVar(&style, "config", formatter.StyleFile, "Alias for --style")
	_ = f.MarkHidden("config")

	f.Var(&colorVal, "color", "Colorize output (auto, always, never)")
	f.BoolVarP(&quiet, "quiet", "q", false, "Suppress everything on stdout except errors")
	f.IntVarP(&jobs, "jobs", "j", 0, "Number of formatter processes to run at once (0 = CPUs + 1)")
	f.VarP(&exclude, "exclude", "e", "Exclude paths matching these globs (comma or space separated, repeatable)")
	f.VarP(&outputVal, "output", "o", "Output format (text, json)")
	f.StringVar(&since, "since", "", "Only check files changed since this git revision")
	f.BoolVarP(&watch, "watch", "w", false, "Keep running and re-check files when they change")
	f.Var(&binary, "formatter", fmt.Sprintf("Formatter binary (default %q, or $%s)", formatter.DefaultBinary, config.EnvBinary))
	f.Var(&cfgPath, "runner-config", fmt.Sprintf("Runner config file (default %s)", config.FileName))

	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	return rootCmd
}
