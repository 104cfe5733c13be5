package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/andyballingall/cmake-format-runner/internal/config"
	"github.com/andyballingall/cmake-format-runner/internal/discover"
	"github.com/andyballingall/cmake-format-runner/internal/formatter"
	"github.com/andyballingall/cmake-format-runner/internal/fs"
	"github.com/andyballingall/cmake-format-runner/internal/report"
	"github.com/andyballingall/cmake-format-runner/internal/runner"
)

func TestRootCmd(t *testing.T) {
	t.Parallel()

	setup := func(env fs.MapEnvProvider) (*MockManager, *slog.LevelVar, *cobra.Command, *bytes.Buffer) {
		mgr := &MockManager{}
		lazy := &LazyManager{inner: mgr}
		logLevel := &slog.LevelVar{}
		var stdout, stderr bytes.Buffer
		rootCmd := NewRootCmd(lazy, logLevel, &stdout, &stderr, env)
		rootCmd.SetOut(&stdout)
		rootCmd.SetErr(&stderr)
		return mgr, logLevel, rootCmd, &stdout
	}

	// request runs the command and returns the request the manager received.
	request := func(t *testing.T, env fs.MapEnvProvider, args ...string) CheckRequest {
		t.Helper()
		mgr, _, rootCmd, _ := setup(env)
		mgr.On("Check", mock.Anything, mock.Anything).Return(runner.Success, nil)
		rootCmd.SetArgs(args)
		require.NoError(t, rootCmd.Execute())
		mgr.AssertNumberOfCalls(t, "Check", 1)
		req, ok := mgr.Calls[0].Arguments.Get(1).(CheckRequest)
		require.True(t, ok)
		return req
	}

	t.Run("execute help", func(t *testing.T) {
		t.Parallel()
		_, _, rootCmd, stdout := setup(nil)
		rootCmd.SetArgs([]string{"--help"})
		require.NoError(t, rootCmd.Execute())
		assert.Contains(t, stdout.String(), "--in-place")
		assert.NotContains(t, stdout.String(), "--inplace", "the alias is hidden")
	})

	t.Run("test version flag", func(t *testing.T) {
		t.Parallel()
		_, _, rootCmd, stdout := setup(nil)
		rootCmd.SetArgs([]string{"--version"})
		require.NoError(t, rootCmd.Execute())
		assert.Contains(t, stdout.String(), Version)
	})

	t.Run("requires a path", func(t *testing.T) {
		t.Parallel()
		mgr, _, rootCmd, _ := setup(nil)
		rootCmd.SetArgs([]string{})
		require.Error(t, rootCmd.Execute())
		mgr.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		req := request(t, fs.MapEnvProvider{}, "src", "cmake")

		assert.Equal(t, []string{"src", "cmake"}, req.Paths)
		assert.Empty(t, req.Since)
		assert.Equal(t, 0, req.Jobs)
		assert.Equal(t, "text", req.Output)
		assert.Equal(t, report.ColorAuto, req.Color)
		assert.False(t, req.Quiet)
		assert.Equal(t, formatter.Options{
			Binary: formatter.DefaultBinary,
			Style:  formatter.StyleFile,
		}, req.Formatter)
		assert.Equal(t, []string{"build"}, req.Patterns.List())
		assert.Equal(t, discover.DefaultMatcher(), req.Matcher)
	})

	t.Run("test debug flag", func(t *testing.T) {
		t.Parallel()
		mgr, logLevel, rootCmd, _ := setup(nil)
		mgr.On("Check", mock.Anything, mock.Anything).Return(runner.Success, nil)
		rootCmd.SetArgs([]string{"--debug", "."})
		require.NoError(t, rootCmd.Execute())
		assert.Equal(t, slog.LevelDebug, logLevel.Level())
	})

	t.Run("all flags", func(t *testing.T) {
		t.Parallel()
		req := request(t, fs.MapEnvProvider{},
			"-i", "-q", "-j", "3",
			"--line-width", "100", "--tab-size", "4", "--no-tab-indentation",
			"--comment-style", "hash", "--remove-empty",
			"--style", "/etc/style.yaml",
			"--color", "never",
			"-e", "third_party,gen_*", "--exclude", "out",
			"--output", "json",
			"--since", "v1.0",
			"--formatter", "/opt/cmake-format",
			"src",
		)

		assert.Equal(t, 3, req.Jobs)
		assert.True(t, req.Quiet)
		assert.Equal(t, report.ColorNever, req.Color)
		assert.Equal(t, "json", req.Output)
		assert.EqualValues(t, "v1.0", req.Since)
		assert.Equal(t, []string{"build", "gen_*", "out", "third_party"}, req.Patterns.List())
		assert.Equal(t, formatter.Options{
			Binary:  "/opt/cmake-format",
			InPlace: true,
			Style:   "/etc/style.yaml",
			Args: []string{
				"--line-width", "100", "--tab-size", "4", "--use-tabchars", "false",
				"--comment-style", "hash", "--remove-empty",
			},
		}, req.Formatter)
	})

	t.Run("aliases", func(t *testing.T) {
		t.Parallel()
		req := request(t, fs.MapEnvProvider{}, "--inplace", "--config", "style.yaml", ".")
		assert.True(t, req.Formatter.InPlace)
		assert.Equal(t, "style.yaml", req.Formatter.Style)
	})

	t.Run("runner config and precedence", func(t *testing.T) {
		t.Parallel()
		cfgPath := filepath.Join(t.TempDir(), "runner.yml")
		require.NoError(t, os.WriteFile(cfgPath, []byte(`
formatter: from-file
exclude: [vendor]
suffixes: [.cmake, .cmake.in]
jobs: 6
`), 0o600))

		fromFile := request(t, fs.MapEnvProvider{}, "--runner-config", cfgPath, ".")
		assert.Equal(t, "from-file", fromFile.Formatter.Binary)
		assert.Equal(t, 6, fromFile.Jobs)
		assert.Equal(t, []string{"build", "vendor"}, fromFile.Patterns.List())
		assert.Equal(t, []string{".cmake", ".cmake.in"}, fromFile.Matcher.Suffixes)

		fromEnv := request(t, fs.MapEnvProvider{config.EnvBinary: "from-env"}, "--runner-config", cfgPath, ".")
		assert.Equal(t, "from-env", fromEnv.Formatter.Binary)

		fromFlags := request(t, fs.MapEnvProvider{config.EnvBinary: "from-env"},
			"--runner-config", cfgPath, "--formatter", "from-flag", "-j", "0", "-e", "extra", ".")
		assert.Equal(t, "from-flag", fromFlags.Formatter.Binary)
		assert.Equal(t, 0, fromFlags.Jobs, "an explicit -j 0 overrides the config")
		assert.Equal(t, []string{"build", "extra", "vendor"}, fromFlags.Patterns.List())
	})

	t.Run("missing runner config", func(t *testing.T) {
		t.Parallel()
		_, _, rootCmd, _ := setup(fs.MapEnvProvider{})
		rootCmd.SetArgs([]string{"--runner-config", filepath.Join(t.TempDir(), "nope.yml"), "."})
		err := rootCmd.Execute()
		var target *config.MissingConfigError
		require.ErrorAs(t, err, &target)
	})

	t.Run("check conflicts with in-place", func(t *testing.T) {
		t.Parallel()
		mgr, _, rootCmd, _ := setup(fs.MapEnvProvider{})
		rootCmd.SetArgs([]string{"--check", "--in-place", "."})
		err := rootCmd.Execute()
		var target *ConflictingFlagsError
		require.ErrorAs(t, err, &target)
		assert.EqualError(t, err, "flags --check and --in-place cannot be used together")
		mgr.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
	})

	t.Run("check alone is accepted", func(t *testing.T) {
		t.Parallel()
		req := request(t, fs.MapEnvProvider{}, "--check", ".")
		assert.False(t, req.Formatter.InPlace)
	})

	t.Run("invalid flag values", func(t *testing.T) {
		t.Parallel()
		for _, args := range [][]string{
			{"--color", "rainbow", "."},
			{"--output", "xml", "."},
			{"-e", "[bad", "."},
			{"-j", "many", "."},
		} {
			_, _, rootCmd, _ := setup(fs.MapEnvProvider{})
			rootCmd.SetArgs(args)
			assert.Error(t, rootCmd.Execute(), "%v", args)
		}
	})

	t.Run("non-success status", func(t *testing.T) {
		t.Parallel()
		mgr, _, rootCmd, _ := setup(fs.MapEnvProvider{})
		mgr.On("Check", mock.Anything, mock.Anything).Return(runner.Diff, nil)
		rootCmd.SetArgs([]string{"."})
		err := rootCmd.Execute()
		var target *StatusError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, runner.Diff, target.Status)
	})

	t.Run("watch", func(t *testing.T) {
		t.Parallel()
		mgr, _, rootCmd, _ := setup(fs.MapEnvProvider{})
		mgr.On("Watch", mock.Anything, mock.Anything, mock.Anything).Return(context.Canceled)
		rootCmd.SetArgs([]string{"--watch", "."})
		require.NoError(t, rootCmd.Execute(), "interrupting watch mode is a clean exit")
		mgr.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
	})

	t.Run("watch error", func(t *testing.T) {
		t.Parallel()
		mgr, _, rootCmd, _ := setup(fs.MapEnvProvider{})
		mgr.On("Watch", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)
		rootCmd.SetArgs([]string{"-w", "."})
		require.ErrorIs(t, rootCmd.Execute(), assert.AnError)
	})

	t.Run("real manager is built", func(t *testing.T) {
		t.Parallel()
		lazy := &LazyManager{}
		var stdout, stderr bytes.Buffer
		rootCmd := NewRootCmd(lazy, &slog.LevelVar{}, &stdout, &stderr, fs.MapEnvProvider{})
		dir := t.TempDir()
		rootCmd.SetArgs([]string{"-q", dir})
		err := rootCmd.Execute()
		require.True(t, lazy.HasInner())
		var target *StatusError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, runner.Trouble, target.Status)
		assert.Contains(t, stderr.String(), "error: No files found")
	})
}

func TestLazyManager_Panic(t *testing.T) {
	t.Parallel()
	lazy := &LazyManager{}
	assert.Panics(t, func() {
		_, _ = lazy.Check(context.Background(), CheckRequest{})
	})
}
