// Package main provides the development tasks for cmake-format-runner.
package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/andyballingall/cmake-format-runner"

func main() {
	root := &cobra.Command{
		Use:           "dev",
		Short:         "Development tasks for cmake-format-runner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		buildCmd(),
		cleanCmd(),
		toolCmd("fmt", "gofumpt", "-l", "-w", "."),
		toolCmd("lint", "golangci-lint", "run"),
		versionCmd(),
		coverageCmd(),
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}

func version(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, "git", "describe", "--tags", "--always", "--dirty").Output()
	if err != nil {
		return "dev"
	}
	return strings.TrimSpace(string(out))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version derived from git",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Print(version(cmd.Context()))
			return nil
		},
	}
}

func buildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build bin/cmake-format-runner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name := "cmake-format-runner"
			if runtime.GOOS == "windows" {
				name += ".exe"
			}
			v := version(cmd.Context())
			if err := os.MkdirAll("bin", 0o755); err != nil {
				return fmt.Errorf("failed to create bin directory: %w", err)
			}
			out := filepath.Join("bin", name)
			fmt.Printf("Building %s...\n", v)
			ldflags := fmt.Sprintf("-X %s/internal/app.Version=%s", modulePath, v)
			if err := run(cmd.Context(), "go", "build", "-ldflags", ldflags, "-o", out, "./cmd/cmake-format-runner"); err != nil {
				return fmt.Errorf("build failed: %w", err)
			}
			fmt.Printf("✅ Build complete: %s\n", out)
			return nil
		},
	}
}

func cleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove build and test artefacts",
		RunE: func(_ *cobra.Command, _ []string) error {
			for _, dir := range []string{"bin", "dist"} {
				if err := os.RemoveAll(dir); err != nil {
					fmt.Printf("❌ Failed to remove dir %s: %v\n", dir, err)
				}
			}
			for _, pattern := range []string{"*.log", "coverage*", "*.out", "*.test", "profile.cov"} {
				matches, _ := filepath.Glob(pattern)
				for _, m := range matches {
					if err := os.Remove(m); err != nil {
						fmt.Printf("❌ Failed to remove %s: %v\n", m, err)
					} else {
						fmt.Printf("✅ Removed %s\n", m)
					}
				}
			}
			return nil
		},
	}
}

// toolCmd runs an external developer tool that must already be installed.
func toolCmd(use, tool string, args ...string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: "Run " + tool,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := exec.LookPath(tool); err != nil {
				return fmt.Errorf("%s not found on PATH", tool)
			}
			fmt.Printf("Running %s...\n", tool)
			if err := run(cmd.Context(), tool, args...); err != nil {
				return fmt.Errorf("%s failed: %w", tool, err)
			}
			return nil
		},
	}
}

func coverageCmd() *cobra.Command {
	var minimum float64
	cmd := &cobra.Command{
		Use:   "coverage [profile]",
		Short: "Fail if any non-main function is below the minimum coverage",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile := "coverage.out"
			if len(args) == 1 {
				profile = args[0]
			}
			out, err := exec.CommandContext(cmd.Context(), "go", "tool", "cover", "-func", profile).Output()
			if err != nil {
				return fmt.Errorf("go tool cover: %w", err)
			}
			failures, total := parseCoverage(out, minimum)
			if len(failures) > 0 {
				fmt.Printf("Functions below %.1f%% coverage:\n", minimum)
				for _, f := range failures {
					fmt.Printf("  %s\n", f)
				}
				return fmt.Errorf("coverage check failed")
			}
			fmt.Printf("✅ All non-main functions have at least %.1f%% coverage\n", minimum)
			if total != "" {
				fmt.Printf("📊 %s\n", total)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&minimum, "min", 80, "minimum coverage per function")
	return cmd
}

func parseCoverage(output []byte, minimum float64) (failures []string, total string) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if fields[0] == "total:" {
			total = line
			continue
		}
		// main is exercised through the testscript binary.
		if strings.Contains(fields[0], "/scripts/") || fields[1] == "main" {
			continue
		}
		pct, err := strconv.ParseFloat(strings.TrimSuffix(fields[len(fields)-1], "%"), 64)
		if err == nil && pct < minimum {
			failures = append(failures, line)
		}
	}
	return failures, total
}

func run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
