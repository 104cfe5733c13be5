// Package fakefmt is a stand-in for cmake-format used by tests. It strips
// trailing whitespace and expands leading tabs, and reacts to marker comments:
//
//	# fakefmt: fail   exit 1 with a parse error on stderr
//	# fakefmt: warn   succeed but print a warning on stderr
package fakefmt

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// EnvVar switches a re-executed test binary into formatter mode.
const EnvVar = "CMAKE_FORMAT_RUNNER_FAKEFMT"

const (
	markerFail = "# fakefmt: fail"
	markerWarn = "# fakefmt: warn"
)

// Requested reports whether the current process should act as the formatter.
func Requested() bool {
	return os.Getenv(EnvVar) == "1"
}

// Enable makes child processes of the current process act as the formatter.
func Enable() {
	_ = os.Setenv(EnvVar, "1")
}

// Binary returns the path of the running executable, for use as Options.Binary.
func Binary() string {
	exe, err := os.Executable()
	if err != nil {
		return os.Args[0]
	}
	return exe
}

// Main runs the fake formatter with cmake-format's argument shape:
// the file first, then flags. It returns the exit status.
func Main(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "usage: cmake-format <file> [-i] [--config-files FILE]")
		return 2
	}
	file := args[0]

	inPlace := false
	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "-i":
			inPlace = true
		case "--config-files":
			if i+1 >= len(args) {
				fmt.Fprintln(stderr, "--config-files requires a value")
				return 2
			}
			i++
			if _, err := os.Stat(args[i]); err != nil {
				fmt.Fprintf(stderr, "config file %s not found\n", args[i])
				return 1
			}
		}
	}

	in, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	content := string(in)

	if strings.Contains(content, markerFail) {
		fmt.Fprintf(stderr, "fakefmt: parse error in %s\n", file)
		return 1
	}
	if strings.Contains(content, markerWarn) {
		fmt.Fprintf(stderr, "warning: %s looks odd\n", file)
	}

	formatted := Format(content)
	if inPlace {
		if err := os.WriteFile(file, []byte(formatted), 0o600); err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
		return 0
	}
	_, _ = io.WriteString(stdout, formatted)
	return 0
}

// Format applies the fake style rules.
func Format(content string) string {
	if content == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for i, l := range lines {
		l = strings.TrimRight(l, " \t")
		trimmed := strings.TrimLeft(l, "\t")
		if n := len(l) - len(trimmed); n > 0 {
			l = strings.Repeat("  ", n) + trimmed
		}
		lines[i] = l
	}
	return strings.Join(lines, "\n") + "\n"
}
