package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andyballingall/cmake-format-runner/internal/discover"
	"github.com/andyballingall/cmake-format-runner/internal/report"
	"github.com/spf13/pflag"
)

var (
	_ pflag.Value = (*formatValue)(nil)
	_ pflag.Value = (*pathValue)(nil)
	_ pflag.Value = (*colorValue)(nil)
	_ pflag.Value = (*patternsValue)(nil)
)

// formatValue implements pflag.Value to provide a custom type name in help text
// and validation for output formats.
type formatValue string

func (f *formatValue) String() string {
	return string(*f)
}

func (f *formatValue) Set(v string) error {
	if v != "json" && v != "text" {
		return fmt.Errorf("must be 'text' or 'json'")
	}
	*f = formatValue(v)
	return nil
}

func (f *formatValue) Type() string {
	return "<format>"
}

// pathValue implements pflag.Value to provide a custom type name in help text.
type pathValue string

func (p *pathValue) String() string {
	return string(*p)
}

func (p *pathValue) Set(v string) error {
	*p = pathValue(v)
	return nil
}

func (p *pathValue) Type() string {
	return "<path>"
}

// colorValue validates --color.
type colorValue report.ColorMode

func (c *colorValue) String() string {
	return string(*c)
}

func (c *colorValue) Set(v string) error {
	m, err := report.ParseColorMode(v)
	if err != nil {
		return err
	}
	*c = colorValue(m)
	return nil
}

func (c *colorValue) Type() string {
	return "<when>"
}

// patternsValue collects --exclude arguments. Each argument may hold several
// globs separated by commas or whitespace; all are parsed here, once.
type patternsValue struct {
	globs []string
}

func (p *patternsValue) String() string {
	return strings.Join(p.globs, ",")
}

func (p *patternsValue) Set(v string) error {
	for _, g := range discover.SplitPatternList(v) {
		if err := make(discover.Patterns).Add(g); err != nil {
			return err
		}
		p.globs = append(p.globs, g)
	}
	return nil
}

func (p *patternsValue) Type() string {
	return "<patterns>"
}

// Patterns merges the collected globs with base into a new set.
func (p *patternsValue) Patterns(base ...string) (discover.Patterns, error) {
	return discover.NewPatterns(append(base, p.globs...)...)
}

// formatterFlags are forwarded to the formatter unchanged in meaning.
type formatterFlags struct {
	lineWidth        int
	tabSize          int
	noTabIndentation bool
	commentStyle     string
	removeEmpty      bool
}

// Args returns the formatter arguments for the flags that were set.
func (f formatterFlags) Args() []string {
	var args []string
	if f.lineWidth > 0 {
		args = append(args, "--line-width", strconv.Itoa(f.lineWidth))
	}
	if f.tabSize > 0 {
		args = append(args, "--tab-size", strconv.Itoa(f.tabSize))
	}
	if f.noTabIndentation {
		args = append(args, "--use-tabchars", "false")
	}
	if f.commentStyle != "" {
		args = append(args, "--comment-style", f.commentStyle)
	}
	if f.removeEmpty {
		args = append(args, "--remove-empty")
	}
	return args
}
