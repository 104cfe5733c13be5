package discover

import (
	"fmt"
)

type MissingRootError struct {
	Path string
}

func (e *MissingRootError) Error() string {
	return fmt.Sprintf("%s: no such file or directory", e.Path)
}

type InvalidPatternError struct {
	Pattern string
	Wrapped error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid exclude pattern %q: %v", e.Pattern, e.Wrapped)
}

func (e *InvalidPatternError) Unwrap() error {
	return e.Wrapped
}
