package app

import (
	"fmt"
	"strings"

	"github.com/andyballingall/cmake-format-runner/internal/runner"
)

// ConflictingFlagsError reports flags that cannot be combined.
type ConflictingFlagsError struct {
	Flags []string
}

func (e *ConflictingFlagsError) Error() string {
	return fmt.Sprintf("flags --%s cannot be used together", strings.Join(e.Flags, " and --"))
}

// StatusError carries a non-success run outcome out of the command. Its
// details have already been reported.
type StatusError struct {
	Status runner.ExitStatus
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("run finished with status %s", e.Status)
}
