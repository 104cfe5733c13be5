package runner

import (
	"encoding/json"
	"fmt"
)

// ExitStatus is the outcome of a run, ordered by severity.
type ExitStatus int

const (
	// Success means every file already conforms.
	Success ExitStatus = 0
	// Diff means at least one file would change.
	Diff ExitStatus = 1
	// Trouble means something failed: no files, a formatter error or an unexpected error.
	Trouble ExitStatus = 2
)

// Merge returns the more severe of s and o. Trouble is never downgraded.
func (s ExitStatus) Merge(o ExitStatus) ExitStatus {
	return max(s, o)
}

// Code is the process exit code for s.
func (s ExitStatus) Code() int {
	return int(s)
}

func (s ExitStatus) String() string {
	switch s {
	case Success:
		return "success"
	case Diff:
		return "diff"
	case Trouble:
		return "trouble"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s ExitStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
