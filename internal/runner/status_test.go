package runner

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitStatus_Merge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b     ExitStatus
		expected ExitStatus
	}{
		{Success, Success, Success},
		{Success, Diff, Diff},
		{Diff, Success, Diff},
		{Diff, Trouble, Trouble},
		{Trouble, Success, Trouble},
		{Trouble, Diff, Trouble},
	}

	for _, tt := range tests {
		t.Run(tt.a.String()+"+"+tt.b.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.a.Merge(tt.b))
		})
	}
}

func TestExitStatus_Monotonic(t *testing.T) {
	t.Parallel()
	s := Success
	for _, next := range []ExitStatus{Diff, Success, Trouble, Diff, Success} {
		merged := s.Merge(next)
		assert.GreaterOrEqual(t, merged, s)
		s = merged
	}
	assert.Equal(t, Trouble, s)
}

func TestExitStatus_CodeAndString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, Success.Code())
	assert.Equal(t, 1, Diff.Code())
	assert.Equal(t, 2, Trouble.Code())
	assert.Equal(t, "status(7)", ExitStatus(7).String())

	b, err := json.Marshal(Diff)
	require.NoError(t, err)
	assert.JSONEq(t, `"diff"`, string(b))
}

func TestResult_Status(t *testing.T) {
	t.Parallel()

	diff := []string{"--- a\t(original)", "+++ a\t(reformatted)", "@@ -1 +1 @@", "-x ", "+x"}
	tests := []struct {
		name     string
		result   Result
		inPlace  bool
		expected ExitStatus
	}{
		{"clean", Result{File: "a"}, false, Success},
		{"clean with stderr", Result{File: "a", Stderr: []string{"warning"}}, false, Success},
		{"diff", Result{File: "a", Diff: diff}, false, Diff},
		{"diff in place", Result{File: "a", Diff: diff}, true, Success},
		{"error", Result{File: "a", Err: assert.AnError}, false, Trouble},
		{"error in place", Result{File: "a", Err: assert.AnError}, true, Trouble},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.result.Status(tt.inPlace))
		})
	}
}
