package sat

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/script-acceptor/runner"
	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

func TestExtractKeyErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
		{
			name: "assertion line is pulled out of surrounding noise",
			err:  errors.New("test failed with exit code 1: Error: Assertion failed.\nhelp: expected 2 rows"),
			want: "Assertion failed.",
		},
		{
			name: "shell error line",
			err:  errors.New("exit code 1\nError: nu::shell::column_not_found\nmore context"),
			want: "Error: nu::shell::column_not_found",
		},
		{
			name: "multi-line falls back to first line",
			err:  errors.New("something odd happened\nwith details below"),
			want: "something odd happened",
		},
		{
			name: "short message kept whole",
			err:  errors.New("timed out after 30s"),
			want: "timed out after 30s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractKeyErrorMessage(tt.err))
		})
	}
}

func TestExtractKeyErrorMessage_CapsLongLines(t *testing.T) {
	long := strings.Repeat("x", 200)
	got := extractKeyErrorMessage(errors.New(long))
	assert.Equal(t, long[:70]+"...", got)
}

func TestBuildSummary_MapsModulesAndProblems(t *testing.T) {
	result := &runner.RunResult{
		RunID:    "run-42",
		Status:   types.TestStatusFail,
		Duration: 3 * time.Second,
		Modules: []*runner.ModuleResult{
			{
				Descriptor: types.Descriptor{File: "store.nu", Name: "store"},
				Status:     types.TestStatusPass,
				Duration:   time.Second,
				Rows: []types.CaseResult{
					{File: "store.nu", Module: "store", Test: "insert works", Status: types.TestStatusPass},
				},
			},
			{
				Descriptor: types.Descriptor{File: "broken.nu", Name: "broken"},
				Status:     types.TestStatusError,
				Err:        errors.New("structural dump for broken.nu: parse failed"),
			},
		},
	}

	summary := buildSummary(result)

	require.Equal(t, "run-42", summary.RunID)
	require.Len(t, summary.Modules, 2)

	store := summary.Modules[0]
	assert.Equal(t, "store", store.Name)
	assert.Equal(t, types.TestStatusPass, store.Status)
	require.Len(t, store.Rows, 1)
	assert.Equal(t, "insert works", store.Rows[0].Test)

	broken := summary.Modules[1]
	assert.Equal(t, types.TestStatusError, broken.Status)
	assert.Contains(t, broken.Problem, "parse failed")
	assert.Empty(t, broken.Rows)
}

func TestPrintResultsTableDoesNotPanic(t *testing.T) {
	_, service, _, cancel := setupTest(t)
	defer cancel()

	result := &runner.RunResult{
		RunID:    "run-assert",
		Status:   types.TestStatusFail,
		Duration: 1500 * time.Millisecond,
		Modules: []*runner.ModuleResult{
			{
				Descriptor: types.Descriptor{File: "store.nu", Name: "store"},
				Status:     types.TestStatusFail,
				Duration:   time.Second,
				Rows: []types.CaseResult{
					{Test: "insert works", Status: types.TestStatusPass, Duration: 400 * time.Millisecond},
					{Test: "delete works", Status: types.TestStatusFail, Duration: 600 * time.Millisecond,
						Error: errors.New("test failed with exit code 1")},
				},
				Stats: runner.ResultStats{Total: 2, Passed: 1, Failed: 1},
			},
		},
		Stats: runner.ResultStats{Total: 2, Passed: 1, Failed: 1},
	}

	service.printResultsTable(result)
}

func TestGetResultString(t *testing.T) {
	assert.Equal(t, "✓ pass", getResultString(types.TestStatusPass))
	assert.Equal(t, "- skip", getResultString(types.TestStatusSkip))
	assert.Equal(t, "✗ fail", getResultString(types.TestStatusFail))
	assert.Equal(t, "! error", getResultString(types.TestStatusError))
}

func TestBoolToInt(t *testing.T) {
	assert.Equal(t, 1, boolToInt(true))
	assert.Equal(t, 0, boolToInt(false))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "0.0s", formatDuration(49*time.Millisecond))
}
