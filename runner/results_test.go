package runner

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

func row(test string, status types.TestStatus) types.CaseResult {
	return types.CaseResult{File: "m.nu", Module: "m", Test: test, Status: status}
}

func TestDetermineStatusFromFlags(t *testing.T) {
	tests := []struct {
		name       string
		allSkipped bool
		anyFailed  bool
		expected   types.TestStatus
	}{
		{name: "all passed", expected: types.TestStatusPass},
		{name: "any failure dominates", anyFailed: true, expected: types.TestStatusFail},
		{name: "failure dominates skips", allSkipped: true, anyFailed: true, expected: types.TestStatusFail},
		{name: "all skipped", allSkipped: true, expected: types.TestStatusSkip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, determineStatusFromFlags(tt.allSkipped, tt.anyFailed))
		})
	}
}

func TestModuleResult_Finalize(t *testing.T) {
	m := &ModuleResult{
		Descriptor: types.NewDescriptor("store.nu"),
		Rows: []types.CaseResult{
			row("a", types.TestStatusPass),
			row("b", types.TestStatusFail),
			row("c", types.TestStatusSkip),
		},
	}
	m.finalize(3 * time.Second)

	assert.Equal(t, ResultStats{Total: 3, Passed: 1, Failed: 1, Skipped: 1}, m.Stats)
	assert.Equal(t, types.TestStatusFail, m.Status)
	assert.Equal(t, 3*time.Second, m.Duration)
}

func TestModuleResult_FinalizeAllSkipped(t *testing.T) {
	m := &ModuleResult{
		Descriptor: types.NewDescriptor("store.nu"),
		Rows:       []types.CaseResult{row("a", types.TestStatusSkip)},
	}
	m.finalize(0)
	assert.Equal(t, types.TestStatusSkip, m.Status)
}

func TestModuleResult_FinalizeError(t *testing.T) {
	m := &ModuleResult{
		Descriptor: types.NewDescriptor("store.nu"),
		Err:        errors.New("before-all exploded"),
	}
	m.finalize(0)
	assert.Equal(t, types.TestStatusError, m.Status)
	assert.Equal(t, 0, m.Stats.Total)
}

func newFinalizedModule(name string, rows ...types.CaseResult) *ModuleResult {
	m := &ModuleResult{Descriptor: types.NewDescriptor(name + ".nu"), Rows: rows}
	m.finalize(time.Second)
	return m
}

func TestRunResult_FinalizeAggregates(t *testing.T) {
	r := &RunResult{
		RunID: "run-1",
		Modules: []*ModuleResult{
			newFinalizedModule("a", row("t1", types.TestStatusPass), row("t2", types.TestStatusPass)),
			newFinalizedModule("b", row("t3", types.TestStatusFail), row("t4", types.TestStatusSkip)),
		},
	}
	r.finalize(5 * time.Second)

	assert.Equal(t, ResultStats{Total: 4, Passed: 2, Failed: 1, Skipped: 1}, r.Stats)
	assert.Equal(t, types.TestStatusFail, r.Status)
	assert.False(t, r.HasErrors())
}

func TestRunResult_FinalizeAllSkipped(t *testing.T) {
	r := &RunResult{
		Modules: []*ModuleResult{
			newFinalizedModule("a", row("t1", types.TestStatusSkip)),
			newFinalizedModule("b", row("t2", types.TestStatusSkip)),
		},
	}
	r.finalize(0)
	assert.Equal(t, types.TestStatusSkip, r.Status)
}

func TestRunResult_ErroredModuleFailsRun(t *testing.T) {
	errored := &ModuleResult{
		Descriptor: types.NewDescriptor("broken.nu"),
		Err:        &DiscoveryError{File: "broken.nu", Err: errors.New("bad dump")},
	}
	errored.finalize(0)

	r := &RunResult{
		Modules: []*ModuleResult{
			newFinalizedModule("a", row("t1", types.TestStatusPass)),
			errored,
		},
	}
	r.finalize(0)

	assert.Equal(t, types.TestStatusFail, r.Status)
	assert.True(t, r.HasErrors())
	require.Len(t, r.Errored(), 1)
	assert.Equal(t, "broken", r.Errored()[0].Descriptor.Name)
}

func TestRunResult_RowsFlattenInOrder(t *testing.T) {
	r := &RunResult{
		Modules: []*ModuleResult{
			newFinalizedModule("a", row("t1", types.TestStatusPass)),
			newFinalizedModule("b", row("t2", types.TestStatusPass), row("t3", types.TestStatusSkip)),
		},
	}

	rows := r.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "t1", rows[0].Test)
	assert.Equal(t, "t2", rows[1].Test)
	assert.Equal(t, "t3", rows[2].Test)
}

func TestRunResult_StringTree(t *testing.T) {
	r := &RunResult{
		RunID: "run-1",
		Modules: []*ModuleResult{
			newFinalizedModule("store", row("insert works", types.TestStatusPass)),
			newFinalizedModule("orders", row("refund", types.TestStatusFail)),
		},
	}
	r.finalize(time.Second)

	out := r.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "store")
	assert.Contains(t, out, "insert works")
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, "└──")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "first", firstLine("first\nsecond"))
	assert.Equal(t, "only", firstLine("  only  "))
	assert.Empty(t, firstLine("\n\n"))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "0.0s", formatDuration(12*time.Millisecond))
}
