package reporting

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

func sampleSummary() *Summary {
	b := NewBuilder("run-42")
	b.AddModule("store", "suite/store.nu", types.TestStatusPass, 2*time.Second, []types.CaseResult{
		{Module: "store", Test: "insert works", Status: types.TestStatusPass, Duration: time.Second},
		{Module: "store", Test: "slow path", Status: types.TestStatusSkip},
	})
	b.AddModule("orders", "suite/orders.nu", types.TestStatusFail, 3*time.Second, []types.CaseResult{
		{Module: "orders", Test: "refund", Status: types.TestStatusFail, Duration: 2 * time.Second,
			Error: errors.New(`test "refund" exited with code 1: row missing`), TimedOut: false},
	})
	b.AddProblem("broken", "suite/broken.nu", "before-all hook \"start db\" exited with code 1")
	return b.Build(types.TestStatusFail, 6*time.Second)
}

func TestBuilder_Aggregates(t *testing.T) {
	s := sampleSummary()

	assert.Equal(t, "run-42", s.RunID)
	assert.Equal(t, types.TestStatusFail, s.Status)
	require.Len(t, s.Modules, 3)

	assert.Equal(t, 3, s.Stats.Total)
	assert.Equal(t, 1, s.Stats.Passed)
	assert.Equal(t, 1, s.Stats.Failed)
	assert.Equal(t, 1, s.Stats.Skipped)
	assert.InDelta(t, 50.0, s.Stats.PassRate, 0.01)

	store := s.Modules[0]
	assert.Equal(t, 2, store.Stats.Total)
	assert.Equal(t, types.TestStatusPass, store.Status)
	require.Len(t, store.Rows, 2)
	assert.Equal(t, "insert works", store.Rows[0].Test)

	broken := s.Modules[2]
	assert.Equal(t, types.TestStatusError, broken.Status)
	assert.Empty(t, broken.Rows)
	assert.Contains(t, broken.Problem, "start db")
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleSummary()))
	out := buf.String()

	assert.Contains(t, out, "Test run run-42")
	assert.Contains(t, out, "Status: FAIL")
	assert.Contains(t, out, "Total: 3  Passed: 1  Failed: 1  Skipped: 1")
	assert.Contains(t, out, "Pass rate: 50.0%")
	assert.Contains(t, out, "✓ store")
	assert.Contains(t, out, "✗ orders")
	assert.Contains(t, out, "row missing")
	assert.Contains(t, out, "! broken")
	assert.Contains(t, out, "- slow path")
}

func TestWriteJSON_RoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleSummary()))

	var decoded Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-42", decoded.RunID)
	require.Len(t, decoded.Modules, 3)
	assert.Equal(t, "broken", decoded.Modules[2].Name)
	assert.Equal(t, 1, decoded.Stats.Failed)
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, sampleSummary()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "run-42")
	assert.Contains(t, out, "insert works")
	assert.Contains(t, out, "refund")
	assert.Contains(t, out, "row missing")
	assert.Contains(t, out, "before-all hook")
	// Error text is escaped, not injected.
	assert.NotContains(t, out, "<script>")
}

func TestWriteHTML_EscapesUserText(t *testing.T) {
	b := NewBuilder("run-1")
	b.AddModule("m", "m.nu", types.TestStatusFail, 0, []types.CaseResult{
		{Module: "m", Test: "<script>alert(1)</script>", Status: types.TestStatusFail,
			Error: errors.New("<img src=x>")},
	})
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, b.Build(types.TestStatusFail, 0)))
	out := buf.String()

	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestStatsPassRate_NoExecutedTests(t *testing.T) {
	b := NewBuilder("run-1")
	b.AddModule("m", "m.nu", types.TestStatusSkip, 0, []types.CaseResult{
		{Module: "m", Test: "t", Status: types.TestStatusSkip},
	})
	s := b.Build(types.TestStatusSkip, 0)
	assert.Zero(t, s.Stats.PassRate)
}
