package types

import "time"

// TestStatus represents the possible states of a test execution
type TestStatus string

const (
	TestStatusPass  TestStatus = "pass"
	TestStatusFail  TestStatus = "fail"
	TestStatusSkip  TestStatus = "skip"
	TestStatusError TestStatus = "error"
)

// CaseResult is one result row for one test name in one module. Rows are
// append-only output; they are never mutated after creation. TestStatusError is
// reserved for module-level reporting (discovery/setup problems) and never
// appears on a per-test row.
type CaseResult struct {
	File     string
	Module   string
	Test     string
	Status   TestStatus
	Duration time.Duration
	Error    error // failure detail, nil for pass/skip
	Stdout   string
	Stderr   string
	TimedOut bool
}

// ExecResult captures one subprocess invocation. ExitCode == 0 is the sole
// pass/fail discriminator used by the module runner.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	TimedOut bool
}

// Passed reports whether the invocation exited cleanly.
func (r ExecResult) Passed() bool {
	return r.ExitCode == 0
}
