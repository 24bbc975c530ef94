package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

// ResultStats aggregates row counts for a module or a whole run.
type ResultStats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

func (s *ResultStats) add(status types.TestStatus) {
	s.Total++
	switch status {
	case types.TestStatusPass:
		s.Passed++
	case types.TestStatusFail:
		s.Failed++
	case types.TestStatusSkip:
		s.Skipped++
	}
}

func (s *ResultStats) merge(other ResultStats) {
	s.Total += other.Total
	s.Passed += other.Passed
	s.Failed += other.Failed
	s.Skipped += other.Skipped
}

// ModuleResult is the outcome of one module run. Rows keep execution order:
// executed tests first, in selection order, then skips. Err is set for
// module-level problems (discovery or setup failure); such a module carries
// no fabricated per-test rows.
type ModuleResult struct {
	Descriptor types.Descriptor
	Rows       []types.CaseResult
	Status     types.TestStatus
	Stats      ResultStats
	Duration   time.Duration
	Err        error
}

func (m *ModuleResult) finalize(duration time.Duration) {
	m.Duration = duration
	for _, row := range m.Rows {
		m.Stats.add(row.Status)
	}
	if m.Err != nil {
		m.Status = types.TestStatusError
		return
	}
	allSkipped := m.Stats.Total > 0 && m.Stats.Skipped == m.Stats.Total
	m.Status = determineStatusFromFlags(allSkipped, m.Stats.Failed > 0)
}

// RunResult is the outcome of a full run across modules. Modules keep
// enumeration order regardless of execution order.
type RunResult struct {
	RunID    string
	Start    time.Time
	Modules  []*ModuleResult
	Status   types.TestStatus
	Stats    ResultStats
	Duration time.Duration
}

func (r *RunResult) finalize(duration time.Duration) {
	r.Duration = duration
	anyFailed := false
	allSkipped := len(r.Modules) > 0
	for _, m := range r.Modules {
		r.Stats.merge(m.Stats)
		switch m.Status {
		case types.TestStatusFail, types.TestStatusError:
			anyFailed = true
			allSkipped = false
		case types.TestStatusPass:
			allSkipped = false
		}
	}
	r.Status = determineStatusFromFlags(allSkipped, anyFailed)
}

// determineStatusFromFlags decides an aggregate status. Failures dominate;
// a group that only skipped reports skip, everything else is a pass.
func determineStatusFromFlags(allSkipped, anyFailed bool) types.TestStatus {
	if anyFailed {
		return types.TestStatusFail
	}
	if allSkipped {
		return types.TestStatusSkip
	}
	return types.TestStatusPass
}

// Rows flattens every module's rows in module enumeration order.
func (r *RunResult) Rows() []types.CaseResult {
	var rows []types.CaseResult
	for _, m := range r.Modules {
		rows = append(rows, m.Rows...)
	}
	return rows
}

// Errored returns the modules that failed before producing rows.
func (r *RunResult) Errored() []*ModuleResult {
	var errored []*ModuleResult
	for _, m := range r.Modules {
		if m.Err != nil {
			errored = append(errored, m)
		}
	}
	return errored
}

// HasErrors reports whether any module failed at the discovery or setup
// stage.
func (r *RunResult) HasErrors() bool {
	return len(r.Errored()) > 0
}

// String renders the run as a tree for log output.
func (r *RunResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "RunID: %s\n", r.RunID)
	fmt.Fprintf(&b, "Result: %s (%d passed, %d failed, %d skipped) [%s]\n",
		r.Status, r.Stats.Passed, r.Stats.Failed, r.Stats.Skipped, formatDuration(r.Duration))

	for i, m := range r.Modules {
		last := i == len(r.Modules)-1
		branch, stem := "├── ", "│   "
		if last {
			branch, stem = "└── ", "    "
		}
		if m.Err != nil {
			fmt.Fprintf(&b, "%s%s %s: %v\n", branch, statusGlyph(m.Status), m.Descriptor.Name, m.Err)
			continue
		}
		fmt.Fprintf(&b, "%s%s %s (%d/%d passed) [%s]\n",
			branch, statusGlyph(m.Status), m.Descriptor.Name, m.Stats.Passed, m.Stats.Total, formatDuration(m.Duration))
		for j, row := range m.Rows {
			rowBranch := "├── "
			if j == len(m.Rows)-1 {
				rowBranch = "└── "
			}
			fmt.Fprintf(&b, "%s%s%s %s [%s]\n", stem, rowBranch, statusGlyph(row.Status), row.Test, formatDuration(row.Duration))
		}
	}
	return b.String()
}

func statusGlyph(status types.TestStatus) string {
	switch status {
	case types.TestStatusPass:
		return "✓"
	case types.TestStatusFail:
		return "✗"
	case types.TestStatusSkip:
		return "-"
	default:
		return "!"
	}
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// firstLine trims an error message down to a single line for table output.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
