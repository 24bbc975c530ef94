// Package reporting renders run results as text, JSON and HTML artifacts.
// It consumes plain result rows so it stays independent of how the run was
// executed.
package reporting

import (
	"time"

	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

// Stats aggregates row counts for a module or a whole run.
type Stats struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Skipped  int     `json:"skipped"`
	Timeouts int     `json:"timeouts"`
	PassRate float64 `json:"pass_rate"`
}

func (s *Stats) add(row types.CaseResult) {
	s.Total++
	switch row.Status {
	case types.TestStatusPass:
		s.Passed++
	case types.TestStatusFail:
		s.Failed++
	case types.TestStatusSkip:
		s.Skipped++
	}
	if row.TimedOut {
		s.Timeouts++
	}
}

func (s *Stats) finalize() {
	if executed := s.Passed + s.Failed; executed > 0 {
		s.PassRate = float64(s.Passed) / float64(executed) * 100
	}
}

// RowSummary is one test row prepared for rendering.
type RowSummary struct {
	Test     string           `json:"test"`
	Status   types.TestStatus `json:"status"`
	Duration time.Duration    `json:"duration"`
	TimedOut bool             `json:"timed_out,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// ModuleSummary is one module's rendered results. Problem is set for
// modules that failed before producing rows.
type ModuleSummary struct {
	Name     string           `json:"name"`
	File     string           `json:"file"`
	Status   types.TestStatus `json:"status"`
	Duration time.Duration    `json:"duration"`
	Stats    Stats            `json:"stats"`
	Rows     []RowSummary     `json:"rows,omitempty"`
	Problem  string           `json:"problem,omitempty"`
}

// Summary is a full run prepared for rendering.
type Summary struct {
	RunID    string           `json:"run_id"`
	Status   types.TestStatus `json:"status"`
	Duration time.Duration    `json:"duration"`
	Stats    Stats            `json:"stats"`
	Modules  []ModuleSummary  `json:"modules"`
}

// Builder accumulates module results in report order.
type Builder struct {
	summary Summary
}

// NewBuilder starts a summary for one run.
func NewBuilder(runID string) *Builder {
	return &Builder{summary: Summary{RunID: runID}}
}

// AddModule appends a module that executed, with its rows in run order.
func (b *Builder) AddModule(name, file string, status types.TestStatus, duration time.Duration, rows []types.CaseResult) {
	m := ModuleSummary{Name: name, File: file, Status: status, Duration: duration}
	for _, row := range rows {
		m.Stats.add(row)
		b.summary.Stats.add(row)
		rs := RowSummary{
			Test:     row.Test,
			Status:   row.Status,
			Duration: row.Duration,
			TimedOut: row.TimedOut,
		}
		if row.Error != nil {
			rs.Error = row.Error.Error()
		}
		m.Rows = append(m.Rows, rs)
	}
	m.Stats.finalize()
	b.summary.Modules = append(b.summary.Modules, m)
}

// AddProblem appends a module that failed at the discovery or setup stage
// and therefore has no rows.
func (b *Builder) AddProblem(name, file, detail string) {
	b.summary.Modules = append(b.summary.Modules, ModuleSummary{
		Name:    name,
		File:    file,
		Status:  types.TestStatusError,
		Problem: detail,
	})
}

// Build finalizes the summary.
func (b *Builder) Build(status types.TestStatus, duration time.Duration) *Summary {
	b.summary.Status = status
	b.summary.Duration = duration
	b.summary.Stats.finalize()
	return &b.summary
}
