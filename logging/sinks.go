package logging

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

// PerTestFileSink writes one log file per test row, split into passed/ and
// failed/ directories so failures are easy to find.
type PerTestFileSink struct {
	logger *FileLogger
}

func (s *PerTestFileSink) Consume(row types.CaseResult, runID string) error {
	dir := s.logger.passedDir
	if row.Status == types.TestStatusFail {
		dir = s.logger.failedDir
	}
	filename := fmt.Sprintf("%s__%s.log", safeFilename(row.Module), safeFilename(row.Test))
	return s.logger.appendFile(filepath.Join(dir, filename), renderRow(row))
}

func (s *PerTestFileSink) Complete(string) error {
	return nil
}

// AllLogsFileSink appends every row to the combined all.log file in run
// order.
type AllLogsFileSink struct {
	logger *FileLogger
}

func (s *AllLogsFileSink) Consume(row types.CaseResult, runID string) error {
	var b strings.Builder
	b.WriteString(strings.Repeat("=", 70))
	b.WriteString("\n")
	b.WriteString(renderRow(row))
	return s.logger.appendFile(s.logger.allLogsFile, b.String())
}

func (s *AllLogsFileSink) Complete(string) error {
	return nil
}

// renderRow formats one result row as plain text. Interpreter output often
// carries ANSI color codes; those are stripped so the files stay readable
// in any viewer.
func renderRow(row types.CaseResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Test: %s\n", row.Test)
	fmt.Fprintf(&b, "Module: %s (%s)\n", row.Module, row.File)
	fmt.Fprintf(&b, "Status: %s\n", row.Status)
	fmt.Fprintf(&b, "Duration: %.1fs\n", row.Duration.Seconds())
	if row.TimedOut {
		b.WriteString("Timed out: true\n")
	}
	if row.Error != nil {
		fmt.Fprintf(&b, "Error: %s\n", row.Error)
	}
	if out := strings.TrimSpace(stripansi.Strip(row.Stdout)); out != "" {
		fmt.Fprintf(&b, "\n--- stdout ---\n%s\n", out)
	}
	if errOut := strings.TrimSpace(stripansi.Strip(row.Stderr)); errOut != "" {
		fmt.Fprintf(&b, "\n--- stderr ---\n%s\n", errOut)
	}
	b.WriteString("\n")
	return b.String()
}
