// Package logging persists run artifacts to disk: one log file per test,
// a combined log, a text summary, and machine-readable reports. Artifacts
// for a run live under <baseDir>/testrun-<runID>/.
package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum-optimism/infra/script-acceptor/reporting"
	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

const (
	// RunDirectoryPrefix is the standardized prefix for run directories.
	RunDirectoryPrefix = "testrun-"

	SummaryFilename     = "summary.log"
	AllLogsFilename     = "all.log"
	HTMLResultsFilename = "results.html"
	JSONResultsFilename = "results.json"

	passedDirName = "passed"
	failedDirName = "failed"
)

// ResultSink is an interface for different ways of consuming test results.
type ResultSink interface {
	// Consume processes a single test result row.
	Consume(row types.CaseResult, runID string) error
	// Complete is called when all results have been consumed.
	Complete(runID string) error
}

// FileLogger handles writing test output to files.
type FileLogger struct {
	baseDir     string
	logDir      string
	passedDir   string
	failedDir   string
	summaryFile string
	allLogsFile string
	runID       string
	mu          sync.Mutex
	sinks       []ResultSink
}

// NewFileLogger creates the run directory tree and the default sinks.
func NewFileLogger(baseDir, runID string) (*FileLogger, error) {
	if runID == "" {
		return nil, errors.New("runID cannot be empty")
	}

	logDir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	l := &FileLogger{
		baseDir:     baseDir,
		logDir:      logDir,
		passedDir:   filepath.Join(logDir, passedDirName),
		failedDir:   filepath.Join(logDir, failedDirName),
		summaryFile: filepath.Join(logDir, SummaryFilename),
		allLogsFile: filepath.Join(logDir, AllLogsFilename),
		runID:       runID,
	}
	for _, dir := range []string{l.passedDir, l.failedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory %s: %w", dir, err)
		}
	}
	l.sinks = []ResultSink{
		&PerTestFileSink{logger: l},
		&AllLogsFileSink{logger: l},
	}
	return l, nil
}

// RunID returns the run this logger writes for.
func (l *FileLogger) RunID() string {
	return l.runID
}

// Dir returns the run's log directory.
func (l *FileLogger) Dir() string {
	return l.logDir
}

// PassedDir returns the directory holding logs of passed and skipped tests.
func (l *FileLogger) PassedDir() string {
	return l.passedDir
}

// FailedDir returns the directory holding logs of failed tests.
func (l *FileLogger) FailedDir() string {
	return l.failedDir
}

// SummaryFile returns the path of the text summary.
func (l *FileLogger) SummaryFile() string {
	return l.summaryFile
}

// AllLogsFile returns the path of the combined log.
func (l *FileLogger) AllLogsFile() string {
	return l.allLogsFile
}

// LogRow feeds one result row to all sinks.
func (l *FileLogger) LogRow(row types.CaseResult) error {
	for _, sink := range l.sinks {
		if err := sink.Consume(row, l.runID); err != nil {
			return fmt.Errorf("error in sink: %w", err)
		}
	}
	return nil
}

// LogSummary writes the text summary and the HTML and JSON reports.
func (l *FileLogger) LogSummary(summary *reporting.Summary) error {
	if err := l.writeArtifact(l.summaryFile, func(f *os.File) error {
		return reporting.WriteText(f, summary)
	}); err != nil {
		return err
	}
	if err := l.writeArtifact(filepath.Join(l.logDir, HTMLResultsFilename), func(f *os.File) error {
		return reporting.WriteHTML(f, summary)
	}); err != nil {
		return err
	}
	return l.writeArtifact(filepath.Join(l.logDir, JSONResultsFilename), func(f *os.File) error {
		return reporting.WriteJSON(f, summary)
	})
}

// Complete finalizes all sinks.
func (l *FileLogger) Complete() error {
	for _, sink := range l.sinks {
		if err := sink.Complete(l.runID); err != nil {
			return fmt.Errorf("error completing sink: %w", err)
		}
	}
	return nil
}

// LogResults writes every row, the summary artifacts, and completes the
// sinks in one call.
func (l *FileLogger) LogResults(summary *reporting.Summary, rows []types.CaseResult) error {
	for _, row := range rows {
		if err := l.LogRow(row); err != nil {
			return err
		}
	}
	if err := l.LogSummary(summary); err != nil {
		return err
	}
	return l.Complete()
}

func (l *FileLogger) writeArtifact(path string, write func(*os.File) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// appendFile appends content to path, creating it on first use.
func (l *FileLogger) appendFile(path, content string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	return nil
}

// safeFilename replaces characters that might be problematic in filenames.
func safeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return replacer.Replace(s)
}
