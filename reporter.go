package sat

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/script-acceptor/runner"
	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

// printResultsTable prints the results of the acceptance tests to the console.
func (s *sat) printResultsTable(result *runner.RunResult) {
	s.config.Log.Info("Printing results...")
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Script Acceptance Results (%s)", formatDuration(result.Duration)))

	// Configure columns
	t.AppendHeader(table.Row{
		"Type", "ID", "Duration", "Tests", "Passed", "Failed", "Skipped", "Status", "Error",
	})

	// Set column configurations for better readability
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "ID", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
		{Name: "Error", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	// Print modules and their results
	for _, module := range result.Modules {
		moduleErr := ""
		if module.Err != nil {
			moduleErr = extractKeyErrorMessage(module.Err)
		}

		// Module row - show test counts but no "1" in Tests column
		t.AppendRow(table.Row{
			"Module",
			module.Descriptor.Name,
			formatDuration(module.Duration),
			"-", // Don't count the module as a test
			module.Stats.Passed,
			module.Stats.Failed,
			module.Stats.Skipped,
			getResultString(module.Status),
			moduleErr,
		})

		// Print tests in this module
		for i, row := range module.Rows {
			prefix := "├──"
			if i == len(module.Rows)-1 {
				prefix = "└──"
			}

			errorMsg := ""
			if row.Error != nil {
				errorMsg = extractKeyErrorMessage(row.Error)
			}

			t.AppendRow(table.Row{
				"Test",
				fmt.Sprintf("%s %s", prefix, row.Test),
				formatDuration(row.Duration),
				"1", // Count actual test
				boolToInt(row.Status == types.TestStatusPass),
				boolToInt(row.Status == types.TestStatusFail),
				boolToInt(row.Status == types.TestStatusSkip),
				getResultString(row.Status),
				errorMsg,
			})
		}

		t.AppendSeparator()
	}

	// Update the table style setting based on result status
	if result.Status == types.TestStatusPass {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else if result.Status == types.TestStatusSkip {
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	// Add summary footer
	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		formatDuration(result.Duration),
		result.Stats.Total,
		result.Stats.Passed,
		result.Stats.Failed,
		result.Stats.Skipped,
		getResultString(result.Status),
		"",
	})

	t.Render()
}

// extractKeyErrorMessage extracts the most pertinent part of the error message for display
func extractKeyErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	errStr := err.Error()

	// Assertion failures from std assert carry the real message
	if idx := strings.Index(errStr, "Assertion failed"); idx != -1 {
		return lineAt(errStr, idx)
	}

	// Shell errors surface as "Error: nu::shell::..." lines
	if idx := strings.Index(errStr, "Error:"); idx != -1 {
		return lineAt(errStr, idx)
	}

	// If we can't find a specific pattern, limit to the first line or 80 chars
	if idx := strings.Index(errStr, "\n"); idx != -1 {
		return errStr[:idx]
	} else if len(errStr) > 80 {
		return errStr[:70] + "..."
	}

	return errStr
}

// lineAt returns the remainder of the line starting at idx.
func lineAt(s string, idx int) string {
	end := len(s)
	if newLine := strings.Index(s[idx:], "\n"); newLine != -1 {
		end = idx + newLine
	}
	return s[idx:end]
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
