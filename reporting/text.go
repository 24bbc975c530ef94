package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

// WriteText renders a plain text summary suitable for summary.log.
func WriteText(w io.Writer, s *Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Test run %s\n", s.RunID)
	fmt.Fprintf(&b, "Status: %s\n", strings.ToUpper(string(s.Status)))
	fmt.Fprintf(&b, "Duration: %s\n", formatDuration(s.Duration))
	fmt.Fprintf(&b, "Total: %d  Passed: %d  Failed: %d  Skipped: %d",
		s.Stats.Total, s.Stats.Passed, s.Stats.Failed, s.Stats.Skipped)
	if s.Stats.Timeouts > 0 {
		fmt.Fprintf(&b, "  Timeouts: %d", s.Stats.Timeouts)
	}
	b.WriteString("\n")
	if s.Stats.Passed+s.Stats.Failed > 0 {
		fmt.Fprintf(&b, "Pass rate: %.1f%%\n", s.Stats.PassRate)
	}
	b.WriteString("\n")

	for _, m := range s.Modules {
		if m.Problem != "" {
			fmt.Fprintf(&b, "%s %s: %s\n", statusMarker(m.Status), m.Name, m.Problem)
			continue
		}
		fmt.Fprintf(&b, "%s %s (%d/%d passed) [%s]\n",
			statusMarker(m.Status), m.Name, m.Stats.Passed, m.Stats.Total, formatDuration(m.Duration))
		for _, row := range m.Rows {
			fmt.Fprintf(&b, "  %s %s [%s]\n", statusMarker(row.Status), row.Test, formatDuration(row.Duration))
			if row.Error != "" {
				fmt.Fprintf(&b, "      %s\n", row.Error)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON renders the summary as indented JSON for machine consumption.
func WriteJSON(w io.Writer, s *Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func statusMarker(status types.TestStatus) string {
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
