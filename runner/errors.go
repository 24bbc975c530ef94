package runner

import (
	"fmt"
	"strings"
)

// SetupError reports a before-all hook that exited nonzero. The module's
// tests never ran and no per-test rows exist for it.
type SetupError struct {
	Module   string
	Hook     string
	ExitCode int
	Output   string
}

func (e *SetupError) Error() string {
	msg := fmt.Sprintf("module %s: before-all hook %q exited with code %d", e.Module, e.Hook, e.ExitCode)
	if detail := firstLine(e.Output); detail != "" {
		msg += ": " + detail
	}
	return msg
}

// DiscoveryError reports a module whose descriptor could not be built. The
// module contributes no rows; other modules keep running.
type DiscoveryError struct {
	File string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovering %s: %v", e.File, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// combinedOutput folds stderr and stdout into one diagnostic string,
// preferring stderr.
func combinedOutput(stderr, stdout string) string {
	if s := strings.TrimSpace(stderr); s != "" {
		return s
	}
	return strings.TrimSpace(stdout)
}
