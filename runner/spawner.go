package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

// Spawner runs one command to completion and returns its captured output.
// Implementations must honor context cancellation and deadlines; a deadline
// that fires mid-run kills the process and reports it as timed out.
type Spawner interface {
	Run(ctx context.Context, name string, args ...string) (types.ExecResult, error)
}

type execSpawner struct {
	log log.Logger
}

// NewSpawner returns a Spawner backed by os/exec.
func NewSpawner(logger log.Logger) Spawner {
	if logger == nil {
		logger = log.New()
	}
	return &execSpawner{log: logger}
}

// Run executes the command and captures stdout and stderr separately. A
// nonzero exit is a normal result, not a Go error; errors are reserved for
// infrastructure problems (missing binary) and context cancellation.
func (s *execSpawner) Run(ctx context.Context, name string, args ...string) (types.ExecResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := types.ExecResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		if errors.Is(ctx.Err(), context.Canceled) {
			// The process was killed by a shutdown, not by its own doing.
			return result, ctx.Err()
		}
		result.ExitCode = exitErr.ExitCode()
		result.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
		return result, nil
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		// Deadline fired before the process could start.
		result.ExitCode = -1
		result.TimedOut = true
		return result, nil
	case ctx.Err() != nil:
		return result, ctx.Err()
	default:
		return result, fmt.Errorf("spawning %s: %w", name, err)
	}
}
