package runner

import (
	"context"
	"runtime"
	"sync"

	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

// defaultConcurrency caps the module worker pool when no explicit
// concurrency is configured. Each worker spawns interpreter subprocesses,
// so going past the CPU count mostly adds contention.
func defaultConcurrency() int {
	return runtime.NumCPU()
}

// moduleWork pairs a runnable descriptor with its slot in the run result,
// so parallel execution cannot reorder the report.
type moduleWork struct {
	index int
	desc  types.Descriptor
}

// runParallel fans module work out to a bounded worker pool. Tests inside a
// module still run sequentially on whichever worker picked the module up.
// The first infrastructure error cancels the remaining work.
func (r *suiteRunner) runParallel(ctx context.Context, work []moduleWork, result *RunResult, progress *progressTracker) error {
	workers := r.cfg.Concurrency
	if workers <= 0 {
		workers = defaultConcurrency()
	}
	if workers > len(work) {
		workers = len(work)
	}
	r.log.Debug("Running modules in parallel", "modules", len(work), "workers", workers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan moduleWork)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range jobs {
				m, err := r.runModule(ctx, w.desc)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					cancel()
					continue
				}
				result.Modules[w.index] = m
				progress.bump(w.desc.Name, m.Status)
			}
		}()
	}

	for _, w := range work {
		select {
		case jobs <- w:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	// A cancellation that never reached a worker still dropped work; the
	// result would keep empty slots, so surface it as the run error.
	if firstErr == nil {
		firstErr = ctx.Err()
	}
	return firstErr
}
