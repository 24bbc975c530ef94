package runner

import (
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

// progressTracker periodically logs how far along a run is. Long suite runs
// otherwise look stalled while a slow module executes.
type progressTracker struct {
	total     int
	completed atomic.Int64
	interval  time.Duration
	log       log.Logger
	startedAt time.Time
	done      chan struct{}
	stopped   atomic.Bool
}

func newProgressTracker(total int, interval time.Duration, logger log.Logger) *progressTracker {
	return &progressTracker{
		total:    total,
		interval: interval,
		log:      logger,
		done:     make(chan struct{}),
	}
}

// start launches the ticker goroutine. A zero interval disables it.
func (p *progressTracker) start() {
	p.startedAt = time.Now()
	if p.interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.log.Info("Run progress",
					"completed", p.completed.Load(),
					"total", p.total,
					"elapsed", time.Since(p.startedAt).Round(time.Second))
			case <-p.done:
				return
			}
		}
	}()
}

// bump records one finished module.
func (p *progressTracker) bump(module string, status types.TestStatus) {
	n := p.completed.Add(1)
	p.log.Debug("Module complete",
		"module", module,
		"status", status,
		"completed", n,
		"total", p.total)
}

// stop halts the ticker goroutine. Safe to call more than once.
func (p *progressTracker) stop() {
	if p.stopped.CompareAndSwap(false, true) {
		close(p.done)
	}
}
