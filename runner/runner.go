// Package runner executes discovered test modules. Each test invocation
// runs in its own subprocess built by the engine; the module runner threads
// lifecycle hooks and context around those invocations and turns exit codes
// into result rows.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/script-acceptor/discovery"
	"github.com/ethereum-optimism/infra/script-acceptor/metrics"
	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

// SuiteRunner discovers and executes annotated test modules.
type SuiteRunner interface {
	// RunAll discovers every configured module, applies the selection, and
	// executes the surviving work. The returned result keeps module
	// enumeration order. The error return is reserved for infrastructure
	// failures and cancellation; test failures live in the result.
	RunAll(ctx context.Context) (*RunResult, error)
	// RunModule executes one already-built descriptor.
	RunModule(ctx context.Context, desc types.Descriptor) (*ModuleResult, error)
}

// invoker is the slice of the engine the module runner needs. It exists so
// runner tests can script exit codes without spawning processes.
type invoker interface {
	RunTest(ctx context.Context, file, binding, teardown, target string) (types.ExecResult, error)
}

// Config configures a SuiteRunner.
type Config struct {
	// Modules are the module files to run, in enumeration order.
	Modules []string
	// Discoverer builds descriptors from module files.
	Discoverer *discovery.Discoverer
	// Selection filters modules and tests. The zero value selects all.
	Selection discovery.Selection
	// Toolchain synthesizes wrapper code and eval command lines.
	Toolchain Toolchain
	// Spawner runs subprocesses. Defaults to the os/exec spawner.
	Spawner Spawner
	// Timeout bounds each subprocess invocation. Zero means no limit.
	Timeout time.Duration
	// Parallel runs modules concurrently. Tests within a module always
	// run sequentially.
	Parallel bool
	// Concurrency caps the worker count when Parallel is set. Zero picks
	// a sensible default.
	Concurrency int
	// ProgressInterval emits a progress log line at this cadence while a
	// run is active. Zero disables progress logging.
	ProgressInterval time.Duration
	// RunID labels results and metrics. Defaults to a fresh UUID at
	// construction.
	RunID string
	Log   log.Logger
}

type suiteRunner struct {
	cfg    Config
	engine invoker
	log    log.Logger
	tracer trace.Tracer
}

// NewSuiteRunner validates the config and builds the runner.
func NewSuiteRunner(cfg Config) (SuiteRunner, error) {
	if cfg.Discoverer == nil {
		return nil, errors.New("discoverer is required")
	}
	if cfg.Toolchain == nil {
		return nil, errors.New("toolchain is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	engine, err := NewEngine(EngineConfig{
		Toolchain: cfg.Toolchain,
		Spawner:   cfg.Spawner,
		Log:       cfg.Log,
	})
	if err != nil {
		return nil, err
	}
	return &suiteRunner{
		cfg:    cfg,
		engine: engine,
		log:    cfg.Log,
		tracer: otel.Tracer("script-acceptor"),
	}, nil
}

func (r *suiteRunner) RunAll(ctx context.Context) (*RunResult, error) {
	ctx, span := r.tracer.Start(ctx, "run all modules")
	defer span.End()

	runID := r.cfg.RunID
	start := time.Now()
	result := &RunResult{RunID: runID, Start: start}

	r.log.Info("Starting test run",
		"run_id", runID,
		"modules", len(r.cfg.Modules),
		"parallel", r.cfg.Parallel)

	work := r.discoverWork(ctx, result)

	progress := newProgressTracker(len(work), r.cfg.ProgressInterval, r.log)
	progress.start()
	defer progress.stop()

	var runErr error
	if r.cfg.Parallel && len(work) > 1 {
		runErr = r.runParallel(ctx, work, result, progress)
	} else {
		for _, w := range work {
			m, err := r.runModule(ctx, w.desc)
			if err != nil {
				runErr = err
				break
			}
			result.Modules[w.index] = m
			progress.bump(w.desc.Name, m.Status)
		}
	}
	if runErr != nil {
		return nil, runErr
	}

	result.finalize(time.Since(start))
	r.log.Info("Test run complete",
		"run_id", runID,
		"status", result.Status,
		"total", result.Stats.Total,
		"passed", result.Stats.Passed,
		"failed", result.Stats.Failed,
		"skipped", result.Stats.Skipped,
		"duration", result.Duration)
	return result, nil
}

// discoverWork builds descriptors for every selected module. Modules that
// fail discovery are recorded on the result immediately; runnable modules
// get a placeholder slot so execution can fill them in enumeration order.
func (r *suiteRunner) discoverWork(ctx context.Context, result *RunResult) []moduleWork {
	var work []moduleWork
	for _, file := range r.cfg.Modules {
		name := types.ModuleName(file)
		if !r.cfg.Selection.MatchModule(name) {
			r.log.Debug("Module filtered out", "module", name)
			continue
		}
		desc, err := r.cfg.Discoverer.Discover(ctx, file)
		if err != nil {
			r.log.Error("Module discovery failed", "module", name, "error", err)
			metrics.RecordErrorDetails("discovery_failure", err)
			m := &ModuleResult{
				Descriptor: types.NewDescriptor(file),
				Err:        &DiscoveryError{File: file, Err: err},
			}
			m.finalize(0)
			result.Modules = append(result.Modules, m)
			continue
		}
		desc = r.cfg.Selection.Apply(desc)
		if !desc.HasWork() {
			r.log.Debug("Module has no selected work", "module", name)
			continue
		}
		work = append(work, moduleWork{index: len(result.Modules), desc: desc})
		result.Modules = append(result.Modules, nil)
	}
	return work
}

func (r *suiteRunner) RunModule(ctx context.Context, desc types.Descriptor) (*ModuleResult, error) {
	return r.runModule(ctx, desc)
}

// runModule drives one module through its lifecycle: before-all, each
// selected test in order, skip rows, then after-all. Tests within a module
// are always sequential because they may share external state.
func (r *suiteRunner) runModule(ctx context.Context, desc types.Descriptor) (*ModuleResult, error) {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("module %s", desc.Name))
	defer span.End()

	start := time.Now()
	result := &ModuleResult{Descriptor: desc}
	r.log.Debug("Running module", "module", desc.Name, "tests", len(desc.Tests), "skips", len(desc.Skips))

	moduleCtx := r.cfg.Toolchain.EmptyContext()
	runHooks := len(desc.Tests) > 0

	if runHooks && desc.BeforeAll != "" {
		res, err := r.invokeHook(ctx, desc, desc.BeforeAll, moduleCtx)
		if err != nil {
			return nil, err
		}
		if !res.Passed() {
			setupErr := &SetupError{
				Module:   desc.Name,
				Hook:     desc.BeforeAll,
				ExitCode: res.ExitCode,
				Output:   combinedOutput(res.Stderr, res.Stdout),
			}
			r.log.Error("Module setup failed", "module", desc.Name, "error", setupErr)
			metrics.RecordError("setup_failure")
			result.Err = setupErr
			result.finalize(time.Since(start))
			return result, nil
		}
		if out := strings.TrimSpace(res.Stdout); out != "" {
			moduleCtx = out
		}
	}

	binding := r.cfg.Toolchain.ContextBinding(moduleCtx, desc.BeforeEach)
	teardown := r.cfg.Toolchain.Teardown(desc.AfterEach)

	for _, test := range desc.Tests {
		row, err := r.runCase(ctx, desc, binding, teardown, test)
		if err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, row)
	}

	for _, name := range desc.Skips {
		row := types.CaseResult{
			File:   desc.File,
			Module: desc.Name,
			Test:   name,
			Status: types.TestStatusSkip,
		}
		metrics.RecordCase(r.cfg.RunID, desc.Name, name, row.Status)
		result.Rows = append(result.Rows, row)
	}

	if runHooks && desc.AfterAll != "" {
		// Best effort: a failing after-all is logged but never changes
		// test outcomes.
		res, err := r.invokeHook(ctx, desc, desc.AfterAll, moduleCtx)
		if err != nil {
			r.log.Warn("Module cleanup aborted", "module", desc.Name, "hook", desc.AfterAll, "error", err)
		} else if !res.Passed() {
			r.log.Warn("Module cleanup failed",
				"module", desc.Name,
				"hook", desc.AfterAll,
				"exit_code", res.ExitCode,
				"output", firstLine(combinedOutput(res.Stderr, res.Stdout)))
		}
	}

	result.finalize(time.Since(start))
	return result, nil
}

// invokeHook runs a lifecycle hook in its own subprocess with the module
// context bound and no teardown.
func (r *suiteRunner) invokeHook(ctx context.Context, desc types.Descriptor, hook, moduleCtx string) (types.ExecResult, error) {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("hook %s", hook))
	defer span.End()
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}
	binding := r.cfg.Toolchain.ContextBinding(moduleCtx, "")
	return r.engine.RunTest(ctx, desc.File, binding, "", hook)
}

// runCase executes one test and maps its exit code onto a result row.
func (r *suiteRunner) runCase(ctx context.Context, desc types.Descriptor, binding, teardown, test string) (types.CaseResult, error) {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("test %s", test))
	defer span.End()
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	res, err := r.engine.RunTest(ctx, desc.File, binding, teardown, test)
	if err != nil {
		return types.CaseResult{}, err
	}

	row := types.CaseResult{
		File:     desc.File,
		Module:   desc.Name,
		Test:     test,
		Duration: res.Duration,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		TimedOut: res.TimedOut,
	}
	if res.Passed() {
		row.Status = types.TestStatusPass
		r.log.Debug("Test passed", "module", desc.Name, "test", test, "duration", res.Duration)
	} else {
		row.Status = types.TestStatusFail
		row.Error = failureError(test, res)
		r.log.Info("Test failed",
			"module", desc.Name,
			"test", test,
			"exit_code", res.ExitCode,
			"timed_out", res.TimedOut,
			"error", row.Error)
	}
	metrics.RecordCase(r.cfg.RunID, desc.Name, test, row.Status)
	return row, nil
}

// failureError distills a failed invocation into a single error value.
func failureError(test string, res types.ExecResult) error {
	if res.TimedOut {
		return fmt.Errorf("test %q timed out after %s", test, formatDuration(res.Duration))
	}
	detail := firstLine(combinedOutput(res.Stderr, res.Stdout))
	if detail == "" {
		return fmt.Errorf("test %q exited with code %d", test, res.ExitCode)
	}
	return fmt.Errorf("test %q exited with code %d: %s", test, res.ExitCode, detail)
}
