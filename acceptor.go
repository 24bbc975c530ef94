package sat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/script-acceptor/discovery"
	"github.com/ethereum-optimism/infra/script-acceptor/exitcodes"
	"github.com/ethereum-optimism/infra/script-acceptor/logging"
	"github.com/ethereum-optimism/infra/script-acceptor/metrics"
	"github.com/ethereum-optimism/infra/script-acceptor/modlist"
	"github.com/ethereum-optimism/infra/script-acceptor/nushell"
	"github.com/ethereum-optimism/infra/script-acceptor/registry"
	"github.com/ethereum-optimism/infra/script-acceptor/reporting"
	"github.com/ethereum-optimism/infra/script-acceptor/runner"
	"github.com/ethereum-optimism/infra/script-acceptor/types"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
)

// sat implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &sat{}

// toolchainChecker is the slice of the runtime the lifecycle needs to gate
// startup on a usable interpreter.
type toolchainChecker interface {
	Available() error
	CheckVersion(ctx context.Context) error
}

// sat is a Script Acceptance Tester that runs annotation-driven Nushell
// test modules.
type sat struct {
	ctx      context.Context
	config   *Config
	version  string
	registry *registry.Registry
	runtime  toolchainChecker
	runner   runner.SuiteRunner
	logger   *logging.FileLogger
	result   *runner.RunResult

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*sat, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating acceptor with config",
		"testDir", config.TestDir,
		"suiteConfig", config.SuiteConfigFile,
		"suite", config.SuiteID,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce)

	runtime := nushell.NewRuntime(config.NuBinary, config.Log)

	// Suite config refines where modules come from and how long each test
	// may take. The flat flags are the fallback.
	moduleDir := config.TestDir
	pattern := config.ModulePattern
	if pattern == "" {
		pattern = modlist.DefaultPattern
	}
	timeout := config.Timeout

	var reg *registry.Registry
	if config.SuiteConfigFile != "" {
		var err error
		reg, err = registry.NewRegistry(registry.Config{
			Log:             config.Log,
			SuiteConfigFile: config.SuiteConfigFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create registry: %w", err)
		}
		suite, ok := reg.Suite(config.SuiteID)
		if !ok {
			return nil, fmt.Errorf("unknown suite %q in %s", config.SuiteID, config.SuiteConfigFile)
		}
		moduleDir = filepath.Join(config.TestDir, suite.Dir)
		if suite.Pattern != "" {
			pattern = suite.Pattern
		}
		if suite.Timeout.Std() > 0 {
			timeout = suite.Timeout.Std()
		}
	}

	selection, err := discovery.NewSelection(config.MatchModules, config.MatchTests, config.ExcludeTests)
	if err != nil {
		return nil, fmt.Errorf("invalid test selection: %w", err)
	}

	modules, err := modlist.FindModules(moduleDir, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate test modules: %w", err)
	}
	if len(modules) == 0 {
		config.Log.Warn("No test modules found", "dir", moduleDir, "pattern", pattern)
	}

	discoverer, err := discovery.NewDiscoverer(runtime, config.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create discoverer: %w", err)
	}

	// The file logger owns the run ID so log artifacts and metrics agree
	// on where a result came from.
	runID := uuid.NewString()
	fileLogger, err := logging.NewFileLogger(config.LogDir, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}

	suiteRunner, err := runner.NewSuiteRunner(runner.Config{
		Modules:          modules,
		Discoverer:       discoverer,
		Selection:        selection,
		Toolchain:        runtime,
		Timeout:          timeout,
		Parallel:         config.Parallel,
		Concurrency:      config.Concurrency,
		ProgressInterval: config.ProgressInterval,
		RunID:            runID,
		Log:              config.Log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create suite runner: %w", err)
	}
	config.Log.Info("sat.New: created runtime and suite runner",
		"modules", len(modules), "runID", runID)

	return &sat{
		ctx:              ctx,
		config:           config,
		version:          version,
		registry:         reg,
		runtime:          runtime,
		runner:           suiteRunner,
		logger:           fileLogger,
		done:             make(chan struct{}),
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the acceptance tests periodically at the configured interval.
// Start implements the cliapp.Lifecycle interface.
func (s *sat) Start(ctx context.Context) error {
	// Set up panic recovery to ensure we exit with code 2 for runtime errors
	defer func() {
		if r := recover(); r != nil {
			s.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	s.ctx = ctx
	s.done = make(chan struct{})
	s.running.Store(true)

	if s.config.RunOnce {
		s.config.Log.Info("Starting script-acceptor in run-once mode")
	} else {
		s.config.Log.Info("Starting script-acceptor in continuous mode", "interval", s.config.RunInterval)
	}

	// An absent or stale interpreter is an environment problem, not a test
	// failure. Catch it before any module is touched.
	if err := s.checkToolchain(ctx); err != nil {
		s.config.Log.Error("Toolchain check failed", "error", err)
		return cli.Exit(NewRuntimeError(err).Error(), exitcodes.RuntimeErr)
	}

	// Run tests immediately on startup
	err := s.runTests()
	if err != nil {
		// For runtime errors (like panics or configuration issues), return exit code 2
		s.config.Log.Error("Runtime error running tests", "error", err)
		return cli.Exit(err.Error(), exitcodes.RuntimeErr)
	}

	// If in run-once mode, trigger shutdown and return
	if s.config.RunOnce {
		s.config.Log.Info("Tests completed, exiting (run-once mode)")

		if s.result != nil && s.result.HasErrors() {
			s.config.Log.Warn("Run-once test run hit module errors, returning exit code 2")
			return cli.Exit(NewRuntimeError(s.moduleErrors()).Error(), exitcodes.RuntimeErr)
		}
		if s.result != nil && s.result.Status == types.TestStatusFail {
			s.config.Log.Warn("Run-once test run completed with failures, returning exit code 1")
			// Return exit code 1 for test failures (assertions failed)
			return NewTestFailureError(s.result.String())
		}

		// Only need to call this when we're in run-once mode and all tests passed
		go func() {
			s.shutdownCallback(nil)
		}()
		return nil // Success (exit code 0)
	}

	// Start a goroutine for periodic test execution
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.config.Log.Debug("Starting periodic test runner goroutine", "interval", s.config.RunInterval)

		for {
			select {
			case <-time.After(s.config.RunInterval):
				// Check if we should still be running
				if !s.running.Load() {
					s.config.Log.Debug("Service stopped, exiting periodic test runner")
					return
				}

				// Run tests
				s.config.Log.Info("Running periodic tests")
				if err := s.runTests(); err != nil {
					s.config.Log.Error("Error running periodic tests", "error", err)
				}
				s.config.Log.Info("Test run interval", "interval", s.config.RunInterval)

			case <-s.done:
				s.config.Log.Debug("Done signal received, stopping periodic test runner")
				return

			case <-ctx.Done():
				s.config.Log.Debug("Context canceled, stopping periodic test runner")
				s.running.Store(false)
				return
			}
		}
	}()
	s.config.Log.Debug("script-acceptor started successfully")
	return nil
}

// checkToolchain verifies the Nushell binary exists and is recent enough.
func (s *sat) checkToolchain(ctx context.Context) error {
	if err := s.runtime.Available(); err != nil {
		return err
	}
	return s.runtime.CheckVersion(ctx)
}

// runTests runs all tests and processes the results
func (s *sat) runTests() error {
	s.config.Log.Info("Running all tests...")
	result, err := s.runner.RunAll(s.ctx)
	if err != nil {
		// This is a runtime error (not a test failure)
		s.config.Log.Error("Runtime error running tests", "error", err)
		return NewRuntimeError(err)
	}
	s.result = result

	s.printResultsTable(result)
	fmt.Println(s.result.String())

	summary := buildSummary(result)
	if s.logger != nil {
		if err := s.logger.LogResults(summary, result.Rows()); err != nil {
			s.config.Log.Warn("Failed to write result artifacts", "error", err)
		} else {
			s.config.Log.Info("Result artifacts written", "dir", s.logger.Dir())
		}
	}

	metrics.RecordRun(result.RunID,
		result.Stats.Total,
		result.Stats.Passed,
		result.Stats.Failed,
		result.Stats.Skipped,
		result.Duration)

	s.config.Log.Info("Test run completed", "run_id", result.RunID, "status", s.result.Status)
	return nil
}

// moduleErrors folds every module-scoped error into one error value for
// exit-code reporting.
func (s *sat) moduleErrors() error {
	errored := s.result.Errored()
	errs := make([]error, 0, len(errored))
	for _, m := range errored {
		errs = append(errs, m.Err)
	}
	return errors.Join(errs...)
}

// buildSummary maps a run result onto the report model.
func buildSummary(result *runner.RunResult) *reporting.Summary {
	b := reporting.NewBuilder(result.RunID)
	for _, m := range result.Modules {
		if m.Err != nil {
			b.AddProblem(m.Descriptor.Name, m.Descriptor.File, m.Err.Error())
			continue
		}
		b.AddModule(m.Descriptor.Name, m.Descriptor.File, m.Status, m.Duration, m.Rows)
	}
	return b.Build(result.Status, result.Duration)
}

// Stop stops the script-acceptor service.
// Stop implements the cliapp.Lifecycle interface.
func (s *sat) Stop(ctx context.Context) error {
	s.config.Log.Info("Stopping script-acceptor")

	// Check if we're already stopped
	if !s.running.Load() {
		s.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}

	// Update running state first to prevent new test runs
	s.running.Store(false)

	// Signal goroutines to exit
	s.config.Log.Debug("Sending done signal to goroutines")
	close(s.done)

	s.config.Log.Info("script-acceptor stopped successfully")
	return nil
}

// Stopped returns true if the script-acceptor service is stopped.
// Stopped implements the cliapp.Lifecycle interface.
func (s *sat) Stopped() bool {
	return !s.running.Load()
}

// WaitForShutdown blocks until all goroutines have terminated.
// This is useful in tests to ensure complete cleanup before moving to the next test.
func (s *sat) WaitForShutdown(ctx context.Context) error {
	s.config.Log.Debug("Waiting for all goroutines to terminate")

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.config.Log.Debug("All goroutines terminated successfully")
		return nil
	case <-ctx.Done():
		s.config.Log.Warn("Timed out waiting for goroutines to terminate", "error", ctx.Err())
		return ctx.Err()
	}
}
