package sat

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/script-acceptor/flags"
	"github.com/ethereum/go-ethereum/log"
)

// Config holds the application configuration
type Config struct {
	TestDir          string
	SuiteConfigFile  string        // Path to the suite config file, empty when suites are not used
	SuiteID          string        // Suite from the suite config to run
	ModulePattern    string        // Filename glob that module files must match
	MatchModules     string        // Regex over module names
	MatchTests       string        // Regex over test names
	ExcludeTests     string        // Regex removing matching test names
	NuBinary         string        // Path to the Nushell binary
	RunInterval      time.Duration // Interval between test runs
	RunOnce          bool          // Indicates if the service should exit after one test run
	Timeout          time.Duration // Per-test deadline, zero for none
	LogDir           string        // Directory to store test logs
	Parallel         bool          // Run modules concurrently
	Concurrency      int           // Modules in flight when Parallel is set (0 = auto-determine)
	ProgressInterval time.Duration // Interval between progress updates, zero to disable
	Log              log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger, testDir string) (*Config, error) {
	// Parse flags
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}
	if testDir == "" {
		return nil, errors.New("test directory is required")
	}

	// Suites are all-or-nothing: a suite id only means something inside a
	// suite config, and a suite config without an id leaves the run
	// undefined.
	suiteConfigFile := ctx.String(flags.SuiteConfig.Name)
	suiteID := ctx.String(flags.Suite.Name)
	if suiteID != "" && suiteConfigFile == "" {
		return nil, fmt.Errorf("--%s requires --%s", flags.Suite.Name, flags.SuiteConfig.Name)
	}
	if suiteConfigFile != "" && suiteID == "" {
		return nil, fmt.Errorf("--%s requires --%s", flags.SuiteConfig.Name, flags.Suite.Name)
	}

	var absSuiteConfig string
	if suiteConfigFile != "" {
		var err error
		absSuiteConfig, err = filepath.Abs(suiteConfigFile)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for suite config '%s': %w", suiteConfigFile, err)
		}
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	runOnce := runInterval == 0

	timeout := ctx.Duration(flags.TestTimeout.Name)
	if timeout < 0 {
		return nil, fmt.Errorf("test timeout must not be negative, got %s", timeout)
	}

	concurrency := ctx.Int(flags.Concurrency.Name)
	if concurrency < 0 {
		return nil, fmt.Errorf("concurrency must not be negative, got %d", concurrency)
	}

	// Get log directory, default to "logs" if not specified
	logDir := ctx.String(flags.LogDir.Name)
	if logDir == "" {
		logDir = "logs"
	}

	// Resolve the absolute paths
	absTestDir, err := filepath.Abs(testDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for test directory '%s': %w", testDir, err)
	}
	logDir, err = filepath.Abs(logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", logDir, err)
	}

	return &Config{
		TestDir:          absTestDir,
		SuiteConfigFile:  absSuiteConfig,
		SuiteID:          suiteID,
		ModulePattern:    ctx.String(flags.ModulePattern.Name),
		MatchModules:     ctx.String(flags.MatchModules.Name),
		MatchTests:       ctx.String(flags.MatchTests.Name),
		ExcludeTests:     ctx.String(flags.ExcludeTests.Name),
		NuBinary:         ctx.String(flags.NuBinary.Name),
		RunInterval:      runInterval,
		RunOnce:          runOnce,
		Timeout:          timeout,
		LogDir:           logDir,
		Parallel:         ctx.Bool(flags.Parallel.Name),
		Concurrency:      concurrency,
		ProgressInterval: ctx.Duration(flags.ProgressInterval.Name),
		Log:              log,
	}, nil
}
