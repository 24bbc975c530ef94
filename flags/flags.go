package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	opflags "github.com/ethereum-optimism/optimism/op-service/flags"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
	oprpc "github.com/ethereum-optimism/optimism/op-service/rpc"
)

const EnvVarPrefix = "SCRIPT_ACCEPTOR"

var (
	TestDir = &cli.StringFlag{
		Name:     "testdir",
		Value:    "",
		Required: true,
		EnvVars:  opservice.PrefixEnvVar(EnvVarPrefix, "TESTDIR"),
		Usage:    "Path to the directory from which to discover test modules",
	}
	SuiteConfig = &cli.StringFlag{
		Name:    "suites",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SUITES"),
		Usage:   "Path to suite config file (eg. 'suites.yaml')",
	}
	Suite = &cli.StringFlag{
		Name:    "suite",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SUITE"),
		Usage:   "Suite id from the suite config to run (eg. 'smoke')",
	}
	ModulePattern = &cli.StringFlag{
		Name:    "pattern",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PATTERN"),
		Usage:   "Filename glob that test modules must match (eg. '*_test.nu')",
	}
	MatchModules = &cli.StringFlag{
		Name:    "match-modules",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "MATCH_MODULES"),
		Usage:   "Regex that module names must match to be run",
	}
	MatchTests = &cli.StringFlag{
		Name:    "match-tests",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "MATCH_TESTS"),
		Usage:   "Regex that test names must match to be run",
	}
	ExcludeTests = &cli.StringFlag{
		Name:    "exclude-tests",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "EXCLUDE_TESTS"),
		Usage:   "Regex that removes matching test names from the run",
	}
	NuBinary = &cli.StringFlag{
		Name:    "nu-binary",
		Value:   "nu",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "NU_BINARY"),
		Usage:   "Path to the Nushell binary to use for running tests",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUN_INTERVAL"),
		Usage:   "Interval between test runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	TestTimeout = &cli.DurationFlag{
		Name:    "test-timeout",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TEST_TIMEOUT"),
		Usage:   "Per-test deadline (e.g. '30s'). Set to 0 or omit for no deadline.",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "logs",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LOGDIR"),
		Usage:   "Directory in which to write per-run logs and reports",
	}
	Parallel = &cli.BoolFlag{
		Name:    "parallel",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PARALLEL"),
		Usage:   "Run test modules concurrently (tests within a module stay sequential)",
	}
	Concurrency = &cli.IntFlag{
		Name:    "concurrency",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONCURRENCY"),
		Usage:   "Maximum modules in flight when --parallel is set. 0 means one per CPU.",
	}
	ProgressInterval = &cli.DurationFlag{
		Name:    "progress-interval",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PROGRESS_INTERVAL"),
		Usage:   "How often to log run progress (e.g. '10s'). Set to 0 to disable.",
	}
)

var requiredFlags = []cli.Flag{
	TestDir,
}

var optionalFlags = []cli.Flag{
	SuiteConfig,
	Suite,
	ModulePattern,
	MatchModules,
	MatchTests,
	ExcludeTests,
	NuBinary,
	RunInterval,
	TestTimeout,
	LogDir,
	Parallel,
	Concurrency,
	ProgressInterval,
}
var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oprpc.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return opflags.CheckRequiredXor(ctx)
}
