// Package nushell binds the harness to a concrete Nushell toolchain. It
// produces structural dumps via `nu --ide-ast`, synthesizes wrapper code in
// Nushell syntax, and builds the command lines the spawner executes. No
// other package knows the scripting language in use.
package nushell

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/mod/semver"

	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

const (
	// DefaultBinary is the interpreter looked up on PATH when no explicit
	// binary is configured.
	DefaultBinary = "nu"

	// MinVersion is the oldest interpreter this harness supports. Older
	// releases lack the --ide-ast structural dump in the shape we decode.
	MinVersion = "0.95.0"
)

// Runtime is a handle on one Nushell interpreter binary. It implements the
// discovery token provider and the runner toolchain.
type Runtime struct {
	binary string
	log    log.Logger
}

// NewRuntime returns a Runtime for the given interpreter binary. An empty
// binary selects DefaultBinary.
func NewRuntime(binary string, logger log.Logger) *Runtime {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = log.New()
	}
	return &Runtime{binary: binary, log: logger}
}

// Binary returns the configured interpreter binary.
func (r *Runtime) Binary() string {
	return r.binary
}

// Available reports whether the interpreter binary can be found on PATH.
func (r *Runtime) Available() error {
	if _, err := exec.LookPath(r.binary); err != nil {
		return fmt.Errorf("nushell binary %q not found: %w", r.binary, err)
	}
	return nil
}

// Version returns the interpreter's reported version string.
func (r *Runtime) Version(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, r.binary, "--version")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("probing %s --version: %w", r.binary, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// CheckVersion probes the interpreter and rejects versions older than
// MinVersion.
func (r *Runtime) CheckVersion(ctx context.Context) error {
	version, err := r.Version(ctx)
	if err != nil {
		return err
	}
	if err := versionSupported(version); err != nil {
		return err
	}
	r.log.Debug("Nushell toolchain accepted", "binary", r.binary, "version", version)
	return nil
}

// versionSupported validates a reported interpreter version against
// MinVersion. Versions are plain dotted triples; the comparison borrows
// semver ordering by prefixing "v".
func versionSupported(version string) error {
	v := "v" + version
	if !semver.IsValid(v) {
		return fmt.Errorf("unrecognized nushell version %q", version)
	}
	if semver.Compare(v, "v"+MinVersion) < 0 {
		return fmt.Errorf("nushell %s is older than the minimum supported %s", version, MinVersion)
	}
	return nil
}

// Tokens produces the ordered structural token dump for a module file. The
// module is parsed, not evaluated.
func (r *Runtime) Tokens(ctx context.Context, file string) ([]types.Token, error) {
	cmd := exec.CommandContext(ctx, r.binary, "--ide-ast", file)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("dumping ast for %s: %w (%s)", file, err, strings.TrimSpace(stderr.String()))
	}
	return parseTokens(stdout.Bytes())
}

func parseTokens(data []byte) ([]types.Token, error) {
	var tokens []types.Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("decoding structural dump: %w", err)
	}
	return tokens, nil
}

// EvalCommand returns the command line that imports a module file and
// invokes one of its exported functions, serializing the function's return
// value as NUON on stdout. The caller's config is suppressed so results do
// not depend on the local environment.
func (r *Runtime) EvalCommand(modulePath, function string) (string, []string) {
	script := fmt.Sprintf("use %s *; %s | to nuon", quotePath(modulePath), function)
	return r.binary, []string{"--no-config-file", "--commands", script}
}

// quotePath wraps a file path in single quotes, which Nushell treats as a
// raw string. Paths containing a single quote cannot be represented and are
// rejected earlier by module enumeration.
func quotePath(path string) string {
	return "'" + path + "'"
}

// WrapperSource implements the runner toolchain.
func (r *Runtime) WrapperSource(wrapperName, binding, teardown, target string) string {
	return WrapperSource(wrapperName, binding, teardown, target)
}

// ContextBinding implements the runner toolchain.
func (r *Runtime) ContextBinding(contextLiteral, beforeEachFn string) string {
	return ContextBinding(contextLiteral, beforeEachFn)
}

// Teardown implements the runner toolchain.
func (r *Runtime) Teardown(afterEachFn string) string {
	return Teardown(afterEachFn)
}

// EmptyContext implements the runner toolchain.
func (r *Runtime) EmptyContext() string {
	return EmptyContext()
}
