package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

// Toolchain abstracts the scripting runtime the engine synthesizes wrappers
// for. All generated code is pure text; the toolchain never touches the
// filesystem or spawns processes.
type Toolchain interface {
	// WrapperSource returns the full source of a disposable wrapper
	// function that binds the context, invokes the target, and runs the
	// teardown statement on both the success and the error path.
	WrapperSource(wrapperName, binding, teardown, target string) string
	// ContextBinding returns the statement binding the context for one
	// invocation, merging before-each output over the module context.
	ContextBinding(contextLiteral, beforeEachFn string) string
	// Teardown returns the after-each invocation statement, or "".
	Teardown(afterEachFn string) string
	// EmptyContext returns the literal for a context with no entries.
	EmptyContext() string
	// EvalCommand returns the command line that loads a module file and
	// invokes one of its exported functions in a fresh interpreter.
	EvalCommand(modulePath, function string) (name string, args []string)
}

// Engine executes one isolated test invocation: it synthesizes a wrapper,
// writes a disposable sibling of the module file, runs it in a fresh
// subprocess, and removes the disposable before returning. The engine makes
// no pass/fail judgment; callers interpret the exit code.
type Engine struct {
	toolchain Toolchain
	spawner   Spawner
	log       log.Logger
}

// EngineConfig carries the collaborators for NewEngine.
type EngineConfig struct {
	Toolchain Toolchain
	Spawner   Spawner
	Log       log.Logger
}

// NewEngine creates an execution engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Toolchain == nil {
		return nil, errors.New("toolchain is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.Spawner == nil {
		cfg.Spawner = NewSpawner(cfg.Log)
	}
	return &Engine{
		toolchain: cfg.Toolchain,
		spawner:   cfg.Spawner,
		log:       cfg.Log,
	}, nil
}

// RunTest runs one target function from the module file under a synthesized
// wrapper. binding and teardown are pre-built statements from the toolchain.
// The disposable file is removed on every path, including spawn failures.
func (e *Engine) RunTest(ctx context.Context, file, binding, teardown, target string) (types.ExecResult, error) {
	source, err := os.ReadFile(file)
	if err != nil {
		return types.ExecResult{}, fmt.Errorf("reading module %s: %w", file, err)
	}

	id := uuid.NewString()
	wrapperName := "test-wrapper-" + id
	disposable := disposablePath(file, id)

	wrapper := e.toolchain.WrapperSource(wrapperName, binding, teardown, target)
	if err := os.WriteFile(disposable, disposableSource(source, wrapper), 0o644); err != nil {
		return types.ExecResult{}, fmt.Errorf("writing disposable module %s: %w", disposable, err)
	}
	defer func() {
		if err := os.Remove(disposable); err != nil && !os.IsNotExist(err) {
			e.log.Warn("Failed to remove disposable module", "file", disposable, "error", err)
		}
	}()

	name, args := e.toolchain.EvalCommand(disposable, wrapperName)
	e.log.Debug("Executing wrapper",
		"module", types.ModuleName(file),
		"target", target,
		"disposable", filepath.Base(disposable))
	return e.spawner.Run(ctx, name, args...)
}

// disposablePath places the disposable next to the original so relative
// imports inside the module keep resolving. The dot prefix keeps module
// enumeration from ever discovering a leftover from a crashed run.
func disposablePath(file, id string) string {
	dir, base := filepath.Split(file)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, "."+stem+"-"+id+ext)
}

// disposableSource appends the wrapper below the unmodified module source.
func disposableSource(source []byte, wrapper string) []byte {
	out := make([]byte, 0, len(source)+len(wrapper)+2)
	out = append(out, source...)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	out = append(out, '\n')
	out = append(out, wrapper...)
	return out
}
