// Package discovery locates annotated test functions in script modules
// without evaluating them. It works from a structural token dump produced by
// the script toolchain, so importing a module for discovery can never run
// user code.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

// Provider supplies the ordered structural token dump for a module file.
// Implementations must not evaluate the module.
type Provider interface {
	Tokens(ctx context.Context, file string) ([]types.Token, error)
}

// Discoverer turns module files into test descriptors. The structural dump
// provider is injected so discovery can be exercised without a script
// toolchain on PATH.
type Discoverer struct {
	provider Provider
	log      log.Logger
}

// NewDiscoverer creates a Discoverer backed by the given provider.
func NewDiscoverer(provider Provider, logger log.Logger) (*Discoverer, error) {
	if provider == nil {
		return nil, errors.New("structural dump provider is required")
	}
	if logger == nil {
		logger = log.New()
	}
	return &Discoverer{provider: provider, log: logger}, nil
}

// Extract returns every function definition in the module paired with the
// annotation line above it, in source order.
func (d *Discoverer) Extract(ctx context.Context, file string) ([]types.AnnotatedFunction, error) {
	source, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading module %s: %w", file, err)
	}
	tokens, err := d.provider.Tokens(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("structural dump for %s: %w", file, err)
	}
	return ExtractAnnotations(tokens, string(source)), nil
}

// Discover builds the test descriptor for a single module file.
func (d *Discoverer) Discover(ctx context.Context, file string) (types.Descriptor, error) {
	funcs, err := d.Extract(ctx, file)
	if err != nil {
		return types.Descriptor{}, err
	}
	desc, err := BuildDescriptor(file, funcs)
	if err != nil {
		return types.Descriptor{}, err
	}
	d.log.Debug("Discovered module",
		"module", types.ModuleName(file),
		"tests", len(desc.Tests),
		"skips", len(desc.Skips))
	return desc, nil
}
