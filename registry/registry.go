// Package registry loads the suite configuration file that groups module
// directories into named suites with their own pattern and timeout.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so suite files can write timeouts as "30s"
// or "5m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("timeout must be a duration string: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// SuiteConfig describes one suite: a directory of modules relative to the
// test root, with an optional file pattern and per-invocation timeout.
type SuiteConfig struct {
	ID          string   `yaml:"id"`
	Description string   `yaml:"description,omitempty"`
	Dir         string   `yaml:"dir"`
	Pattern     string   `yaml:"pattern,omitempty"`
	Timeout     Duration `yaml:"timeout,omitempty"`
}

type suitesFile struct {
	Suites []SuiteConfig `yaml:"suites"`
}

// Config is the registry configuration.
type Config struct {
	Log log.Logger
	// SuiteConfigFile is the path to the YAML suite definition.
	SuiteConfigFile string
}

// Registry holds the validated suite definitions for a service instance.
type Registry struct {
	config Config
	mu     sync.RWMutex
	suites []SuiteConfig
}

// NewRegistry loads and validates the suite configuration.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.SuiteConfigFile == "" {
		return nil, errors.New("suite config file is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}

	r := &Registry{config: cfg}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) load() error {
	data, err := os.ReadFile(r.config.SuiteConfigFile)
	if err != nil {
		return fmt.Errorf("reading suite config %s: %w", r.config.SuiteConfigFile, err)
	}

	var file suitesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing suite config %s: %w", r.config.SuiteConfigFile, err)
	}
	if len(file.Suites) == 0 {
		return fmt.Errorf("suite config %s defines no suites", r.config.SuiteConfigFile)
	}

	seen := make(map[string]struct{}, len(file.Suites))
	for i, suite := range file.Suites {
		if suite.ID == "" {
			return fmt.Errorf("suite %d has no id", i)
		}
		if _, dup := seen[suite.ID]; dup {
			return fmt.Errorf("duplicate suite id %q", suite.ID)
		}
		seen[suite.ID] = struct{}{}
		if suite.Dir == "" {
			return fmt.Errorf("suite %q has no dir", suite.ID)
		}
		if filepath.IsAbs(suite.Dir) {
			return fmt.Errorf("suite %q dir must be relative to the test root", suite.ID)
		}
		if suite.Pattern != "" {
			if _, err := filepath.Match(suite.Pattern, "probe"); err != nil {
				return fmt.Errorf("suite %q has invalid pattern %q: %w", suite.ID, suite.Pattern, err)
			}
		}
		if suite.Timeout < 0 {
			return fmt.Errorf("suite %q has negative timeout", suite.ID)
		}
	}

	r.mu.Lock()
	r.suites = file.Suites
	r.mu.Unlock()

	r.config.Log.Debug("Loaded suite config",
		"file", r.config.SuiteConfigFile,
		"suites", len(file.Suites))
	return nil
}

// Suites returns a copy of the suite definitions in file order.
func (r *Registry) Suites() []SuiteConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SuiteConfig, len(r.suites))
	copy(out, r.suites)
	return out
}

// Suite looks a suite up by id.
func (r *Registry) Suite(id string) (SuiteConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, suite := range r.suites {
		if suite.ID == id {
			return suite, true
		}
	}
	return SuiteConfig{}, false
}
