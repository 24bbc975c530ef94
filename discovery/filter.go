package discovery

import (
	"fmt"
	"regexp"

	"github.com/ethereum-optimism/infra/script-acceptor/types"
)

// Selection is an immutable set of filter criteria for a run. It is built
// once from the CLI flags and passed by value through the pipeline, so a
// filter can never drift mid-run. The zero value selects everything.
type Selection struct {
	modules *regexp.Regexp
	tests   *regexp.Regexp
	exclude *regexp.Regexp
}

// NewSelection compiles the three filter patterns. An empty pattern places
// no constraint; an empty exclude pattern excludes nothing.
func NewSelection(modulePattern, testPattern, excludePattern string) (Selection, error) {
	var s Selection
	var err error
	if modulePattern != "" {
		if s.modules, err = regexp.Compile(modulePattern); err != nil {
			return Selection{}, fmt.Errorf("invalid module filter %q: %w", modulePattern, err)
		}
	}
	if testPattern != "" {
		if s.tests, err = regexp.Compile(testPattern); err != nil {
			return Selection{}, fmt.Errorf("invalid test filter %q: %w", testPattern, err)
		}
	}
	if excludePattern != "" {
		if s.exclude, err = regexp.Compile(excludePattern); err != nil {
			return Selection{}, fmt.Errorf("invalid exclude filter %q: %w", excludePattern, err)
		}
	}
	return s, nil
}

// MatchModule reports whether a module name is selected.
func (s Selection) MatchModule(name string) bool {
	return s.modules == nil || s.modules.MatchString(name)
}

// MatchTest reports whether a test name is selected. The exclude pattern
// wins over the include pattern.
func (s Selection) MatchTest(name string) bool {
	if s.exclude != nil && s.exclude.MatchString(name) {
		return false
	}
	return s.tests == nil || s.tests.MatchString(name)
}

// Apply returns a copy of the descriptor with unselected tests and skips
// removed. Source order is preserved; hooks are untouched because they run
// only when selected work remains.
func (s Selection) Apply(d types.Descriptor) types.Descriptor {
	out := d
	out.Tests = make([]string, 0, len(d.Tests))
	for _, name := range d.Tests {
		if s.MatchTest(name) {
			out.Tests = append(out.Tests, name)
		}
	}
	out.Skips = make([]string, 0, len(d.Skips))
	for _, name := range d.Skips {
		if s.MatchTest(name) {
			out.Skips = append(out.Skips, name)
		}
	}
	return out
}
