// Package modlist enumerates script test modules on disk.
package modlist

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultPattern matches Nushell modules.
const DefaultPattern = "*.nu"

// FindModules walks root and returns every module file whose base name
// matches pattern, sorted for a stable enumeration order. Dot-prefixed
// files and directories are ignored, which also hides disposable wrapper
// files left behind by a crashed run. Files whose path contains a single
// quote are skipped because the eval command line cannot address them.
func FindModules(root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, "probe"); err != nil {
		return nil, fmt.Errorf("invalid module pattern %q: %w", pattern, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("module root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("module root %s is not a directory", root)
	}

	var modules []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if ok, _ := filepath.Match(pattern, name); !ok {
			return nil
		}
		if strings.ContainsRune(path, '\'') {
			return nil
		}
		modules = append(modules, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(modules)
	return modules, nil
}
