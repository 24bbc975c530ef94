package modlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("# module\n"), 0o644))
}

func TestFindModules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "store.nu"))
	writeFile(t, filepath.Join(root, "orders", "refund.nu"))
	writeFile(t, filepath.Join(root, "notes.txt"))
	writeFile(t, filepath.Join(root, ".store-ab12.nu"))
	writeFile(t, filepath.Join(root, ".git", "config.nu"))

	modules, err := FindModules(root, "")
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "orders", "refund.nu"),
		filepath.Join(root, "store.nu"),
	}, modules)
}

func TestFindModules_CustomPattern(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "store-test.nu"))
	writeFile(t, filepath.Join(root, "store.nu"))

	modules, err := FindModules(root, "*-test.nu")
	require.NoError(t, err)

	require.Len(t, modules, 1)
	assert.Equal(t, filepath.Join(root, "store-test.nu"), modules[0])
}

func TestFindModules_SkipsUnaddressablePaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "it's-broken.nu"))
	writeFile(t, filepath.Join(root, "fine.nu"))

	modules, err := FindModules(root, "")
	require.NoError(t, err)

	require.Len(t, modules, 1)
	assert.Equal(t, filepath.Join(root, "fine.nu"), modules[0])
}

func TestFindModules_EmptyRoot(t *testing.T) {
	modules, err := FindModules(t.TempDir(), "")
	require.NoError(t, err)
	assert.Empty(t, modules)
}

func TestFindModules_MissingRoot(t *testing.T) {
	_, err := FindModules(filepath.Join(t.TempDir(), "nope"), "")
	require.Error(t, err)
}

func TestFindModules_RootIsFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "store.nu")
	writeFile(t, file)

	_, err := FindModules(file, "")
	require.Error(t, err)
}

func TestFindModules_BadPattern(t *testing.T) {
	_, err := FindModules(t.TempDir(), "[")
	require.Error(t, err)
}
