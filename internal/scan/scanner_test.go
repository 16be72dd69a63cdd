package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("<html></html>"), 0o644))
}

func TestScanPaths(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "messages.htm"))
	touch(t, filepath.Join(root, "2016", "Messages.HTML"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, ".cache", "old.htm"))
	single := filepath.Join(t.TempDir(), "export.dat")
	touch(t, single)

	files, err := ScanPaths(root, single, filepath.Join(root, "missing"), root)
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
		require.NotZero(t, f.Size)
	}
	want := []string{
		filepath.Join(root, "2016", "Messages.HTML"),
		filepath.Join(root, "messages.htm"),
		single,
	}
	require.ElementsMatch(t, want, paths)
	require.IsNonDecreasing(t, paths)
}

func TestIsArchive(t *testing.T) {
	require.True(t, IsArchive("messages.htm"))
	require.True(t, IsArchive("x.HTML"))
	require.False(t, IsArchive("messages.json"))
}
