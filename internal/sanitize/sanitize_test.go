package sanitize

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	in := "Hi\u200b there\x00\n\tok\r\n\u202ehé\u0007"
	var out bytes.Buffer
	removed, err := Clean(strings.NewReader(in), &out)
	require.NoError(t, err)
	require.Equal(t, 4, removed)
	require.Equal(t, "Hi there\n\tok\r\nhé", out.String())
}

func TestFile_KeepsBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "messages.htm")
	orig := []byte("<p>a\u200db</p>")
	require.NoError(t, os.WriteFile(path, orig, 0o644))

	backup, removed, err := File(path)
	require.NoError(t, err)
	require.Equal(t, path+".bak", backup)
	require.Equal(t, 1, removed)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "<p>ab</p>", string(got))

	saved, err := os.ReadFile(backup)
	require.NoError(t, err)
	require.Equal(t, orig, saved)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestFile_KeepsPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.htm")
	require.NoError(t, os.WriteFile(path, []byte("a\u0000b"), 0o644))
	require.NoError(t, os.Chmod(path, 0o640))

	_, _, err := File(path)
	require.NoError(t, err)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o640), fi.Mode().Perm())
}

func TestFile_Missing(t *testing.T) {
	_, _, err := File(filepath.Join(t.TempDir(), "none.htm"))
	require.Error(t, err)
}
