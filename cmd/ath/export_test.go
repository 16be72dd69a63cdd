package main

import (
	"path/filepath"
	"testing"

	"github.com/Zuo-Peng/archive-threads/internal/export"
	"github.com/stretchr/testify/require"
)

func TestParseFormats(t *testing.T) {
	got, err := parseFormats([]string{"json", "csv", "txt", "json"})
	require.NoError(t, err)
	require.Equal(t, []export.Format{export.CSV, export.JSON, export.Text}, got)

	_, err = parseFormats([]string{"xml"})
	require.Error(t, err)
}

func TestArchiveDirs(t *testing.T) {
	require.Equal(t, []string{"out"}, archiveDirs("out", []string{"/a/messages.htm"}))
	require.Equal(t, []string{
		filepath.Join("out", "messages"),
		filepath.Join("out", "Messages-2"),
		filepath.Join("out", "old"),
	}, archiveDirs("out", []string{"/a/messages.htm", "/b/Messages.html", "/c/old.htm"}))
}
