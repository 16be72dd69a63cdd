package scan

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

type FileInfo struct {
	Path  string
	Mtime int64
	Size  int64
}

// IsArchive reports whether name looks like a messages export.
func IsArchive(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".htm", ".html":
		return true
	}
	return false
}

// ScanPaths expands each path into archive files. Files are taken as given;
// directories are walked for *.htm and *.html. Results are absolute, sorted
// and unique. A path that does not exist is skipped.
func ScanPaths(paths ...string) ([]FileInfo, error) {
	seen := make(map[string]bool)
	var files []FileInfo

	add := func(path string, info os.FileInfo) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if seen[path] {
			return
		}
		seen[path] = true
		files = append(files, FileInfo{
			Path:  path,
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root, info)
			continue
		}

		err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil // skip unreadable dirs
			}
			if info.IsDir() {
				if path != root && strings.HasPrefix(info.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !IsArchive(path) {
				return nil
			}
			add(path, info)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	slices.SortFunc(files, func(a, b FileInfo) int { return strings.Compare(a.Path, b.Path) })
	return files, nil
}
