package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// maxNameRunes bounds the label part of an output file name.
const maxNameRunes = 100

// WriteDir writes each rendered thread to dir as "<label>.<ext>", creating
// dir if needed. Labels that collide after sanitizing get "-2", "-3", ...
// suffixes in input order. Existing files are overwritten. It returns the
// written paths.
func WriteDir(dir string, rendered []Rendered) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	used := make(map[string]bool, len(rendered))
	paths := make([]string, 0, len(rendered))
	for _, r := range rendered {
		name := uniqueName(FileName(r.Label), r.Ext, used)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, r.Content, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteStream writes rendered threads to w one after another.
func WriteStream(w io.Writer, rendered []Rendered) error {
	for _, r := range rendered {
		if _, err := w.Write(r.Content); err != nil {
			return err
		}
	}
	return nil
}

// FileName turns a thread label into a safe file name stem.
func FileName(label string) string {
	var b strings.Builder
	n := 0
	for _, r := range strings.TrimSpace(label) {
		if n == maxNameRunes {
			break
		}
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r), unicode.IsControl(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
		n++
	}
	name := strings.Trim(b.String(), ". ")
	if name == "" {
		return "untitled"
	}
	return name
}

func uniqueName(stem, ext string, used map[string]bool) string {
	join := func(s string) string {
		if ext == "" {
			return s
		}
		return s + "." + ext
	}

	name := join(stem)
	for i := 2; used[strings.ToLower(name)]; i++ {
		name = join(fmt.Sprintf("%s-%d", stem, i))
	}
	used[strings.ToLower(name)] = true
	return name
}
