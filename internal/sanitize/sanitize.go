// Package sanitize strips invisible control and format characters that
// break markup tokenizing from exported archives.
package sanitize

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode"
)

// keep reports whether r survives cleaning. Category C (Cc, Cf, Co, Cs) is
// dropped except for line breaks and tabs.
func keep(r rune) bool {
	switch r {
	case '\n', '\r', '\t':
		return true
	case unicode.ReplacementChar:
		return true
	}
	return !unicode.In(r, unicode.Cc, unicode.Cf, unicode.Co, unicode.Cs)
}

// Clean copies r to w without category C characters and returns how many
// runes were removed. Invalid UTF-8 decodes to U+FFFD and is kept.
func Clean(r io.Reader, w io.Writer) (int, error) {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	removed := 0
	for {
		c, _, err := br.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return removed, err
		}
		if !keep(c) {
			removed++
			continue
		}
		if _, err := bw.WriteRune(c); err != nil {
			return removed, err
		}
	}
	return removed, bw.Flush()
}

// File cleans path in place. The original is kept as <path>.bak, whose
// name is returned.
func File(path string) (string, int, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer in.Close()
	fi, err := in.Stat()
	if err != nil {
		return "", 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", 0, fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	removed, err := Clean(in, tmp)
	if err != nil {
		tmp.Close()
		return "", removed, fmt.Errorf("clean %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", removed, err
	}
	if err := os.Chmod(tmp.Name(), fi.Mode().Perm()); err != nil {
		return "", removed, err
	}
	in.Close()

	backup := path + ".bak"
	if err := os.Rename(path, backup); err != nil {
		return "", removed, fmt.Errorf("backup: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return backup, removed, fmt.Errorf("replace %s: %w", path, err)
	}
	return backup, removed, nil
}
