package identity

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseRules reads "Name-or-identifier=Canonical name" lines. Blank lines,
// '#' and ';' comments and section headers such as "[DEFAULT]" are skipped.
func ParseRules(r io.Reader) (map[string]string, error) {
	subs := make(map[string]string)
	scanner := bufio.NewScanner(r)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		if line[0] == '[' && line[len(line)-1] == ']' {
			continue
		}

		from, to, ok := strings.Cut(line, "=")
		from = strings.TrimSpace(from)
		to = strings.TrimSpace(to)
		if !ok || from == "" || to == "" {
			return nil, &RuleSyntaxError{Line: lineNum, Text: line}
		}

		if prev, exists := subs[from]; exists && prev != to {
			return nil, &ConflictingSubstitutionRuleError{Token: from, Values: []string{prev, to}}
		}
		subs[from] = to
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return subs, nil
}

// LoadRulesFile parses the rules file at path.
func LoadRulesFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()

	subs, err := ParseRules(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return subs, nil
}
