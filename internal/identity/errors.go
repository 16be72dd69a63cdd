package identity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConflictingRule = errors.New("conflicting substitution rule")
	ErrRuleSyntax      = errors.New("invalid substitution rule")
)

// ConflictingSubstitutionRuleError reports a token that cannot be mapped to a
// single canonical identity: it is either bound to different values or part
// of a rename cycle.
type ConflictingSubstitutionRuleError struct {
	Token  string
	Values []string // competing targets, or the cycle path
	Cycle  bool
}

func (e *ConflictingSubstitutionRuleError) Error() string {
	if e.Cycle {
		return fmt.Sprintf("conflicting substitution rule: %q is part of a rename cycle (%s)",
			e.Token, strings.Join(e.Values, " -> "))
	}
	return fmt.Sprintf("conflicting substitution rule: %q maps to %s",
		e.Token, quoteJoin(e.Values))
}

func (e *ConflictingSubstitutionRuleError) Is(target error) bool {
	return target == ErrConflictingRule
}

// RuleSyntaxError reports a rules file line that is not "old=new".
type RuleSyntaxError struct {
	Line int
	Text string
}

func (e *RuleSyntaxError) Error() string {
	return fmt.Sprintf("invalid substitution rule on line %d: %q", e.Line, e.Text)
}

func (e *RuleSyntaxError) Is(target error) bool {
	return target == ErrRuleSyntax
}

func quoteJoin(vals []string) string {
	q := make([]string, len(vals))
	for i, v := range vals {
		q[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(q, " and ")
}
