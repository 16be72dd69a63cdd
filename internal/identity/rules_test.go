package identity

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize_Substitutions(t *testing.T) {
	rules, err := NewRules(RulesConfig{
		Substitutions: map[string]string{
			"J Smith":      "John Smith",
			"12345@id":     "John Smith",
			"John H Smith": "John Smith",
		},
	})
	require.NoError(t, err)

	for _, tok := range []string{"J Smith", "12345@id", "John H Smith", "John Smith"} {
		require.Equal(t, "John Smith", rules.Normalize(tok), tok)
	}
	require.Equal(t, "Alice", rules.Normalize("Alice"))
}

func TestNormalize_Owner(t *testing.T) {
	rules, err := NewRules(RulesConfig{
		OwnerIdentifier:  "99@id",
		OwnerDisplayName: "Me",
	})
	require.NoError(t, err)

	require.Equal(t, "Me", rules.Normalize("99@id"))
	require.Equal(t, "Me", rules.Normalize("Me"))
	require.Equal(t, "Me", rules.Owner())
}

func TestNewRules_NumericOwnerGetsSuffix(t *testing.T) {
	rules, err := NewRules(RulesConfig{OwnerIdentifier: "501029017", OwnerDisplayName: "Edward Wells"})
	require.NoError(t, err)
	require.Equal(t, "Edward Wells", rules.Normalize("501029017@facebook.com"))
	require.Equal(t, "501029017", rules.Normalize("501029017"))

	rules, err = NewRules(RulesConfig{OwnerIdentifier: "42", OwnerDisplayName: "Me", IDSuffix: "@example.org"})
	require.NoError(t, err)
	require.Equal(t, "Me", rules.Normalize("42@example.org"))
}

func TestNewRules_OwnerAliases(t *testing.T) {
	rules, err := NewRules(RulesConfig{
		OwnerIdentifier: "7@id",
		OwnerAliases:    []string{"Ed Wells", "Eddie"},
	})
	require.NoError(t, err)

	require.Equal(t, "Ed Wells", rules.Owner())
	require.Equal(t, "Ed Wells", rules.Normalize("Eddie"))
	require.Equal(t, "Ed Wells", rules.Normalize("7@id"))
}

func TestNewRules_OwnerWithoutName(t *testing.T) {
	rules, err := NewRules(RulesConfig{OwnerIdentifier: "7@id"})
	require.NoError(t, err)
	require.Equal(t, "7@id", rules.Owner())
	require.Equal(t, "7@id", rules.Normalize("7@id"))
}

func TestNewRules_ChainsResolveToFixedPoint(t *testing.T) {
	rules, err := NewRules(RulesConfig{
		Substitutions: map[string]string{
			"A": "B",
			"B": "C",
			"X": "99@id",
		},
		OwnerIdentifier:  "99@id",
		OwnerDisplayName: "Me",
	})
	require.NoError(t, err)

	require.Equal(t, "C", rules.Normalize("A"))
	require.Equal(t, "C", rules.Normalize("B"))
	require.Equal(t, "Me", rules.Normalize("X"))
}

func TestNewRules_Conflicts(t *testing.T) {
	tests := []struct {
		name  string
		cfg   RulesConfig
		cycle bool
	}{
		{
			name: "cycle",
			cfg: RulesConfig{Substitutions: map[string]string{
				"A": "B",
				"B": "A",
			}},
			cycle: true,
		},
		{
			name: "alias bound elsewhere",
			cfg: RulesConfig{
				Substitutions:    map[string]string{"Eddie": "Edward Smith"},
				OwnerDisplayName: "Me",
				OwnerAliases:     []string{"Eddie"},
			},
		},
		{
			name: "owner identifier bound elsewhere",
			cfg: RulesConfig{
				Substitutions:    map[string]string{"99@id": "Someone"},
				OwnerIdentifier:  "99@id",
				OwnerDisplayName: "Me",
			},
		},
		{
			name: "owner name renamed away",
			cfg: RulesConfig{
				Substitutions:    map[string]string{"Me": "Someone"},
				OwnerDisplayName: "Me",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRules(tt.cfg)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrConflictingRule))

			var cerr *ConflictingSubstitutionRuleError
			require.ErrorAs(t, err, &cerr)
			require.Equal(t, tt.cycle, cerr.Cycle)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	rules, err := NewRules(RulesConfig{
		Substitutions: map[string]string{
			"J Smith":  "John Smith",
			"A":        "B",
			"B":        "C",
			"C":        "D",
			"Old Me":   "99@id",
			"12345@id": "J Smith",
		},
		OwnerIdentifier:  "99@id",
		OwnerDisplayName: "Me",
		OwnerAliases:     []string{"Myself"},
	})
	require.NoError(t, err)

	tokens := []string{"J Smith", "A", "B", "C", "D", "Old Me", "12345@id", "99@id", "Me", "Myself", "stranger", ""}
	for _, tok := range tokens {
		once := rules.Normalize(tok)
		require.Equal(t, once, rules.Normalize(once), tok)
	}
	require.Equal(t, "John Smith", rules.Normalize("12345@id"))
}

func TestNormalize_NilRules(t *testing.T) {
	var rules *Rules
	require.Equal(t, "x", rules.Normalize("x"))
	require.Equal(t, "", rules.Owner())
}

func TestRules_Fingerprint(t *testing.T) {
	mk := func(cfg RulesConfig) string {
		r, err := NewRules(cfg)
		require.NoError(t, err)
		return r.Fingerprint()
	}

	base := RulesConfig{Substitutions: map[string]string{"Bob": "Robert"}, OwnerDisplayName: "Me"}
	require.Equal(t, mk(base), mk(base))
	// chains that resolve alike normalize alike
	require.Equal(t,
		mk(RulesConfig{Substitutions: map[string]string{"A": "C", "B": "C"}}),
		mk(RulesConfig{Substitutions: map[string]string{"A": "B", "B": "C"}}))

	require.NotEqual(t, mk(base), mk(RulesConfig{OwnerDisplayName: "Me"}))
	require.NotEqual(t, mk(base), mk(RulesConfig{Substitutions: base.Substitutions, OwnerDisplayName: "Myself"}))
	require.Len(t, (*Rules)(nil).Fingerprint(), 16)
}

func TestParseRules(t *testing.T) {
	input := "\ufeff[DEFAULT]\n" +
		"# friends\n" +
		"John H Smith=John Smith\n" +
		"  12345@facebook.com = John Smith  \n" +
		"\n" +
		"; legacy\n" +
		"J Smith=John Smith\n" +
		"J Smith=John Smith\n"

	subs, err := ParseRules(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"John H Smith":       "John Smith",
		"12345@facebook.com": "John Smith",
		"J Smith":            "John Smith",
	}, subs)
}

func TestParseRules_Errors(t *testing.T) {
	_, err := ParseRules(strings.NewReader("ok=fine\nno equals sign\n"))
	var serr *RuleSyntaxError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, 2, serr.Line)

	_, err = ParseRules(strings.NewReader("=missing key\n"))
	require.ErrorIs(t, err, ErrRuleSyntax)

	_, err = ParseRules(strings.NewReader("J Smith=John Smith\nJ Smith=Jane Smith\n"))
	require.ErrorIs(t, err, ErrConflictingRule)
}

func TestLoadRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replace.ini")
	require.NoError(t, os.WriteFile(path, []byte("a=b\n"), 0o644))

	subs, err := LoadRulesFile(path)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "b"}, subs)

	_, err = LoadRulesFile(filepath.Join(t.TempDir(), "missing.ini"))
	require.Error(t, err)
}
