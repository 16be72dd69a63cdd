// Package identity maps raw sender tokens (display names and account
// identifiers) to canonical identities.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"unicode"

	"github.com/samber/lo"
)

// DefaultIDSuffix is appended to bare numeric owner identifiers, which is how
// they appear in Facebook exports.
const DefaultIDSuffix = "@facebook.com"

type RulesConfig struct {
	Substitutions    map[string]string
	OwnerIdentifier  string
	OwnerDisplayName string
	OwnerAliases     []string
	IDSuffix         string // defaults to DefaultIDSuffix
}

// Rules is an immutable, validated substitution table. A nil *Rules
// normalizes every token to itself.
type Rules struct {
	subs             map[string]string
	ownerIdentifier  string
	ownerDisplayName string
}

// NewRules validates cfg and resolves chained renames to their final target,
// so that Normalize is idempotent.
func NewRules(cfg RulesConfig) (*Rules, error) {
	r := &Rules{
		subs:             make(map[string]string, len(cfg.Substitutions)+len(cfg.OwnerAliases)),
		ownerIdentifier:  strings.TrimSpace(cfg.OwnerIdentifier),
		ownerDisplayName: strings.TrimSpace(cfg.OwnerDisplayName),
	}

	aliases := lo.Compact(lo.Map(cfg.OwnerAliases, func(a string, _ int) string {
		return strings.TrimSpace(a)
	}))
	if r.ownerDisplayName == "" && len(aliases) > 0 {
		r.ownerDisplayName = aliases[0]
	}

	if r.ownerIdentifier != "" && isDigits(r.ownerIdentifier) {
		suffix := cfg.IDSuffix
		if suffix == "" {
			suffix = DefaultIDSuffix
		}
		r.ownerIdentifier += suffix
	}

	for _, k := range sortedKeys(cfg.Substitutions) {
		if err := r.add(strings.TrimSpace(k), strings.TrimSpace(cfg.Substitutions[k])); err != nil {
			return nil, err
		}
	}
	if r.ownerDisplayName != "" {
		for _, a := range aliases {
			if a == r.ownerDisplayName {
				continue
			}
			if err := r.add(a, r.ownerDisplayName); err != nil {
				return nil, err
			}
		}
	}

	// The owner rule joins the table so that a rename targeting the owner
	// identifier resolves all the way to the display name.
	if r.ownerIdentifier != "" && r.ownerDisplayName != "" {
		if err := r.add(r.ownerIdentifier, r.ownerDisplayName); err != nil {
			return nil, err
		}
	}

	if err := r.resolveChains(); err != nil {
		return nil, err
	}

	if v, ok := r.subs[r.ownerDisplayName]; ok && r.ownerDisplayName != "" {
		return nil, &ConflictingSubstitutionRuleError{
			Token:  r.ownerDisplayName,
			Values: []string{r.ownerDisplayName, v},
		}
	}
	return r, nil
}

func (r *Rules) add(from, to string) error {
	if from == "" || to == "" || from == to {
		return nil
	}
	if prev, ok := r.subs[from]; ok && prev != to {
		return &ConflictingSubstitutionRuleError{Token: from, Values: []string{prev, to}}
	}
	r.subs[from] = to
	return nil
}

// resolveChains follows A=B, B=C to A=C and rejects cycles.
func (r *Rules) resolveChains() error {
	resolved := make(map[string]string, len(r.subs))
	for _, k := range sortedKeys(r.subs) {
		path := []string{k}
		seen := map[string]bool{k: true}
		cur := r.subs[k]
		for {
			if final, ok := resolved[cur]; ok {
				cur = final
				break
			}
			next, ok := r.subs[cur]
			if !ok {
				break
			}
			if seen[cur] {
				return &ConflictingSubstitutionRuleError{Token: k, Values: append(path, cur), Cycle: true}
			}
			seen[cur] = true
			path = append(path, cur)
			cur = next
		}
		resolved[k] = cur
	}
	r.subs = resolved
	return nil
}

// Normalize maps token to its canonical identity: the owner identifier
// becomes the owner display name, substitution keys become their target, and
// anything else is returned unchanged.
func (r *Rules) Normalize(token string) string {
	if r == nil {
		return token
	}
	if r.ownerIdentifier != "" && r.ownerDisplayName != "" && token == r.ownerIdentifier {
		return r.ownerDisplayName
	}
	if v, ok := r.subs[token]; ok {
		return v
	}
	return token
}

// Owner returns the owner's canonical identity, or "" when unknown.
func (r *Rules) Owner() string {
	if r == nil {
		return ""
	}
	if r.ownerDisplayName != "" {
		return r.ownerDisplayName
	}
	return r.ownerIdentifier
}

// Len returns the number of substitution entries.
func (r *Rules) Len() int {
	if r == nil {
		return 0
	}
	return len(r.subs)
}

// Fingerprint returns a stable digest of everything that affects
// normalization. Rules that normalize alike share a fingerprint.
func (r *Rules) Fingerprint() string {
	h := sha256.New()
	if r != nil {
		h.Write([]byte(r.ownerIdentifier + "\x1e" + r.ownerDisplayName + "\x1e"))
		for _, k := range sortedKeys(r.subs) {
			h.Write([]byte(k + "\x1f" + r.subs[k] + "\x1e"))
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func isDigits(s string) bool {
	for _, c := range s {
		if !unicode.IsDigit(c) {
			return false
		}
	}
	return s != ""
}

func sortedKeys(m map[string]string) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
