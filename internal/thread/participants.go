// Package thread segments normalized archive messages into conversation
// fragments and merges fragments that share a participant set into threads.
package thread

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

// keySep cannot appear in a display name, so joined keys never collide.
const keySep = "\x1f"

// ParticipantSet is an immutable set of identities. The zero value is the
// empty set.
type ParticipantSet struct {
	names []string // sorted, unique
}

func NewParticipantSet(names ...string) ParticipantSet {
	names = lo.Uniq(lo.Compact(names))
	slices.Sort(names)
	return ParticipantSet{names: names}
}

// Key is the canonical string form used for set equality and map keys.
func (p ParticipantSet) Key() string {
	return strings.Join(p.names, keySep)
}

// ParseKey rebuilds the set a Key came from.
func ParseKey(key string) ParticipantSet {
	if key == "" {
		return ParticipantSet{}
	}
	return NewParticipantSet(strings.Split(key, keySep)...)
}

func (p ParticipantSet) Equal(o ParticipantSet) bool {
	return slices.Equal(p.names, o.names)
}

func (p ParticipantSet) Contains(name string) bool {
	_, found := slices.BinarySearch(p.names, name)
	return found
}

func (p ParticipantSet) Len() int {
	return len(p.names)
}

// Names returns a sorted copy of the members.
func (p ParticipantSet) Names() []string {
	return slices.Clone(p.names)
}

// Union returns a set holding the members of p and names.
func (p ParticipantSet) Union(names ...string) ParticipantSet {
	return NewParticipantSet(append(p.Names(), names...)...)
}

// Label is the display form of the set with the owner left out. A set that
// only holds the owner labels as the owner.
func (p ParticipantSet) Label(owner string) string {
	others := lo.Without(p.names, owner)
	if len(others) == 0 {
		return strings.Join(p.names, ", ")
	}
	return strings.Join(others, ", ")
}

func (p ParticipantSet) String() string {
	return "{" + strings.Join(p.names, ", ") + "}"
}
