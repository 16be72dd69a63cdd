package thread

import (
	"github.com/Zuo-Peng/archive-threads/internal/identity"
	"github.com/Zuo-Peng/archive-threads/internal/parse"
)

// Fragment is one contiguous run of messages from a single conversation
// block of the source.
type Fragment struct {
	Participants     ParticipantSet
	Messages         []parse.RawMessage
	FirstSourceOrder int
}

// KeyFunc reports the participant set a message belongs to.
type KeyFunc func(parse.RawMessage) ParticipantSet

// Segment partitions messages into fragments in a single pass. A fragment
// ends when the participant set changes or when the message comes from a
// different source block, even if the participants are the same. Messages
// whose key is empty fall back to a set holding only their sender, so no
// fragment ever has an empty participant set.
func Segment(messages []parse.RawMessage, key KeyFunc) []Fragment {
	var frags []Fragment
	var cur *Fragment
	prevBlock := -1

	for _, m := range messages {
		set := key(m)
		if set.Len() == 0 {
			set = NewParticipantSet(m.Sender)
		}

		if cur == nil || m.Block != prevBlock || !set.Equal(cur.Participants) {
			frags = append(frags, Fragment{
				Participants:     set,
				FirstSourceOrder: m.SourceOrder,
			})
			cur = &frags[len(frags)-1]
		}
		cur.Messages = append(cur.Messages, m)
		prevBlock = m.Block
	}
	return frags
}

// NormalizeSenders returns a copy of messages with every sender mapped
// through rules.
func NormalizeSenders(messages []parse.RawMessage, rules *identity.Rules) []parse.RawMessage {
	out := make([]parse.RawMessage, len(messages))
	for i, m := range messages {
		m.Sender = rules.Normalize(m.Sender)
		out[i] = m
	}
	return out
}

// BlockParticipants builds the KeyFunc for an extracted archive. A block's
// participant set is its normalized title names plus the archive owner when
// one is configured. Senders are only used for blocks with an empty title.
func BlockParticipants(archive *parse.Archive, rules *identity.Rules) KeyFunc {
	names := make(map[int][]string, len(archive.Blocks))
	for _, b := range archive.Blocks {
		for _, n := range b.Names {
			if n = rules.Normalize(n); n != "" {
				names[b.Index] = append(names[b.Index], n)
			}
		}
	}
	senders := make(map[int][]string)
	for _, m := range archive.Messages {
		if len(names[m.Block]) == 0 {
			senders[m.Block] = append(senders[m.Block], rules.Normalize(m.Sender))
		}
	}
	for block, ss := range senders {
		names[block] = ss
	}

	owner := rules.Owner()
	sets := make(map[int]ParticipantSet, len(names))
	for block, ns := range names {
		if owner != "" {
			ns = append(ns, owner)
		}
		sets[block] = NewParticipantSet(ns...)
	}

	return func(m parse.RawMessage) ParticipantSet {
		return sets[m.Block]
	}
}
