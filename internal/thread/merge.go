package thread

import (
	"cmp"
	"slices"
	"time"

	"github.com/Zuo-Peng/archive-threads/internal/parse"
)

// Thread is the merged, chronologically ordered conversation of one
// participant set. Threads are read-only once Merge returns them.
type Thread struct {
	Participants ParticipantSet
	Messages     []parse.RawMessage
	Label        string
}

func (t Thread) Key() string {
	return t.Participants.Key()
}

func (t Thread) Start() time.Time {
	if len(t.Messages) == 0 {
		return time.Time{}
	}
	return t.Messages[0].Timestamp
}

func (t Thread) End() time.Time {
	if len(t.Messages) == 0 {
		return time.Time{}
	}
	return t.Messages[len(t.Messages)-1].Timestamp
}

// Merge groups fragments by participant set and merges each group into one
// thread ordered by (timestamp, source order). Threads are returned sorted
// by label, then by participant key.
func Merge(fragments []Fragment, owner string) []Thread {
	index := make(map[string]int)
	var threads []Thread

	for _, f := range fragments {
		key := f.Participants.Key()
		i, ok := index[key]
		if !ok {
			i = len(threads)
			index[key] = i
			threads = append(threads, Thread{
				Participants: f.Participants,
				Label:        f.Participants.Label(owner),
			})
		}
		threads[i].Messages = append(threads[i].Messages, f.Messages...)
	}

	for i := range threads {
		slices.SortStableFunc(threads[i].Messages, CompareMessages)
	}
	slices.SortFunc(threads, func(a, b Thread) int {
		if c := cmp.Compare(a.Label, b.Label); c != 0 {
			return c
		}
		return cmp.Compare(a.Key(), b.Key())
	})
	return threads
}

// CompareMessages orders by timestamp, breaking ties by source order.
func CompareMessages(a, b parse.RawMessage) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	return cmp.Compare(a.SourceOrder, b.SourceOrder)
}
