package parse

import "time"

// RawMessage is one message as it appears in the archive. It is never
// modified after extraction; normalization produces copies.
type RawMessage struct {
	Sender       string
	Timestamp    time.Time
	RawTimestamp string // timestamp text as written in the archive
	Body         string
	// SourceOrder is the dense 0-based position in the extracted sequence.
	// Each block is reversed into reading order before numbering, so it
	// follows byte order only when Options.Chronological is set.
	SourceOrder int
	Block       int // index of the enclosing conversation block
	Line        int // 1-based line of the message header in the source
}

// Block is one conversation block (<div class="thread">) of the archive.
type Block struct {
	Index int
	Title string
	Names []string // participant names listed in the title
	Line  int
}

type Archive struct {
	Blocks   []Block
	Messages []RawMessage
}

// Options tunes extraction for archive layout variants.
type Options struct {
	// Chronological is set when blocks list their messages oldest first.
	// Facebook exports list them newest first, which is the default.
	Chronological bool
}
