package parse

import (
	"errors"
	"fmt"
)

// ErrMalformedArchive is matched by every *MalformedArchiveError.
var ErrMalformedArchive = errors.New("malformed archive")

// MalformedArchiveError reports a message block whose required fields could
// not be located. Extraction stops at the first one.
type MalformedArchiveError struct {
	Line   int
	Field  string // "sender", "timestamp" or "body"
	Reason string
}

func (e *MalformedArchiveError) Error() string {
	return fmt.Sprintf("malformed archive: line %d: %s: %s", e.Line, e.Field, e.Reason)
}

func (e *MalformedArchiveError) Is(target error) bool {
	return target == ErrMalformedArchive
}
