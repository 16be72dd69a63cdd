package parse

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

const (
	classThread = "thread"
	classMsg    = "message"
	classHeader = "message_header"
	classUser   = "user"
	classMeta   = "meta"
)

// pendingMessage accumulates the fields of a message while its header and
// body are being tokenized.
type pendingMessage struct {
	line      int
	sender    *string
	timestamp *string
	closed    bool // message div has ended
}

type extractor struct {
	opts Options
	z    *html.Tokenizer
	line int

	divs  []string // class of each open div
	spans []string // class of each open span

	archive *Archive
	block   *Block
	blockMs []RawMessage

	titleOpen bool
	title     strings.Builder

	msg      *pendingMessage
	capture  *strings.Builder
	inBody   bool
	bodyText strings.Builder
}

// Extract tokenizes a messages.htm export into ordered raw messages.
// Messages are returned block by block, each block in reading order.
func Extract(r io.Reader, opts Options) (*Archive, error) {
	e := &extractor{
		opts:    opts,
		z:       html.NewTokenizer(r),
		line:    1,
		archive: &Archive{},
	}
	if err := e.run(); err != nil {
		return nil, err
	}
	for i := range e.archive.Messages {
		e.archive.Messages[i].SourceOrder = i
	}
	return e.archive, nil
}

func (e *extractor) run() error {
	for {
		tt := e.z.Next()
		startLine := e.line
		e.line += bytes.Count(e.z.Raw(), []byte{'\n'})

		switch tt {
		case html.ErrorToken:
			if err := e.z.Err(); !errors.Is(err, io.EOF) {
				return fmt.Errorf("tokenize: %w", err)
			}
			return e.closeBlock()

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := e.z.Token()
			e.titleOpen = false
			if tt == html.SelfClosingTagToken {
				continue
			}
			if err := e.startTag(tok, startLine); err != nil {
				return err
			}

		case html.EndTagToken:
			tok := e.z.Token()
			e.titleOpen = false
			if err := e.endTag(tok); err != nil {
				return err
			}

		case html.TextToken:
			text := string(e.z.Text())
			switch {
			case e.titleOpen:
				e.title.WriteString(text)
			case e.capture != nil:
				e.capture.WriteString(text)
			case e.inBody:
				e.bodyText.WriteString(text)
			}
		}
	}
}

func (e *extractor) startTag(tok html.Token, line int) error {
	switch tok.Data {
	case "div":
		class := classOf(tok)
		e.divs = append(e.divs, class)
		switch class {
		case classThread:
			if err := e.closeBlock(); err != nil {
				return err
			}
			e.block = &Block{Index: len(e.archive.Blocks), Line: line}
			e.title.Reset()
			e.titleOpen = true
		case classMsg:
			if e.msg != nil {
				return e.msg.missingField()
			}
			if e.block == nil {
				return &MalformedArchiveError{Line: line, Field: "block", Reason: "message outside a thread block"}
			}
			e.msg = &pendingMessage{line: line}
		}

	case "span":
		class := classOf(tok)
		e.spans = append(e.spans, class)
		if e.msg != nil && !e.msg.closed && e.inHeader() && (class == classUser || class == classMeta) {
			e.capture = &strings.Builder{}
		}

	case "p":
		if e.msg != nil && e.msg.closed {
			e.inBody = true
			e.bodyText.Reset()
		}
	}
	return nil
}

func (e *extractor) endTag(tok html.Token) error {
	switch tok.Data {
	case "div":
		if len(e.divs) == 0 {
			return nil
		}
		class := e.divs[len(e.divs)-1]
		e.divs = e.divs[:len(e.divs)-1]
		switch class {
		case classMsg:
			if e.msg == nil {
				return nil
			}
			if e.msg.sender == nil || e.msg.timestamp == nil {
				return e.msg.missingField()
			}
			e.msg.closed = true
		case classThread:
			return e.closeBlock()
		}

	case "span":
		if len(e.spans) == 0 {
			return nil
		}
		class := e.spans[len(e.spans)-1]
		e.spans = e.spans[:len(e.spans)-1]
		if e.capture == nil {
			return nil
		}
		text := strings.TrimSpace(e.capture.String())
		e.capture = nil
		switch class {
		case classUser:
			e.msg.sender = &text
		case classMeta:
			e.msg.timestamp = &text
		}

	case "p":
		// A body without text may lose its opening <p>; the closing tag
		// alone still terminates the message.
		if e.msg != nil && e.msg.closed {
			body := ""
			if e.inBody {
				body = strings.TrimSpace(e.bodyText.String())
			}
			e.inBody = false
			return e.emit(body)
		}
	}
	return nil
}

func (e *extractor) emit(body string) error {
	m := e.msg
	e.msg = nil
	if *m.sender == "" {
		return &MalformedArchiveError{Line: m.line, Field: "sender", Reason: "empty sender"}
	}
	ts, err := ParseTimestamp(*m.timestamp)
	if err != nil {
		return &MalformedArchiveError{Line: m.line, Field: "timestamp", Reason: err.Error()}
	}
	e.blockMs = append(e.blockMs, RawMessage{
		Sender:       *m.sender,
		Timestamp:    ts,
		RawTimestamp: *m.timestamp,
		Body:         body,
		Block:        e.block.Index,
		Line:         m.line,
	})
	return nil
}

// closeBlock finishes the current block, appending its messages in reading order.
func (e *extractor) closeBlock() error {
	if e.block == nil {
		return nil
	}
	if e.msg != nil {
		return e.msg.missingField()
	}

	e.block.Title = strings.TrimSpace(e.title.String())
	e.block.Names = splitNames(e.block.Title)
	e.archive.Blocks = append(e.archive.Blocks, *e.block)

	if !e.opts.Chronological {
		for i, j := 0, len(e.blockMs)-1; i < j; i, j = i+1, j-1 {
			e.blockMs[i], e.blockMs[j] = e.blockMs[j], e.blockMs[i]
		}
	}
	e.archive.Messages = append(e.archive.Messages, e.blockMs...)

	e.block = nil
	e.blockMs = nil
	e.titleOpen = false
	return nil
}

func (e *extractor) inHeader() bool {
	for i := len(e.divs) - 1; i >= 0; i-- {
		if e.divs[i] == classHeader {
			return true
		}
	}
	return false
}

func (m *pendingMessage) missingField() error {
	switch {
	case m.sender == nil:
		return &MalformedArchiveError{Line: m.line, Field: "sender", Reason: "message header has no user"}
	case m.timestamp == nil:
		return &MalformedArchiveError{Line: m.line, Field: "timestamp", Reason: "message header has no meta"}
	default:
		return &MalformedArchiveError{Line: m.line, Field: "body", Reason: "message has no body container"}
	}
}

func classOf(tok html.Token) string {
	for _, a := range tok.Attr {
		if a.Key == "class" {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// splitNames splits a block title like "Alice, Bob" into names.
func splitNames(title string) []string {
	var names []string
	for _, n := range strings.Split(title, ", ") {
		n = strings.TrimSpace(n)
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}
