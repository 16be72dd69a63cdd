package render

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Zuo-Peng/archive-threads/internal/thread"
	"github.com/mattn/go-runewidth"
)

const (
	colorReset   = "\033[0m"
	colorOwner   = "\033[1;34m" // bold blue
	colorOther   = "\033[1;32m" // bold green
	colorDim     = "\033[2m"
	colorHit     = "\033[43m"   // yellow background
	colorBoldRed = "\033[1;31m" // bold red for keyword highlights
)

// TimestampFormat is the short timestamp used in every rendered view.
const TimestampFormat = "2006-01-02 15:04"

// BorderWidth is the width of the rule drawn around a thread.
const BorderWidth = 80

type Options struct {
	HitOrder int    // source order of the message to highlight, -1 for none
	Context  int    // messages before/after hit to show, <0 = all
	Width    int    // wrap width (0 = no wrap)
	Query    string // search query for keyword highlighting
	Color    bool
	Owner    string // owner identity, rendered in its own color
}

// ftsOperators are FTS5 operators that should not be highlighted as keywords.
var ftsOperators = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NEAR": true,
	"and": true, "or": true, "not": true, "near": true,
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
// Matching is done per rune so case folding never shifts byte offsets.
func highlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	var terms [][]rune
	for _, t := range strings.Fields(query) {
		t = strings.Trim(t, `"*()`)
		if t != "" && !ftsOperators[t] {
			terms = append(terms, []rune(t))
		}
	}
	if len(terms) == 0 {
		return text
	}

	runes := []rune(text)
	marked := make([]bool, len(runes))
	for _, term := range terms {
		for i := 0; i+len(term) <= len(runes); {
			if !matchFold(runes[i:i+len(term)], term) {
				i++
				continue
			}
			for j := i; j < i+len(term); j++ {
				marked[j] = true
			}
			i += len(term)
		}
	}

	var b strings.Builder
	for i, r := range runes {
		if marked[i] && (i == 0 || !marked[i-1]) {
			b.WriteString(colorBoldRed)
		}
		b.WriteRune(r)
		if marked[i] && (i == len(runes)-1 || !marked[i+1]) {
			b.WriteString(colorReset)
		}
	}
	return b.String()
}

func matchFold(a, b []rune) bool {
	for i := range a {
		if unicode.ToLower(a[i]) != unicode.ToLower(b[i]) {
			return false
		}
	}
	return true
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// check for ANSI escape sequence: ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++ // include 'm'
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// Border returns the horizontal rule drawn above and below a thread.
func Border() string {
	return strings.Repeat("-", BorderWidth)
}

// RenderThread renders a thread for the console and returns the content and
// the 0-based line number of the hit message (-1 if no hit).
func RenderThread(th thread.Thread, opts Options) (string, int) {
	if opts.Context == 0 {
		opts.Context = 10
	}

	paint := func(color, s string) string {
		if !opts.Color {
			return s
		}
		return color + s + colorReset
	}

	hitIdx := -1
	for i, m := range th.Messages {
		if m.SourceOrder == opts.HitOrder {
			hitIdx = i
			break
		}
	}

	start, end := 0, len(th.Messages)
	if hitIdx >= 0 && opts.Context > 0 {
		start = max(hitIdx-opts.Context, 0)
		end = min(hitIdx+opts.Context+1, len(th.Messages))
	}

	var b strings.Builder
	hitLine := -1
	lineCount := 0

	// helper to track line count; wraps long lines if Width is set
	writeLine := func(s string) {
		for _, wl := range wrapLine(s, opts.Width) {
			b.WriteString(wl)
			b.WriteString("\n")
			lineCount++
		}
	}

	writeLine(paint(colorDim, Border()))
	writeLine(fmt.Sprintf("Thread:       %s", th.Label))
	writeLine(fmt.Sprintf("Participants: %s", strings.Join(th.Participants.Names(), ", ")))
	writeLine("")

	if len(th.Messages) == 0 {
		writeLine(paint(colorDim, "(empty thread)"))
	}
	if start > 0 {
		writeLine(paint(colorDim, fmt.Sprintf("... (%d messages before) ...", start)))
	}

	for i := start; i < end; i++ {
		m := th.Messages[i]
		if i == hitIdx {
			hitLine = lineCount
		}

		senderColor := colorOther
		if opts.Owner != "" && m.Sender == opts.Owner {
			senderColor = colorOwner
		}

		ts := fmt.Sprintf("[%-16s]", m.Timestamp.Format(TimestampFormat))
		text := m.Body
		if opts.Color {
			text = highlightKeywords(text, opts.Query)
		}
		if i == hitIdx {
			ts = paint(colorHit, ts)
		} else {
			ts = paint(colorDim, ts)
		}

		lines := strings.Split(text, "\n")
		writeLine(fmt.Sprintf("%s %s: %s", ts, paint(senderColor, m.Sender), lines[0]))
		for _, l := range lines[1:] {
			writeLine("  " + l)
		}
	}

	if after := len(th.Messages) - end; after > 0 {
		writeLine(paint(colorDim, fmt.Sprintf("... (%d messages after) ...", after)))
	}

	writeLine("")
	writeLine(paint(colorDim, Border()))

	return b.String(), hitLine
}
