package render

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/Zuo-Peng/archive-threads/internal/parse"
	"github.com/Zuo-Peng/archive-threads/internal/thread"
	"github.com/stretchr/testify/require"
)

func sampleThread(n int) thread.Thread {
	base := time.Date(2015, 8, 10, 22, 40, 0, 0, time.UTC)
	th := thread.Thread{
		Participants: thread.NewParticipantSet("Alice", "Me"),
		Label:        "Alice",
	}
	for i := 0; i < n; i++ {
		sender := "Alice"
		if i%2 == 1 {
			sender = "Me"
		}
		th.Messages = append(th.Messages, parse.RawMessage{
			Sender:      sender,
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			Body:        "message body",
			SourceOrder: i,
		})
	}
	return th
}

func TestRenderThread_Plain(t *testing.T) {
	out, hit := RenderThread(sampleThread(2), Options{HitOrder: -1, Context: -1})
	require.Equal(t, -1, hit)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Equal(t, Border(), lines[0])
	require.Equal(t, "Thread:       Alice", lines[1])
	require.Equal(t, "Participants: Alice, Me", lines[2])
	require.Equal(t, "[2015-08-10 22:40] Alice: message body", lines[4])
	require.Equal(t, "[2015-08-10 22:41] Me: message body", lines[5])
	require.Equal(t, Border(), lines[len(lines)-1])
	require.NotContains(t, out, "\033[")
}

func TestRenderThread_HitWindow(t *testing.T) {
	out, hit := RenderThread(sampleThread(30), Options{HitOrder: 15, Context: 2})
	require.Contains(t, out, "... (13 messages before) ...")
	require.Contains(t, out, "... (12 messages after) ...")

	lines := strings.Split(out, "\n")
	require.Contains(t, lines[hit], "22:55")
}

func TestRenderThread_ColorAndHighlight(t *testing.T) {
	out, _ := RenderThread(sampleThread(2), Options{HitOrder: -1, Context: -1, Color: true, Owner: "Me", Query: "body"})
	require.Contains(t, out, colorOwner+"Me"+colorReset)
	require.Contains(t, out, colorOther+"Alice"+colorReset)
	require.Contains(t, out, colorBoldRed+"body"+colorReset)
}

func TestRenderThread_MultilineBody(t *testing.T) {
	th := sampleThread(1)
	th.Messages[0].Body = "first\nsecond"
	out, _ := RenderThread(th, Options{HitOrder: -1, Context: -1})
	require.Contains(t, out, "Alice: first\n  second\n")
}

func TestWrapLine(t *testing.T) {
	require.Equal(t, []string{"abcd", "ef"}, wrapLine("abcdef", 4))
	require.Equal(t, []string{"\033[1mab", "cd\033[0m"}, wrapLine("\033[1mabcd\033[0m", 2))
	require.Equal(t, []string{"日本", "語"}, wrapLine("日本語", 4))
	require.Equal(t, []string{""}, wrapLine("", 4))
}

func TestHighlightKeywords(t *testing.T) {
	got := highlightKeywords("Hello hello", "HELLO AND")
	require.Equal(t, colorBoldRed+"Hello"+colorReset+" "+colorBoldRed+"hello"+colorReset, got)
	require.Equal(t, "x", highlightKeywords("x", ""))
}

func TestHighlightKeywords_CaseFoldingChangesByteLength(t *testing.T) {
	got := highlightKeywords("İİİİİİhello", "hello")
	require.Equal(t, "İİİİİİ"+colorBoldRed+"hello"+colorReset, got)

	got = highlightKeywords("İİİİ hello", "hello")
	require.True(t, utf8.ValidString(got))
	require.Equal(t, "İİİİ "+colorBoldRed+"hello"+colorReset, got)

	require.Equal(t, colorBoldRed+"İstanbul"+colorReset, highlightKeywords("İstanbul", "istanbul"))
}

func TestHighlightKeywords_AdjacentTermsShareOneSpan(t *testing.T) {
	got := highlightKeywords("foobar m", "foo bar m")
	require.Equal(t, colorBoldRed+"foobar"+colorReset+" "+colorBoldRed+"m"+colorReset, got)
}
