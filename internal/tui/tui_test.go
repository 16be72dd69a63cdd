package tui

import (
	"strings"
	"testing"

	"github.com/Zuo-Peng/archive-threads/internal/search"
	"github.com/stretchr/testify/require"
)

func TestShowCommand(t *testing.T) {
	require.Equal(t, "ath show abc123 --hit 7", ShowCommand(search.Result{ThreadKey: "abc123", SourceOrder: 7}))
	require.Equal(t, "ath show abc123", ShowCommand(search.Result{ThreadKey: "abc123", SourceOrder: -1}))
}

func TestFormatResultLine(t *testing.T) {
	r := search.Result{
		Label:   "Alice, Bob",
		Ts:      "2015-08-10T22:40:00Z",
		Sender:  "Alice",
		Snippet: "see >>>you<<<\ntomorrow",
	}
	lines := formatResultLine(r, 60, true)
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "2015-08-10")
	require.Contains(t, lines[0], "Alice, Bob")
	require.Contains(t, lines[1], "Alice: see you tomorrow")
	require.NotContains(t, lines[1], ">>>")

	narrow := formatResultLine(search.Result{Label: strings.Repeat("x", 100), Ts: "2015-08-10"}, 20, false)
	require.True(t, strings.HasPrefix(narrow[0], "  "))
	require.NotContains(t, narrow[0], strings.Repeat("x", 10))
}

func TestAdjustListScroll(t *testing.T) {
	m := model{results: make([]search.Result, 20)}
	m.cursor = 8
	m.adjustListScroll(10) // five visible items
	require.Equal(t, 4, m.listOffset)

	m.cursor = 2
	m.adjustListScroll(10)
	require.Equal(t, 2, m.listOffset)
}

func TestPreviewCacheKey(t *testing.T) {
	require.Equal(t, "abc:-1", previewCacheKey("abc", -1))
}
