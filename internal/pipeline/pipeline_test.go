package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Zuo-Peng/archive-threads/internal/identity"
	"github.com/Zuo-Peng/archive-threads/internal/parse"
	"github.com/stretchr/testify/require"
)

func message(user, meta, body string) string {
	return fmt.Sprintf(`<div class="message"><div class="message_header"><span class="user">%s</span><span class="meta">%s</span></div></div>
<p>%s</p>
`, user, meta, body)
}

func block(title string, messages ...string) string {
	return `<div class="thread">` + title + "\n" + strings.Join(messages, "") + "</div>\n"
}

// archive lists newest first inside each block, as exports do.
var archive = `<html><body><div class="contents">` +
	block("John Smith, Me",
		message("1234@facebook.com", "Monday, August 10, 2015 at 10:42pm UTC", "see you"),
		message("John Smith", "Monday, August 10, 2015 at 10:40pm UTC", "hi"),
	) +
	block("Alice, Me",
		message("Alice", "Tuesday, August 11, 2015 at 9:00am UTC", "yo"),
	) +
	block("J Smith, Me",
		message("J Smith", "Monday, August 10, 2015 at 10:41pm UTC", "middle"),
	) +
	`</div></body></html>`

func testRules(t *testing.T) *identity.Rules {
	rules, err := identity.NewRules(identity.RulesConfig{
		Substitutions:    map[string]string{"J Smith": "John Smith"},
		OwnerIdentifier:  "1234",
		OwnerDisplayName: "Me",
	})
	require.NoError(t, err)
	return rules
}

func TestRun(t *testing.T) {
	res, err := Run(context.Background(), strings.NewReader(archive), testRules(t), Options{})
	require.NoError(t, err)

	require.Equal(t, Stats{Messages: 4, Blocks: 3, Fragments: 3, Threads: 2}, res.Stats)
	require.Len(t, res.Threads, 2)

	alice, john := res.Threads[0], res.Threads[1]
	require.Equal(t, "Alice", alice.Label)
	require.Equal(t, "John Smith", john.Label)

	var got []string
	for _, m := range john.Messages {
		got = append(got, m.Sender+": "+m.Body)
	}
	require.Equal(t, []string{"John Smith: hi", "John Smith: middle", "Me: see you"}, got)
}

func TestRun_MalformedArchive(t *testing.T) {
	doc := block("Alice", `<div class="message"><div class="message_header"><span class="user">Alice</span></div></div><p>x</p>`)
	_, err := Run(context.Background(), strings.NewReader(doc), nil, Options{})

	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageExtract, se.Stage)
	require.ErrorIs(t, err, parse.ErrMalformedArchive)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, strings.NewReader(archive), nil, Options{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunFile_NamesArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.htm")
	require.NoError(t, os.WriteFile(path, []byte(block("A", "<p>orphan</p>")+`<div class="message">`), 0o644))

	_, err := RunFile(context.Background(), path, nil, Options{})
	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, path, se.Archive)
	require.Contains(t, err.Error(), path)

	_, err = RunFile(context.Background(), filepath.Join(t.TempDir(), "missing.htm"), nil, Options{})
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageRead, se.Stage)
}

func TestRunAll_KeepsInputOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 6; i++ {
		path := filepath.Join(dir, fmt.Sprintf("a%d.htm", i))
		doc := block(fmt.Sprintf("P%d, Me", i), message(fmt.Sprintf("P%d", i), "Monday, August 10, 2015 at 10:40pm UTC", "hi"))
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
		paths = append(paths, path)
	}

	results, err := RunAll(context.Background(), paths, testRules(t), 3, Options{})
	require.NoError(t, err)
	require.Len(t, results, len(paths))
	for i, res := range results {
		require.Equal(t, paths[i], res.Archive)
		require.Equal(t, fmt.Sprintf("P%d", i), res.Threads[0].Label)
	}
}

func TestRunAll_FailureReturnsNoResults(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.htm")
	require.NoError(t, os.WriteFile(good, []byte(archive), 0o644))

	results, err := RunAll(context.Background(), []string{good, filepath.Join(dir, "gone.htm")}, nil, 2, Options{})
	require.Error(t, err)
	require.Nil(t, results)
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replace.ini")
	require.NoError(t, os.WriteFile(path, []byte("[DEFAULT]\nJ Smith = John Smith\n"), 0o644))

	rules, err := LoadRules(identity.RulesConfig{OwnerDisplayName: "Me"}, path)
	require.NoError(t, err)
	require.Equal(t, "John Smith", rules.Normalize("J Smith"))

	_, err = LoadRules(identity.RulesConfig{Substitutions: map[string]string{"J Smith": "Jay"}}, path)
	require.ErrorIs(t, err, identity.ErrConflictingRule)

	require.NoError(t, os.WriteFile(path, []byte("no equals here\n"), 0o644))
	_, err = LoadRules(identity.RulesConfig{}, path)
	var se *StageError
	require.True(t, errors.As(err, &se))
	require.Equal(t, StageRules, se.Stage)
	require.ErrorIs(t, err, identity.ErrRuleSyntax)
}
