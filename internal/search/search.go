package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/archive-threads/internal/index"
)

type Result struct {
	ThreadKey   string
	SourceOrder int // hit message, -1 when the result is a whole thread
	Label       string
	Archive     string
	EndedAt     string
	Ts          string
	Sender      string
	Snippet     string
	Rank        float64
}

type Options struct {
	Query   string
	Sender  string // "" = all senders
	Archive string // "" = all archives
	Since   string // "" = no filter, e.g. "2015-01-01"
	Limit   int
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	lower := strings.ToLower(text)
	qLower := strings.ToLower(query)
	idx := strings.Index(lower, qLower)
	runes := []rune(text)
	if idx < 0 || len(lower) != len(text) {
		// no match (or case folding moved byte offsets), return head
		if len(runes) > contextChars*2 {
			return string(runes[:contextChars*2]) + "..."
		}
		return text
	}
	qLen := len([]rune(query))
	runePos := len([]rune(text[:idx]))
	start := max(runePos-contextChars, 0)
	end := min(runePos+qLen+contextChars, len(runes))

	prefix, suffix := "", ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	// wrap the matched part with markers
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+qLen]) + "<<<" +
		string(runes[runePos+qLen:end])
	return prefix + snippet + suffix
}

// filters returns the shared WHERE conditions for thread and message filters.
func filters(opts Options) ([]string, []any) {
	var conditions []string
	var args []any

	if opts.Sender != "" {
		conditions = append(conditions, "m.sender = ?")
		args = append(args, opts.Sender)
	}
	if opts.Archive != "" {
		conditions = append(conditions, "t.archive = ?")
		args = append(args, opts.Archive)
	}
	if opts.Since != "" {
		conditions = append(conditions, "m.ts >= ?")
		args = append(args, opts.Since)
	}
	return conditions, args
}

// Search finds messages matching the query and returns the best hit per
// thread.
func Search(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	// Fetch more results before dedup so we still have enough after
	origLimit := opts.Limit
	opts.Limit = origLimit * 3

	var results []Result
	var err error
	if containsCJK(opts.Query) {
		results, err = searchLike(db, opts)
	} else {
		results, err = searchFTS(db, opts)
	}
	if err != nil {
		return nil, err
	}

	// Deduplicate: keep only the best-ranked result per thread
	seen := make(map[string]bool)
	var deduped []Result
	for _, r := range results {
		if seen[r.ThreadKey] {
			continue
		}
		seen[r.ThreadKey] = true
		deduped = append(deduped, r)
		if len(deduped) >= origLimit {
			break
		}
	}
	return deduped, nil
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions, args := filters(opts)
	conditions = append([]string{"messages_fts MATCH ?"}, conditions...)
	args = append([]any{opts.Query}, args...)

	query := fmt.Sprintf(`
		SELECT
			m.thread_key,
			m.source_order,
			t.label,
			t.archive,
			t.ended_at,
			m.ts,
			m.sender,
			snippet(messages_fts, 0, '>>>','<<<', '...', 40) as snip,
			bm25(messages_fts, 1.0, 0.5) as rank
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.rowid
		JOIN threads t ON m.thread_key = t.thread_key
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	conditions, args := filters(opts)
	// LIKE match for CJK substring search
	conditions = append([]string{"m.body LIKE ?"}, conditions...)
	args = append([]any{"%" + opts.Query + "%"}, args...)

	query := fmt.Sprintf(`
		SELECT
			m.thread_key,
			m.source_order,
			t.label,
			t.archive,
			t.ended_at,
			m.ts,
			m.sender,
			m.body
		FROM messages m
		JOIN threads t ON m.thread_key = t.thread_key
		WHERE %s
		ORDER BY m.ts DESC
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var body string
		if err := rows.Scan(
			&r.ThreadKey, &r.SourceOrder, &r.Label, &r.Archive,
			&r.EndedAt, &r.Ts, &r.Sender, &body,
		); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(body, opts.Query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListAll returns every indexed thread, most recently active first.
// Sender filters keep threads the sender wrote in.
func ListAll(db *index.DB, opts Options) ([]Result, error) {
	conditions, args := filters(opts)
	where := "1 = 1"
	if len(conditions) > 0 {
		where = "EXISTS (SELECT 1 FROM messages m WHERE m.thread_key = t.thread_key AND " +
			strings.Join(conditions, " AND ") + ")"
	}

	query := fmt.Sprintf(`
		SELECT
			t.thread_key,
			t.label,
			t.archive,
			t.ended_at,
			t.message_count
		FROM threads t
		WHERE %s
		ORDER BY t.ended_at DESC, t.label
	`, where)
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var count int
		if err := rows.Scan(&r.ThreadKey, &r.Label, &r.Archive, &r.EndedAt, &count); err != nil {
			return nil, err
		}
		r.SourceOrder = -1
		r.Ts = r.EndedAt
		r.Snippet = fmt.Sprintf("%d messages", count)
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.ThreadKey, &r.SourceOrder, &r.Label, &r.Archive,
			&r.EndedAt, &r.Ts, &r.Sender, &r.Snippet, &r.Rank,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
