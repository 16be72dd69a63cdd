// Package export renders finished threads into output formats. Threads are
// never modified, so one thread set can be exported to several formats.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Zuo-Peng/archive-threads/internal/render"
	"github.com/Zuo-Peng/archive-threads/internal/thread"
)

type Format int

const (
	CSV Format = iota
	JSON
	Text
	Stdout
)

var formatNames = map[Format]string{
	CSV:    "csv",
	JSON:   "json",
	Text:   "text",
	Stdout: "stdout",
}

func (f Format) String() string {
	if n, ok := formatNames[f]; ok {
		return n
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Ext is the file extension written for the format ("" for Stdout).
func (f Format) Ext() string {
	switch f {
	case CSV:
		return "csv"
	case JSON:
		return "json"
	case Text:
		return "txt"
	}
	return ""
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	case "text", "txt":
		return Text, nil
	case "stdout", "console":
		return Stdout, nil
	}
	return 0, fmt.Errorf("unsupported export format %q", s)
}

// Rendered is one thread rendered in one format. Label is the thread's
// display label; uniqueness is left to the writer.
type Rendered struct {
	Label   string
	Ext     string
	Content []byte
}

// Exporter holds presentation options shared by all formats.
type Exporter struct {
	Owner string // owner identity, highlighted on the console
	Color bool   // ANSI colors for Stdout
	Width int    // wrap width for Stdout (0 = no wrap)
}

// Export renders threads with default options.
func Export(threads []thread.Thread, f Format) ([]Rendered, error) {
	return Exporter{}.Export(threads, f)
}

func (e Exporter) Export(threads []thread.Thread, f Format) ([]Rendered, error) {
	out := make([]Rendered, 0, len(threads))
	for _, th := range threads {
		content, err := e.render(th, f)
		if err != nil {
			return nil, fmt.Errorf("render %s as %s: %w", th.Label, f, err)
		}
		out = append(out, Rendered{Label: th.Label, Ext: f.Ext(), Content: content})
	}
	return out, nil
}

func (e Exporter) render(th thread.Thread, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return renderCSV(th)
	case JSON:
		return renderJSON(th)
	case Text:
		return renderText(th), nil
	case Stdout:
		s, _ := render.RenderThread(th, render.Options{
			HitOrder: -1,
			Context:  -1,
			Width:    e.Width,
			Color:    e.Color,
			Owner:    e.Owner,
		})
		return []byte(s + "\n"), nil
	}
	return nil, fmt.Errorf("unsupported export format %s", f)
}

func renderCSV(th thread.Thread) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, m := range th.Messages {
		if err := w.Write([]string{m.Timestamp.Format(render.TimestampFormat), m.Sender, m.Body}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderText(th thread.Thread) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Thread: %s\n", th.Label)
	fmt.Fprintf(&b, "Participants: %s\n", strings.Join(th.Participants.Names(), ", "))
	b.WriteString(render.Border())
	b.WriteString("\n")
	for _, m := range th.Messages {
		fmt.Fprintf(&b, "[%-16s] %s: %s\n", m.Timestamp.Format(render.TimestampFormat), m.Sender, m.Body)
	}
	return []byte(b.String())
}

// field order is alphabetical so the output keeps sorted keys
type jsonMessage struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
}

type jsonThread struct {
	Messages     []jsonMessage `json:"messages"`
	Participants []string      `json:"participants"`
	Title        string        `json:"title"`
}

func renderJSON(th thread.Thread) ([]byte, error) {
	doc := jsonThread{
		Messages:     make([]jsonMessage, 0, len(th.Messages)),
		Participants: th.Participants.Names(),
		Title:        th.Label,
	}
	for _, m := range th.Messages {
		doc.Messages = append(doc.Messages, jsonMessage{
			Text:      m.Body,
			Timestamp: m.Timestamp.Format(render.TimestampFormat),
			User:      m.Sender,
		})
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
