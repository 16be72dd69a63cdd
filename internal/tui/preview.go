package tui

import (
	"github.com/Zuo-Peng/archive-threads/internal/index"
	"github.com/Zuo-Peng/archive-threads/internal/render"
	"github.com/Zuo-Peng/archive-threads/internal/search"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	threadKey   string
	sourceOrder int
	content     string
	hitLine     int
	err         error
}

// loadPreviewCmd returns a tea.Cmd that renders the thread preview async.
func loadPreviewCmd(db *index.DB, r search.Result, query, owner string, width int) tea.Cmd {
	return func() tea.Msg {
		msg := previewRenderedMsg{threadKey: r.ThreadKey, sourceOrder: r.SourceOrder}
		_, th, err := db.GetThread(r.ThreadKey)
		if err != nil {
			msg.err = err
			return msg
		}
		msg.content, msg.hitLine = render.RenderThread(th, render.Options{
			HitOrder: r.SourceOrder,
			Context:  -1,
			Width:    width,
			Query:    query,
			Color:    true,
			Owner:    owner,
		})
		return msg
	}
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
