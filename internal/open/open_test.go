package open

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEditorCommand(t *testing.T) {
	tests := []struct {
		editor string
		want   []string
	}{
		{"nvim", []string{"nvim", "+12", "/a.htm"}},
		{"code", []string{"code", "--goto", "/a.htm:12"}},
		{"less", []string{"less", "+12", "/a.htm"}},
		{"ed", []string{"ed", "/a.htm"}},
	}
	for _, tt := range tests {
		t.Run(tt.editor, func(t *testing.T) {
			cmd := editorCommand(tt.editor, "/a.htm", 12)
			require.Equal(t, tt.want, cmd.Args)
		})
	}
}
