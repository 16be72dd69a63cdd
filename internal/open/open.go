package open

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/archive-threads/internal/index"
)

// OpenThread opens the archive a thread came from in $EDITOR, positioned at
// the message with the given source order, or at the thread's first message
// when hitOrder is negative.
func OpenThread(db *index.DB, threadKey string, hitOrder int) error {
	row, th, err := db.GetThread(threadKey)
	if err != nil {
		return err
	}

	filePath := row.Archive
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("file not found: %s", filePath)
	}

	lineNum := 1
	if len(th.Messages) > 0 {
		lineNum = th.Messages[0].Line
	}
	for _, m := range th.Messages {
		if m.SourceOrder == hitOrder {
			lineNum = m.Line
			break
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}

	cmd := editorCommand(editor, filePath, max(lineNum, 1))
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func editorCommand(editor, filePath string, lineNum int) *exec.Cmd {
	switch {
	case strings.Contains(editor, "vim") || strings.Contains(editor, "nvim"):
		return exec.Command(editor, fmt.Sprintf("+%d", lineNum), filePath)
	case strings.Contains(editor, "code"):
		return exec.Command(editor, "--goto", filePath+":"+strconv.Itoa(lineNum))
	case strings.Contains(editor, "less"), strings.Contains(editor, "nano"), strings.Contains(editor, "emacs"):
		return exec.Command(editor, "+"+strconv.Itoa(lineNum), filePath)
	default:
		return exec.Command(editor, filePath)
	}
}
