package export

import (
	"promptcraft/internal/logger"

	"github.com/atotto/clipboard"
)

// clipboardWriteAll is a package-level variable to allow mocking in tests.
var clipboardWriteAll = clipboard.WriteAll

// Clipboard copies final prompts to the system clipboard.
type Clipboard struct {
	log *logger.Logger
}

func NewClipboard(log *logger.Logger) *Clipboard {
	return &Clipboard{log: log.With("component", "clipboard")}
}

// Copy reports whether text reached the clipboard. Failures are logged and
// never retried; the caller only tells the user.
func (c *Clipboard) Copy(text string) bool {
	if err := clipboardWriteAll(text); err != nil {
		c.log.Warn("clipboard copy failed", "error", err)
		return false
	}
	return true
}
