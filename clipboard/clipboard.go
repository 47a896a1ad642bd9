// Package clipboard reads and writes the system clipboard.
package clipboard

import (
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

var clipboardLock sync.Mutex

// GetText returns the current clipboard text.
func GetText() (string, error) {
	clipboardLock.Lock()
	defer clipboardLock.Unlock()

	s, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return s, nil
}

// SetText replaces the clipboard contents.
func SetText(s string) error {
	clipboardLock.Lock()
	defer clipboardLock.Unlock()

	if clipboard.Unsupported {
		return fmt.Errorf("write clipboard: no clipboard utility available")
	}
	if err := clipboard.WriteAll(s); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}
