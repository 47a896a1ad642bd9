// Package window finds the on-screen window under the mouse pointer.
package window

import (
	"errors"

	"go.aimuz.me/murmur/internal/types"
)

var (
	ErrNoWindow    = errors.New("no suitable window")
	ErrUnsupported = errors.New("window lookup is not supported on this platform")
)

// Info is one entry of the on-screen window list, front to back.
type Info struct {
	ID     uint32
	Owner  string
	Layer  int
	Alpha  float64
	Bounds types.Rect
}

// Apps whose windows are never picked: the terminal running us, editors and
// system chrome.
var skipApps = map[string]bool{
	"Terminal":     true,
	"iTerm2":       true,
	"iTerm":        true,
	"Code":         true,
	"Cursor":       true,
	"WindowServer": true,
	"Dock":         true,
}

const (
	minSide      = 100
	fallbackSide = 200
	minAlpha     = 0.5
)

func eligible(w Info) bool {
	return w.Layer == 0 &&
		!skipApps[w.Owner] &&
		w.Bounds.AtLeast(minSide) &&
		w.Alpha >= minAlpha
}

// Pick returns the frontmost eligible window containing the point, or the
// frontmost eligible window of at least 200x200 when none contains it.
func Pick(windows []Info, x, y float64) (*types.Window, error) {
	var fallback *Info
	for i := range windows {
		w := &windows[i]
		if !eligible(*w) {
			continue
		}
		if w.Bounds.Contains(x, y) {
			return w.window(), nil
		}
		if fallback == nil && w.Bounds.AtLeast(fallbackSide) {
			fallback = w
		}
	}
	if fallback != nil {
		return fallback.window(), nil
	}
	return nil, ErrNoWindow
}

func (w *Info) window() *types.Window {
	return &types.Window{ID: w.ID, App: w.Owner, Bounds: w.Bounds}
}

// Locator reads the live window list.
type Locator struct{}

// UnderPointer returns the window the user is looking at.
func (Locator) UnderPointer() (*types.Window, error) {
	x, y, windows, err := snapshot()
	if err != nil {
		return nil, err
	}
	return Pick(windows, x, y)
}
