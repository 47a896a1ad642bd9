// Package hotkey observes global key presses for push-to-talk triggers.
package hotkey

import (
	"errors"
	"log/slog"
	"sync"

	hook "github.com/robotn/gohook"

	"go.aimuz.me/murmur/internal/types"
)

var ErrRunning = errors.New("hotkey observer already running")

// Observer reports press and release of the watched keys.
type Observer interface {
	Start(onPress, onRelease func(types.Key)) error
	Stop()
}

// Hook is an Observer backed by the global gohook event tap. Only one may
// run per process.
type Hook struct {
	keys []types.Key

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewHook watches the given keys.
func NewHook(keys ...types.Key) *Hook {
	return &Hook{keys: keys}
}

// Start installs the hook and delivers events on a background goroutine.
func (h *Hook) Start(onPress, onRelease func(types.Key)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return ErrRunning
	}

	t, err := newTracker(h.keys, onPress, onRelease)
	if err != nil {
		return err
	}

	events := hook.Start()
	h.done = make(chan struct{})
	h.running = true

	go func() {
		defer close(h.done)
		for ev := range events {
			t.handle(ev.Kind, ev.Keycode)
		}
	}()
	slog.Info("hotkey observer started", "keys", h.keys)
	return nil
}

// Stop removes the hook and waits for the event loop to exit.
func (h *Hook) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return
	}
	hook.End()
	<-h.done
	h.running = false
}

// tracker turns raw key events into deduplicated press/release callbacks.
type tracker struct {
	codes     map[uint16]types.Key
	held      map[uint16]bool
	onPress   func(types.Key)
	onRelease func(types.Key)
}

func newTracker(keys []types.Key, onPress, onRelease func(types.Key)) (*tracker, error) {
	codes := make(map[uint16]types.Key, len(keys))
	for _, k := range keys {
		code, err := Keycode(k)
		if err != nil {
			return nil, err
		}
		codes[code] = k
	}
	return &tracker{
		codes:     codes,
		held:      make(map[uint16]bool),
		onPress:   onPress,
		onRelease: onRelease,
	}, nil
}

func (t *tracker) handle(kind uint8, code uint16) {
	key, ok := t.codes[code]
	if !ok {
		return
	}
	switch kind {
	case hook.KeyDown, hook.KeyHold:
		if t.held[code] {
			return
		}
		t.held[code] = true
		t.onPress(key)
	case hook.KeyUp:
		if !t.held[code] {
			return
		}
		delete(t.held, code)
		t.onRelease(key)
	}
}
