// Package overlay runs the external region selection program and collects
// the rectangle the user dragged.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.aimuz.me/murmur/internal/types"
	"go.aimuz.me/murmur/tempfiles"
)

// ErrDisabled is returned by Start when no overlay command is configured.
var ErrDisabled = errors.New("region overlay disabled")

// Placeholder in the command arguments replaced by the result file path.
const Placeholder = "{out}"

// DefaultGrace is how long Finish waits after asking the overlay to exit.
const DefaultGrace = 500 * time.Millisecond

// Selector spawns region overlays.
type Selector struct {
	Command []string
	Dir     string
}

// Selection is a running overlay process.
type Selection struct {
	path string
	cmd  *exec.Cmd
	done chan struct{}

	once   sync.Once
	region types.Rect
	ok     bool
}

// Start creates the result file and launches the overlay. It does not wait
// for the user.
func (s *Selector) Start(ctx context.Context) (*Selection, error) {
	if len(s.Command) == 0 {
		return nil, ErrDisabled
	}

	path := tempfiles.RegionPath(s.Dir)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create region file: %w", err)
	}
	f.Close()

	args := make([]string, len(s.Command))
	for i, a := range s.Command {
		args[i] = strings.ReplaceAll(a, Placeholder, path)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		_ = tempfiles.Remove(path)
		return nil, fmt.Errorf("start overlay: %w", err)
	}

	sel := &Selection{path: path, cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(sel.done)
	}()
	slog.Debug("overlay started", "pid", cmd.Process.Pid, "result", path)
	return sel, nil
}

// Path returns the result file path.
func (s *Selection) Path() string { return s.path }

// Finish stops the overlay if it is still running, then reads and removes the
// result file. It reports false when no usable region was written. Later
// calls return the first result.
func (s *Selection) Finish(grace time.Duration) (types.Rect, bool) {
	s.once.Do(func() {
		s.stop(grace)
		s.region, s.ok = readRegion(s.path)
		_ = tempfiles.Remove(s.path)
	})
	return s.region, s.ok
}

// Cancel stops the overlay and discards its result.
func (s *Selection) Cancel() {
	s.Finish(0)
}

func (s *Selection) stop(grace time.Duration) {
	select {
	case <-s.done:
		return
	default:
	}

	if err := s.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		_ = s.cmd.Process.Signal(os.Interrupt)
	}
	select {
	case <-s.done:
		return
	case <-time.After(grace):
	}

	slog.Debug("overlay did not exit, killing", "pid", s.cmd.Process.Pid)
	_ = s.cmd.Process.Kill()
	<-s.done
}

func readRegion(path string) (types.Rect, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Rect{}, false
	}
	r, err := ParseRegion(string(data))
	if err != nil {
		if len(strings.TrimSpace(string(data))) > 0 {
			slog.Warn("ignore malformed region", "error", err)
		}
		return types.Rect{}, false
	}
	return r, true
}

// ParseRegion parses "x,y,w,h" and normalizes negative extents.
func ParseRegion(s string) (types.Rect, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 4 {
		return types.Rect{}, fmt.Errorf("region %q: want 4 values", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return types.Rect{}, fmt.Errorf("region %q: %w", s, err)
		}
		v[i] = n
	}
	return types.Rect{X: v[0], Y: v[1], W: v[2], H: v[3]}.Normalize(), nil
}
