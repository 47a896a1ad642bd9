// Package screenshot captures a screen region, a window or the whole screen
// and prepares the image for upload.
package screenshot

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"

	"go.aimuz.me/murmur/internal/faults"
	"go.aimuz.me/murmur/internal/types"
	"go.aimuz.me/murmur/tempfiles"
)

// MinFileSize is the smallest capture treated as a real image.
const MinFileSize = 1000

// DefaultTimeout bounds each capture strategy.
const DefaultTimeout = 5 * time.Second

// Request selects what to capture. With neither field set only the full
// screen is captured.
type Request struct {
	Region *types.Rect
	Window *types.Window
}

// Artifact is a capture on disk.
type Artifact struct {
	Path     string
	Width    int
	Height   int
	Size     int64
	Strategy string
}

// Options configures a Capturer.
type Options struct {
	Dir          string
	Enhance      bool
	MaxDimension int
	Timeout      time.Duration
}

// Capturer runs the capture strategy chain.
type Capturer struct {
	opts Options

	// overridable in tests
	run    func(ctx context.Context, name string, args ...string) error
	native func(ctx context.Context, windowID uint32, out string) error
	now    func() time.Time
}

// New creates a Capturer.
func New(opts Options) *Capturer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Capturer{
		opts:   opts,
		run:    runCommand,
		native: captureWindowNative,
		now:    time.Now,
	}
}

type strategy struct {
	name    string
	capture func(ctx context.Context, out string) error
}

func (c *Capturer) strategies(req Request) []strategy {
	var list []strategy
	if req.Region != nil {
		r := *req.Region
		list = append(list, strategy{"region", func(ctx context.Context, out string) error {
			return c.run(ctx, "screencapture", "-x", "-R", r.String(), "-t", "png", out)
		}})
	}
	if req.Window != nil {
		id := req.Window.ID
		list = append(list,
			strategy{"window_native", func(ctx context.Context, out string) error {
				return c.native(ctx, id, out)
			}},
			strategy{"window_cli", func(ctx context.Context, out string) error {
				return c.run(ctx, "screencapture", "-x", "-o", "-l", strconv.FormatUint(uint64(id), 10), "-t", "png", out)
			}},
		)
	}
	return append(list, strategy{"fullscreen", func(ctx context.Context, out string) error {
		return c.run(ctx, "screencapture", "-x", "-t", "png", out)
	}})
}

// Capture tries each strategy in turn until one produces a usable image. It
// returns a capture fault when all of them fail.
func (c *Capturer) Capture(ctx context.Context, req Request) (*Artifact, error) {
	out := tempfiles.ScreenshotPath(c.opts.Dir, c.now())

	var errs []error
	for _, s := range c.strategies(req) {
		size, err := c.try(ctx, s, out)
		if err != nil {
			slog.Warn("screenshot strategy failed", "strategy", s.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			_ = tempfiles.Remove(out)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if c.opts.Enhance {
			if err := Enhance(out, c.opts.MaxDimension); err != nil {
				slog.Warn("enhance screenshot, keeping raw capture", "error", err)
			} else if fi, err := os.Stat(out); err == nil {
				size = fi.Size()
			}
		}

		a := &Artifact{Path: out, Size: size, Strategy: s.name}
		a.Width, a.Height = dimensions(out)
		slog.Info("screenshot captured", "strategy", s.name, "path", out, "width", a.Width, "height", a.Height)
		return a, nil
	}
	return nil, faults.Capture("capture screenshot", errors.Join(errs...))
}

func (c *Capturer) try(ctx context.Context, s strategy, out string) (int64, error) {
	_ = tempfiles.Remove(out)

	cctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	if err := s.capture(cctx, out); err != nil {
		return 0, err
	}
	fi, err := os.Stat(out)
	if err != nil {
		return 0, fmt.Errorf("no output file: %w", err)
	}
	if fi.Size() < MinFileSize {
		return 0, fmt.Errorf("output too small (%d bytes)", fi.Size())
	}
	return fi.Size(), nil
}

func dimensions(path string) (int, int) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s failed: %w: %s", name, err, out)
	}
	return nil
}
