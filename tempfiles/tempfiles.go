// Package tempfiles owns the naming and lifetime of the per-cycle files:
// recordings, screenshots and overlay results.
package tempfiles

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxAge is how old a leftover file must be before Sweep removes it.
const MaxAge = time.Hour

// sweepPrefixes lists the name prefixes Sweep is allowed to touch.
var sweepPrefixes = []string{"audio_", "screenshot_", "region_", "temp_"}

// Dir returns the shared temp directory, creating it if needed.
func Dir() (string, error) {
	dir := filepath.Join(os.TempDir(), "murmur")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	return dir, nil
}

// Stamp formats t the way every cycle file name embeds it.
func Stamp(t time.Time) string {
	return fmt.Sprintf("%s_%03d", t.Format("20060102_150405"), t.Nanosecond()/int(time.Millisecond))
}

// AudioPath returns dir/audio_<stamp>.<ext>.
func AudioPath(dir string, t time.Time, ext string) string {
	return filepath.Join(dir, "audio_"+Stamp(t)+"."+strings.TrimPrefix(ext, "."))
}

// ScreenshotPath returns dir/screenshot_<stamp>.png.
func ScreenshotPath(dir string, t time.Time) string {
	return filepath.Join(dir, "screenshot_"+Stamp(t)+".png")
}

// RegionPath returns dir/region_<random>.txt.
func RegionPath(dir string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	return filepath.Join(dir, "region_"+id+".txt")
}

// Remove deletes each non-empty path, ignoring files that are already gone.
// It returns the first other error.
func Remove(paths ...string) error {
	var first error
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("remove temp file", "path", p, "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Sweep removes cycle files in dir whose modification time is older than
// maxAge relative to now. It returns the number of removed files.
func Sweep(dir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read temp dir: %w", err)
	}

	removed := 0
	var first error
	for _, e := range entries {
		if e.IsDir() || !sweepable(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= maxAge {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			if first == nil {
				first = fmt.Errorf("remove %s: %w", path, err)
			}
			continue
		}
		removed++
		slog.Debug("swept stale temp file", "path", path)
	}
	return removed, first
}

func sweepable(name string) bool {
	for _, p := range sweepPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
