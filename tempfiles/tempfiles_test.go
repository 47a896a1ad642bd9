package tempfiles

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 42*int(time.Millisecond), time.Local)

	assert.Equal(t, "20240309_140507_042", Stamp(ts))
	assert.Equal(t, filepath.Join("d", "audio_20240309_140507_042.wav"), AudioPath("d", ts, "wav"))
	assert.Equal(t, filepath.Join("d", "audio_20240309_140507_042.ogg"), AudioPath("d", ts, ".ogg"))
	assert.Equal(t, filepath.Join("d", "screenshot_20240309_140507_042.png"), ScreenshotPath("d", ts))

	a, b := RegionPath("d"), RegionPath("d")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(filepath.Base(a), "region_"))
	assert.True(t, strings.HasSuffix(a, ".txt"))
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	files := map[string]time.Duration{
		"audio_old.wav":       2 * time.Hour,
		"screenshot_old.png":  90 * time.Minute,
		"region_old.txt":      3 * time.Hour,
		"temp_old.bin":        2 * time.Hour,
		"audio_fresh.wav":     10 * time.Minute,
		"notes.txt":           5 * time.Hour,
		"screenshot_edge.png": 59 * time.Minute,
	}
	for name, age := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
		mt := now.Add(-age)
		require.NoError(t, os.Chtimes(p, mt, mt))
	}

	n, err := Sweep(dir, MaxAge, now)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	for _, kept := range []string{"audio_fresh.wav", "notes.txt", "screenshot_edge.png"} {
		assert.FileExists(t, filepath.Join(dir, kept))
	}
	for _, gone := range []string{"audio_old.wav", "screenshot_old.png", "region_old.txt", "temp_old.bin"} {
		assert.NoFileExists(t, filepath.Join(dir, gone))
	}
}

func TestSweepMissingDir(t *testing.T) {
	n, err := Sweep(filepath.Join(t.TempDir(), "nope"), MaxAge, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "audio_x.wav")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))

	require.NoError(t, Remove(p, "", filepath.Join(dir, "missing.png")))
	assert.NoFileExists(t, p)
}
