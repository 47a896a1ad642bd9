package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"go.aimuz.me/murmur/audiocapture"
	"go.aimuz.me/murmur/browser"
	"go.aimuz.me/murmur/emotion"
	"go.aimuz.me/murmur/hotkey"
	"go.aimuz.me/murmur/internal/types"
	"go.aimuz.me/murmur/overlay"
	"go.aimuz.me/murmur/screenshot"
	"go.aimuz.me/murmur/stt"
	"go.aimuz.me/murmur/tempfiles"
)

// State is the dispatcher state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Recorder captures audio between Start and Stop. *audiocapture.Pipeline
// implements it.
type Recorder interface {
	Start(mode types.Mode) error
	Stop() (*audiocapture.Artifact, error)
}

// Signaler gives audible and desktop feedback. *beep.Signaler implements it.
type Signaler interface {
	Start()
	Double()
	Stop()
	Submit()
	Notify(title, message string)
}

// WindowLocator finds the window under the pointer.
type WindowLocator interface {
	UnderPointer() (*types.Window, error)
}

// Selection is a running region selection.
type Selection interface {
	Path() string
	Finish(grace time.Duration) (types.Rect, bool)
	Cancel()
}

// RegionSelector starts region selections.
type RegionSelector interface {
	Start(ctx context.Context) (Selection, error)
}

// Capturer takes screenshots.
type Capturer interface {
	Capture(ctx context.Context, req screenshot.Request) (*screenshot.Artifact, error)
}

// TextCleaner rewrites a transcript. *Cleaner implements it.
type TextCleaner interface {
	Clean(ctx context.Context, text string) (string, bool)
}

// Deps are the collaborators of a Dispatcher. Emotion, Cleaner, Encode and
// Clipboard are optional.
type Deps struct {
	Recorder    Recorder
	Signaler    Signaler
	Windows     WindowLocator
	Regions     RegionSelector
	Capturer    Capturer
	Transcriber stt.Transcriber
	Emotion     emotion.Analyzer
	Cleaner     TextCleaner
	Pages       browser.Pages

	// Encode writes an upload copy of the WAV at src to dst.
	Encode    func(src, dst string) error
	Clipboard func(text string) error
}

// Options configure a Dispatcher.
type Options struct {
	ScreenshotKey types.Key
	AudioKey      types.Key

	Language            string
	TargetURL           string
	DeepResearchKeyword string

	// FormatHint is appended to every message when not empty.
	FormatHint string

	EmotionTopN     int
	EmotionMinScore float64

	// EmotionTimeout caps the whole analysis; it defaults to
	// emotion.DefaultTimeout.
	EmotionTimeout time.Duration

	// Grace is how long the overlay gets to exit after SIGTERM.
	Grace time.Duration
}

type session struct {
	id        string
	key       types.Key
	mode      types.Mode
	startedAt time.Time
	selection Selection
	window    *types.Window
	log       *slog.Logger
}

// Dispatcher turns trigger key presses into capture cycles.
type Dispatcher struct {
	deps Deps
	opts Options
	ctx  context.Context

	mu       sync.Mutex
	state    State
	sess     *session
	starting bool

	// tab is only touched by the cycle worker and by Close, which waits for
	// the worker first.
	tab browser.Tab

	wg  sync.WaitGroup
	now func() time.Time
}

// NewDispatcher creates an idle Dispatcher.
func NewDispatcher(deps Deps, opts Options) *Dispatcher {
	if opts.Grace <= 0 {
		opts.Grace = overlay.DefaultGrace
	}
	if opts.EmotionTimeout <= 0 {
		opts.EmotionTimeout = emotion.DefaultTimeout
	}
	return &Dispatcher{
		deps: deps,
		opts: opts,
		ctx:  context.Background(),
		now:  time.Now,
	}
}

// State returns the current state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Run feeds key events from obs into the dispatcher until ctx is done, then
// waits for the running cycle and releases the cached tab.
func (d *Dispatcher) Run(ctx context.Context, obs hotkey.Observer) error {
	d.ctx = ctx
	if err := obs.Start(d.OnPress, d.OnRelease); err != nil {
		return fmt.Errorf("start key observer: %w", err)
	}
	slog.Info("listening",
		"screenshot_key", d.opts.ScreenshotKey,
		"audio_key", d.opts.AudioKey)

	<-ctx.Done()
	obs.Stop()
	d.Close()
	return nil
}

// Wait blocks until the running cycle, if any, has finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Close waits for the running cycle and releases the cached tab.
func (d *Dispatcher) Close() {
	d.wg.Wait()

	d.mu.Lock()
	sess := d.sess
	d.sess = nil
	d.state = StateIdle
	d.mu.Unlock()

	// A key still held at shutdown.
	if sess != nil {
		if sess.selection != nil {
			sess.selection.Cancel()
		}
		if art, _ := d.deps.Recorder.Stop(); art != nil {
			_ = tempfiles.Remove(art.Path)
		}
	}
	if d.tab != nil {
		d.tab.Release()
		d.tab = nil
	}
}

func (d *Dispatcher) modeOf(key types.Key) (types.Mode, bool) {
	switch key {
	case d.opts.ScreenshotKey:
		return types.ModeAudioWithImage, true
	case d.opts.AudioKey:
		return types.ModeAudioOnly, true
	default:
		return 0, false
	}
}

// OnPress handles a trigger key press. The slot is reserved under the lock;
// the window lookup, overlay and device open run outside it.
func (d *Dispatcher) OnPress(key types.Key) {
	mode, ok := d.modeOf(key)
	if !ok {
		return
	}

	d.mu.Lock()
	if d.state != StateIdle || d.starting {
		state := d.state
		d.mu.Unlock()
		slog.Debug("ignore key press", "key", key, "state", state)
		return
	}
	d.starting = true
	d.mu.Unlock()

	id := ulid.Make().String()
	sess := &session{
		id:        id,
		key:       key,
		mode:      mode,
		startedAt: d.now(),
		log:       slog.With("cycle", id),
	}

	if mode == types.ModeAudioWithImage {
		d.deps.Signaler.Double()
		d.prepareScreenshot(sess)
	} else {
		d.deps.Signaler.Start()
	}

	err := d.deps.Recorder.Start(mode)

	d.mu.Lock()
	d.starting = false
	if err == nil {
		d.sess = sess
		d.state = StateRecording
	}
	d.mu.Unlock()

	if err != nil {
		sess.log.Error("start recording", "error", err)
		if sess.selection != nil {
			sess.selection.Cancel()
		}
		d.deps.Signaler.Notify("murmur", "Could not start recording: "+err.Error())
		return
	}
	sess.log.Info("recording", "mode", mode, "key", key)
}

// prepareScreenshot snapshots the window under the pointer and starts the
// region overlay.
func (d *Dispatcher) prepareScreenshot(sess *session) {
	if d.deps.Windows != nil {
		w, err := d.deps.Windows.UnderPointer()
		if err != nil {
			sess.log.Debug("locate window", "error", err)
		} else {
			sess.window = w
			sess.log.Debug("fallback window", "app", w.App, "id", w.ID, "bounds", w.Bounds)
		}
	}

	if d.deps.Regions == nil {
		return
	}
	sel, err := d.deps.Regions.Start(d.ctx)
	switch {
	case errors.Is(err, overlay.ErrDisabled):
	case err != nil:
		sess.log.Warn("start region overlay", "error", err)
	default:
		sess.selection = sel
	}
}

// OnRelease handles a trigger key release. Only the key that opened the
// session ends it.
func (d *Dispatcher) OnRelease(key types.Key) {
	d.mu.Lock()
	if d.state != StateRecording || d.sess == nil || d.sess.key != key {
		d.mu.Unlock()
		return
	}
	d.state = StateProcessing
	sess := d.sess
	d.wg.Add(1)
	d.mu.Unlock()

	d.deps.Signaler.Stop()
	go d.process(sess)
}

// process runs one cycle to completion and returns the dispatcher to idle.
func (d *Dispatcher) process(sess *session) {
	var files []string
	defer func() {
		if r := recover(); r != nil {
			sess.log.Error("cycle panicked", "panic", r, "stack", string(debug.Stack()))
		}
		if sess.selection != nil {
			sess.selection.Cancel()
		}
		if err := tempfiles.Remove(files...); err != nil {
			sess.log.Warn("remove temp files", "error", err)
		}
		d.mu.Lock()
		d.sess = nil
		d.state = StateIdle
		d.mu.Unlock()
		d.wg.Done()
		sess.log.Debug("cycle done", "elapsed", time.Since(sess.startedAt))
	}()
	if sess.selection != nil {
		files = append(files, sess.selection.Path())
	}

	ctx := d.ctx
	log := sess.log

	art, err := d.deps.Recorder.Stop()
	if err != nil {
		log.Error("stop recording", "error", err)
	}
	if art == nil {
		log.Warn("no audio captured, skipping")
		return
	}
	files = append(files, art.Path)
	log.Info("recorded", "duration", art.Duration, "peak", art.Peak, "gain", art.Gain)

	var shot string
	if sess.mode == types.ModeAudioWithImage {
		shot = d.resolveScreenshot(ctx, sess)
		if shot != "" {
			files = append(files, shot)
		}
	}

	upload := art.Path
	if d.deps.Encode != nil {
		dst := strings.TrimSuffix(art.Path, ".wav") + ".ogg"
		files = append(files, dst)
		if err := d.deps.Encode(art.Path, dst); err != nil {
			log.Warn("encode upload copy", "error", err)
		} else {
			upload = dst
		}
	}

	// Emotion analysis runs alongside transcription, bounded by
	// EmotionTimeout, and is joined before the files go away.
	var emotions []types.EmotionScore
	var emoWG sync.WaitGroup
	defer emoWG.Wait()
	if d.deps.Emotion != nil {
		emoWG.Add(1)
		go func() {
			defer emoWG.Done()
			ectx, cancel := context.WithTimeout(ctx, d.opts.EmotionTimeout)
			defer cancel()
			scores, err := d.deps.Emotion.Analyze(ectx, art.Path)
			if err != nil {
				log.Warn("analyze emotion", "error", err)
				return
			}
			emotions = emotion.Filter(scores, d.opts.EmotionMinScore, d.opts.EmotionTopN)
		}()
	}

	raw, err := d.deps.Transcriber.Transcribe(ctx, upload, d.opts.Language)
	if err != nil {
		log.Error("transcribe", "error", err)
		d.deps.Signaler.Notify("murmur", "Transcription failed")
		return
	}
	if raw == "" {
		log.Warn("empty transcript, skipping")
		return
	}
	log.Info("transcribed", "text", raw)

	emoWG.Wait()

	text := raw
	if d.deps.Cleaner != nil {
		if cleaned, ok := d.deps.Cleaner.Clean(ctx, raw); ok {
			if cleaned != raw {
				log.Info("transcript cleaned", "text", cleaned)
			}
			text = cleaned
		}
	}

	d.submit(ctx, log, types.ProcessingResult{
		RawTranscript:  raw,
		Text:           text,
		Emotions:       emotions,
		ScreenshotPath: shot,
		CreatedAt:      d.now(),
	})
}

// resolveScreenshot picks one of region, window or full screen and returns
// the captured path, or "" when nothing could be captured.
func (d *Dispatcher) resolveScreenshot(ctx context.Context, sess *session) string {
	var region *types.Rect
	if sess.selection != nil {
		r, ok := sess.selection.Finish(d.opts.Grace)
		switch {
		case ok && r.AtLeast(types.MinRegionSize):
			region = &r
		case ok:
			sess.log.Info("region too small, using window", "region", r)
		}
	}

	if d.deps.Capturer == nil {
		return ""
	}
	art, err := d.deps.Capturer.Capture(ctx, screenshotRequest(region, sess.window))
	if err != nil {
		sess.log.Warn("capture screenshot", "error", err)
		return ""
	}
	sess.log.Info("screenshot captured", "strategy", art.Strategy, "width", art.Width, "height", art.Height)
	return art.Path
}

func screenshotRequest(region *types.Rect, w *types.Window) screenshot.Request {
	if region != nil {
		return screenshot.Request{Region: region}
	}
	if w != nil {
		return screenshot.Request{Window: w}
	}
	return screenshot.Request{}
}
