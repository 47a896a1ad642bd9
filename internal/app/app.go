// Package app provides the push-to-talk service: it wires the recorder,
// screenshot, remote clients and browser channel into a Dispatcher.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.aimuz.me/murmur/audiocapture"
	"go.aimuz.me/murmur/beep"
	"go.aimuz.me/murmur/browser"
	"go.aimuz.me/murmur/cache"
	"go.aimuz.me/murmur/clipboard"
	"go.aimuz.me/murmur/config"
	"go.aimuz.me/murmur/emotion"
	"go.aimuz.me/murmur/hotkey"
	"go.aimuz.me/murmur/internal/netclient"
	"go.aimuz.me/murmur/internal/types"
	"go.aimuz.me/murmur/llm"
	"go.aimuz.me/murmur/overlay"
	"go.aimuz.me/murmur/permission"
	"go.aimuz.me/murmur/screenshot"
	"go.aimuz.me/murmur/stt"
	"go.aimuz.me/murmur/tempfiles"
	"go.aimuz.me/murmur/window"
)

// Service owns every long-lived resource of a run.
// This struct focuses on wiring; the cycle logic lives in Dispatcher.
type Service struct {
	cfg *config.Config

	cache      *cache.Cache
	signal     *beep.Signaler
	channel    *browser.Channel
	dispatcher *Dispatcher
	terminate  func()

	// Version info (set by caller)
	version string
}

// New creates a new Service. Call Init before Run.
func New(cfg *config.Config, version string) *Service {
	return &Service{cfg: cfg, version: version}
}

// GetVersion returns the application version.
func (s *Service) GetVersion() string {
	return s.version
}

// Init checks the environment and builds the components. An error means the
// service cannot run; Shutdown must still be called.
func (s *Service) Init(ctx context.Context) error {
	cfg := s.cfg
	for _, k := range []types.Key{cfg.Keys.WithScreenshot, cfg.Keys.AudioOnly} {
		if !hotkey.Valid(k) {
			return fmt.Errorf("unknown trigger key %q", k)
		}
	}

	dir, err := tempfiles.Dir()
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	if n, err := tempfiles.Sweep(dir, tempfiles.MaxAge, time.Now()); err != nil {
		slog.Warn("sweep temp files", "error", err)
	} else if n > 0 {
		slog.Info("removed stale temp files", "count", n)
	}

	permission.Probe().Log()

	v, err := browser.CheckEndpoint(ctx, cfg.Browser.DebugAddress)
	if err != nil {
		return err
	}
	slog.Info("browser endpoint ok", "browser", v.Browser)

	terminate, err := audiocapture.InitPortAudio()
	if err != nil {
		return err
	}
	s.terminate = terminate
	if name, err := audiocapture.DefaultInputName(); err == nil {
		slog.Info("input device", "name", name)
	}

	s.signal = beep.New(beep.Options{
		Beeps:         cfg.Feedback.Beeps,
		Notifications: cfg.Feedback.Notifications,
	})

	ch, err := browser.Connect(ctx, cfg.Browser.DebugAddress, browser.Options{
		AppName:       cfg.Browser.AppName,
		QueryTimeout:  time.Duration(cfg.Browser.QueryTimeoutSeconds) * time.Second,
		UploadTimeout: time.Duration(cfg.Browser.UploadTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return err
	}
	s.channel = ch

	s.dispatcher = NewDispatcher(s.buildDeps(dir), s.buildOptions())
	return nil
}

func (s *Service) buildDeps(dir string) Deps {
	cfg := s.cfg
	// The shared client's ceiling covers the longest remote call; each
	// client sets its own tighter deadline.
	hc := netclient.New(max(time.Duration(cfg.Transcription.TimeoutSeconds)*time.Second, stt.DefaultTimeout))

	pipeline := audiocapture.New(audiocapture.PortAudio{}, audiocapture.Config{
		SampleRate:      cfg.Audio.SampleRate,
		Channels:        cfg.Audio.Channels,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
		MaxDuration:     cfg.Audio.MaxDuration(),
		Dir:             dir,
		OnCeiling: func() {
			s.signal.Notify("murmur", "Recording limit reached, release the key to send")
		},
	})

	deps := Deps{
		Recorder: pipeline,
		Signaler: s.signal,
		Windows:  window.Locator{},
		Regions:  overlaySelector{&overlay.Selector{Command: cfg.Overlay.Command, Dir: dir}},
		Capturer: screenshot.New(screenshot.Options{
			Dir:          dir,
			Enhance:      cfg.Screenshot.Enhance,
			MaxDimension: cfg.Screenshot.MaxDimension,
		}),
		Transcriber: stt.New(stt.Config{
			APIKey:     cfg.Transcription.APIKey,
			BaseURL:    cfg.Transcription.BaseURL,
			Model:      cfg.Transcription.Model,
			Timeout:    time.Duration(cfg.Transcription.TimeoutSeconds) * time.Second,
			HTTPClient: hc,
		}),
		Pages:     s.channel,
		Clipboard: clipboard.SetText,
	}

	if cfg.Audio.UploadCodec == "opus" {
		if audiocapture.OpusSupported(cfg.Audio.SampleRate, cfg.Audio.Channels) {
			deps.Encode = audiocapture.EncodeOggOpus
		} else {
			slog.Warn("opus upload not supported for this format, uploading wav",
				"sample_rate", cfg.Audio.SampleRate, "channels", cfg.Audio.Channels)
		}
	}

	if cfg.Emotion.Enabled {
		deps.Emotion = emotion.New(emotion.Config{
			APIKey:     cfg.Emotion.APIKey,
			BaseURL:    cfg.Emotion.BaseURL,
			HTTPClient: hc,
		})
	}

	if cfg.Cleanup.Enabled {
		if cfg.Cleanup.Cache {
			s.setupCache()
		}
		completer := llm.NewCompleter(cfg.Cleanup.APIKey, cfg.Cleanup.BaseURL, cfg.Cleanup.Model, llm.Options{
			MaxTokens:   512,
			Temperature: 0,
			TopP:        1,
			Timeout:     cfg.Cleanup.Timeout(),
		}, hc)
		deps.Cleaner = NewCleaner(completer, cfg.Cleanup.Model, s.cache, cfg.Cleanup.LanguageGuard)
	}
	return deps
}

func (s *Service) buildOptions() Options {
	cfg := s.cfg
	opts := Options{
		ScreenshotKey:       cfg.Keys.WithScreenshot,
		AudioKey:            cfg.Keys.AudioOnly,
		Language:            cfg.Transcription.Language,
		TargetURL:           cfg.Browser.TargetURL,
		DeepResearchKeyword: cfg.Browser.DeepResearchKeyword,
		EmotionTopN:         cfg.Emotion.TopN,
		EmotionMinScore:     cfg.Emotion.MinScore,
		Grace:               time.Duration(cfg.Overlay.GraceMillis) * time.Millisecond,
	}
	if cfg.Message.FormatHintEnabled {
		opts.FormatHint = cfg.Message.FormatHint
	}
	return opts
}

// Run listens for trigger keys until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	if s.dispatcher == nil {
		return fmt.Errorf("service not initialized")
	}
	obs := hotkey.NewHook(s.cfg.Keys.WithScreenshot, s.cfg.Keys.AudioOnly)
	return s.dispatcher.Run(ctx, obs)
}

// Shutdown cleans up resources.
func (s *Service) Shutdown() {
	if s.dispatcher != nil {
		s.dispatcher.Close()
	}
	if s.channel != nil {
		s.channel.Close()
	}
	if s.signal != nil {
		s.signal.Close()
	}
	if s.terminate != nil {
		s.terminate()
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			slog.Error("close cache", "error", err)
		}
	}
}

func (s *Service) setupCache() {
	cachePath := filepath.Join(filepath.Dir(s.cfg.Path()), "cache")
	c, err := cache.New(cachePath)
	if err != nil {
		slog.Error("init cache", "error", err)
		return
	}
	s.cache = c
	slog.Info("cache initialized", "path", cachePath)
}

// overlaySelector adapts *overlay.Selector to RegionSelector.
type overlaySelector struct {
	s *overlay.Selector
}

func (o overlaySelector) Start(ctx context.Context) (Selection, error) {
	sel, err := o.s.Start(ctx)
	if err != nil {
		return nil, err
	}
	return sel, nil
}
