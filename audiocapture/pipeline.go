// Package audiocapture records push-to-talk audio from the default input
// device and turns each recording into a normalized 16-bit WAV file.
package audiocapture

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.aimuz.me/murmur/internal/faults"
	"go.aimuz.me/murmur/internal/types"
	"go.aimuz.me/murmur/tempfiles"
)

// State is the pipeline state.
type State int

const (
	StateIdle State = iota
	StateRecording
)

func (s State) String() string {
	if s == StateRecording {
		return "recording"
	}
	return "idle"
}

// StreamConfig describes the input stream to open.
type StreamConfig struct {
	SampleRate      int
	Channels        int
	FramesPerBuffer int
}

// Device opens input streams. The callback receives interleaved samples in
// [-1, 1]; the slice is only valid for the duration of the call.
type Device interface {
	OpenInput(cfg StreamConfig, callback func(in []float32)) (Stream, error)
}

// Stream is an open input stream.
type Stream interface {
	Start() error
	Stop() error
	Abort() error
	Close() error
}

// Config holds configuration for the pipeline.
type Config struct {
	SampleRate      int           // default 16000 Hz
	Channels        int           // default 1
	FramesPerBuffer int           // default 1024
	MaxDuration     time.Duration // recording ceiling, default 5 minutes
	Dir             string        // where artifacts are written

	// OnLevel receives the RMS of every chunk. It runs on the audio thread.
	OnLevel func(rms float64)
	// OnCeiling is called once when a recording hits MaxDuration.
	OnCeiling func()
	// Now is used for artifact names; defaults to time.Now.
	Now func() time.Time
}

// Artifact is a finished recording on disk.
type Artifact struct {
	Path       string
	SampleRate int
	Channels   int
	Frames     int
	Duration   time.Duration
	Peak       float64 // before normalization
	Gain       float64
}

// Samples returns the total number of interleaved samples.
func (a *Artifact) Samples() int { return a.Frames * a.Channels }

// Pipeline owns the IDLE/RECORDING state machine for one input device.
type Pipeline struct {
	cfg Config
	dev Device

	mu      sync.Mutex
	state   State
	mode    types.Mode
	stream  Stream
	pending *Artifact // finalized by the ceiling abort, returned by the next Stop

	// buffer state, written by the audio callback
	bufMu     sync.Mutex
	chunks    [][]float32
	frames    int
	maxFrames int
	ceiling   atomic.Bool

	level atomic.Uint64
}

// New creates a pipeline reading from dev.
func New(dev Device, cfg Config) *Pipeline {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.FramesPerBuffer <= 0 {
		cfg.FramesPerBuffer = 1024
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pipeline{cfg: cfg, dev: dev}
}

// Start begins recording. It is a no-op while already recording. If the
// device cannot be opened the pipeline stays idle and a device error is
// returned.
func (p *Pipeline) Start(mode types.Mode) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateRecording {
		return nil
	}
	if p.pending != nil {
		slog.Warn("discard unclaimed recording", "path", p.pending.Path)
		_ = tempfiles.Remove(p.pending.Path)
		p.pending = nil
	}

	p.bufMu.Lock()
	p.chunks = nil
	p.frames = 0
	p.maxFrames = int(p.cfg.MaxDuration.Seconds() * float64(p.cfg.SampleRate))
	p.bufMu.Unlock()
	p.ceiling.Store(false)
	p.level.Store(0)

	stream, err := p.dev.OpenInput(StreamConfig{
		SampleRate:      p.cfg.SampleRate,
		Channels:        p.cfg.Channels,
		FramesPerBuffer: p.cfg.FramesPerBuffer,
	}, p.handleChunk)
	if err != nil {
		return faults.Device("open input stream", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return faults.Device("start input stream", err)
	}

	p.stream = stream
	p.mode = mode
	p.state = StateRecording
	slog.Info("recording started", "mode", mode, "sample_rate", p.cfg.SampleRate, "channels", p.cfg.Channels)
	return nil
}

// Stop ends the recording and writes the artifact. It returns nil, nil when
// nothing is recording or when no audio was captured.
func (p *Pipeline) Stop() (*Artifact, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending != nil {
		a := p.pending
		p.pending = nil
		return a, nil
	}
	if p.state != StateRecording {
		return nil, nil
	}
	return p.finish(false)
}

// IsRecording reports whether the pipeline is in the RECORDING state.
func (p *Pipeline) IsRecording() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StateRecording
}

// Level returns the RMS of the most recent chunk.
func (p *Pipeline) Level() float64 {
	return math.Float64frombits(p.level.Load())
}

// finish tears the stream down and finalizes the buffer. p.mu must be held.
func (p *Pipeline) finish(abort bool) (*Artifact, error) {
	stream := p.stream
	p.stream = nil
	p.state = StateIdle

	if abort {
		if err := stream.Abort(); err != nil {
			slog.Warn("abort input stream", "error", err)
		}
	} else if err := stream.Stop(); err != nil {
		slog.Warn("stop input stream", "error", err)
	}
	if err := stream.Close(); err != nil {
		slog.Warn("close input stream", "error", err)
	}

	p.bufMu.Lock()
	chunks := p.chunks
	frames := p.frames
	p.chunks = nil
	p.frames = 0
	p.bufMu.Unlock()

	if len(chunks) == 0 || frames == 0 {
		slog.Warn("no audio captured")
		return nil, nil
	}

	samples := make([]float32, 0, frames*p.cfg.Channels)
	for _, c := range chunks {
		samples = append(samples, c...)
	}

	peak := Peak(samples)
	gain := Normalize(samples)

	path := tempfiles.AudioPath(p.cfg.Dir, p.cfg.Now(), "wav")
	if err := WriteWAV(path, samples, p.cfg.SampleRate, p.cfg.Channels); err != nil {
		return nil, fmt.Errorf("write recording: %w", err)
	}

	a := &Artifact{
		Path:       path,
		SampleRate: p.cfg.SampleRate,
		Channels:   p.cfg.Channels,
		Frames:     frames,
		Duration:   time.Duration(frames) * time.Second / time.Duration(p.cfg.SampleRate),
		Peak:       peak,
		Gain:       gain,
	}
	slog.Info("recording saved", "path", path, "duration", a.Duration, "peak", peak, "gain", gain)
	return a, nil
}

// handleChunk runs on the audio thread.
func (p *Pipeline) handleChunk(in []float32) {
	if p.ceiling.Load() {
		return
	}

	rms := RMS(in)
	p.level.Store(math.Float64bits(rms))
	if p.cfg.OnLevel != nil {
		p.cfg.OnLevel(rms)
	}

	ch := p.cfg.Channels
	p.bufMu.Lock()
	n := len(in) / ch
	if room := p.maxFrames - p.frames; n > room {
		n = room
	}
	if n > 0 {
		chunk := make([]float32, n*ch)
		copy(chunk, in[:n*ch])
		p.chunks = append(p.chunks, chunk)
		p.frames += n
	}
	hit := p.frames >= p.maxFrames
	p.bufMu.Unlock()

	if hit && p.ceiling.CompareAndSwap(false, true) {
		// A stream must not be stopped from its own callback.
		go p.abortAtCeiling()
	}
}

func (p *Pipeline) abortAtCeiling() {
	p.mu.Lock()
	if p.state != StateRecording {
		p.mu.Unlock()
		return
	}
	slog.Warn("max recording duration reached, stopping", "max", p.cfg.MaxDuration)
	a, err := p.finish(true)
	if err != nil {
		slog.Error("finalize recording at ceiling", "error", err)
	}
	p.pending = a
	p.mu.Unlock()

	if p.cfg.OnCeiling != nil {
		p.cfg.OnCeiling()
	}
}
