// Package beep plays short audio cues and desktop notifications.
package beep

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
)

const (
	SampleRate = 44100
	Volume     = 0.3
	fade       = 5 * time.Millisecond
	gap        = 50 * time.Millisecond
)

// Tone is a single sine burst.
type Tone struct {
	Freq     float64
	Duration time.Duration
}

// Cues.
var (
	StartCue  = []Tone{{900, 100 * time.Millisecond}}
	DoubleCue = []Tone{{800, 80 * time.Millisecond}, {1000, 80 * time.Millisecond}}
	StopCue   = []Tone{{700, 120 * time.Millisecond}}
	SubmitCue = []Tone{{1200, 150 * time.Millisecond}}
)

// Player plays mono float samples.
type Player interface {
	Play(samples []float32, sampleRate int) error
}

// Options configures a Signaler.
type Options struct {
	Beeps         bool
	Notifications bool
	// Player defaults to the PortAudio output device.
	Player Player
}

// Signaler plays cues on a background goroutine so callers never block.
type Signaler struct {
	opts     Options
	queue    chan []Tone
	fallback func(freq float64, ms int) error
	notify   func(title, message, icon string) error

	wg   sync.WaitGroup
	once sync.Once
}

// New starts a Signaler. Close must be called to stop it.
func New(opts Options) *Signaler {
	if opts.Player == nil {
		opts.Player = PortAudioPlayer{}
	}
	s := &Signaler{
		opts:     opts,
		queue:    make(chan []Tone, 8),
		fallback: beeep.Beep,
		notify:   beeep.Notify,
	}
	s.wg.Add(1)
	go s.loop()
	return s
}

func (s *Signaler) Start()  { s.enqueue(StartCue) }
func (s *Signaler) Double() { s.enqueue(DoubleCue) }
func (s *Signaler) Stop()   { s.enqueue(StopCue) }
func (s *Signaler) Submit() { s.enqueue(SubmitCue) }

// Notify shows a desktop notification.
func (s *Signaler) Notify(title, message string) {
	if !s.opts.Notifications {
		return
	}
	if err := s.notify(title, message, ""); err != nil {
		slog.Warn("show notification", "error", err)
	}
}

// Close drains pending cues and stops the worker.
func (s *Signaler) Close() {
	s.once.Do(func() { close(s.queue) })
	s.wg.Wait()
}

func (s *Signaler) enqueue(cue []Tone) {
	if !s.opts.Beeps {
		return
	}
	select {
	case s.queue <- cue:
	default:
		slog.Debug("beep queue full, dropping cue")
	}
}

func (s *Signaler) loop() {
	defer s.wg.Done()
	for cue := range s.queue {
		if err := s.opts.Player.Play(Sequence(cue, SampleRate), SampleRate); err != nil {
			slog.Debug("play tone, using system beep", "error", err)
			s.playFallback(cue)
		}
	}
}

func (s *Signaler) playFallback(cue []Tone) {
	for i, t := range cue {
		if i > 0 {
			time.Sleep(gap)
		}
		if err := s.fallback(t.Freq, int(t.Duration/time.Millisecond)); err != nil {
			slog.Warn("system beep", "error", err)
			return
		}
	}
}

// Synth renders a sine burst with linear fades at both ends.
func Synth(t Tone, sampleRate int) []float32 {
	n := int(t.Duration.Seconds() * float64(sampleRate))
	ramp := int(fade.Seconds() * float64(sampleRate))
	if ramp*2 > n {
		ramp = n / 2
	}

	out := make([]float32, n)
	for i := range out {
		v := Volume * math.Sin(2*math.Pi*t.Freq*float64(i)/float64(sampleRate))
		switch {
		case i < ramp:
			v *= float64(i) / float64(ramp)
		case i >= n-ramp:
			v *= float64(n-1-i) / float64(ramp)
		}
		out[i] = float32(v)
	}
	return out
}

// Sequence renders tones separated by a short silence.
func Sequence(tones []Tone, sampleRate int) []float32 {
	silence := int(gap.Seconds() * float64(sampleRate))
	var out []float32
	for i, t := range tones {
		if i > 0 {
			out = append(out, make([]float32, silence)...)
		}
		out = append(out, Synth(t, sampleRate)...)
	}
	return out
}
