package beep

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudioPlayer writes to the default output device. PortAudio must be
// initialized by the caller.
type PortAudioPlayer struct{}

func (PortAudioPlayer) Play(samples []float32, sampleRate int) error {
	const frames = 512
	buf := make([]float32, frames)

	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), frames, buf)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start output: %w", err)
	}
	for off := 0; off < len(samples); off += frames {
		n := copy(buf, samples[off:])
		clear(buf[n:])
		if err := stream.Write(); err != nil {
			stream.Abort()
			return fmt.Errorf("write output: %w", err)
		}
	}
	return stream.Stop()
}
