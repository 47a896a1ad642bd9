package audiocapture

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudio is the system default input device.
type PortAudio struct{}

// InitPortAudio initializes the PortAudio library. The returned func must be
// called on shutdown.
func InitPortAudio() (func(), error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	return func() { _ = portaudio.Terminate() }, nil
}

// OpenInput opens the default input device with a callback stream.
func (PortAudio) OpenInput(cfg StreamConfig, callback func(in []float32)) (Stream, error) {
	s, err := portaudio.OpenDefaultStream(cfg.Channels, 0, float64(cfg.SampleRate), cfg.FramesPerBuffer, callback)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// DefaultInputName returns the name of the default input device.
func DefaultInputName() (string, error) {
	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		return "", err
	}
	return dev.Name, nil
}
