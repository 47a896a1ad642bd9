package audiocapture

import (
	"fmt"
	"log/slog"

	opuscodec "github.com/jj11hh/opus"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
)

// opusFrameTicks is one 20 ms frame in the 48 kHz Ogg granule clock.
const opusFrameTicks = 960

// OpusSupported reports whether libopus can encode audio in this format.
func OpusSupported(sampleRate, channels int) bool {
	switch sampleRate {
	case 8000, 12000, 16000, 24000, 48000:
	default:
		return false
	}
	return channels == 1 || channels == 2
}

// EncodeOggOpus transcodes a WAV artifact into an Ogg/Opus file for upload.
// The final partial frame is padded with silence.
func EncodeOggOpus(wavPath, outPath string) error {
	samples, rate, channels, err := ReadWAV(wavPath)
	if err != nil {
		return err
	}
	if !OpusSupported(rate, channels) {
		return fmt.Errorf("opus: unsupported format %d Hz / %d ch", rate, channels)
	}

	enc, err := opuscodec.NewEncoder(rate, channels, opuscodec.AppVoIP)
	if err != nil {
		return fmt.Errorf("create opus encoder: %w", err)
	}
	ogg, err := oggwriter.New(outPath, uint32(rate), uint16(channels))
	if err != nil {
		return fmt.Errorf("create ogg writer: %w", err)
	}

	frame := rate / 50 * channels
	packet := make([]byte, 1275)
	var ts uint32
	var seq uint16
	for off := 0; off < len(samples); off += frame {
		pcm := make([]float32, frame)
		copy(pcm, samples[off:])

		n, err := enc.EncodeFloat32(pcm, packet)
		if err != nil {
			ogg.Close()
			return fmt.Errorf("opus encode: %w", err)
		}
		ts += opusFrameTicks
		seq++
		err = ogg.WriteRTP(&rtp.Packet{
			Header:  rtp.Header{Version: 2, SequenceNumber: seq, Timestamp: ts},
			Payload: append([]byte(nil), packet[:n]...),
		})
		if err != nil {
			ogg.Close()
			return fmt.Errorf("write ogg page: %w", err)
		}
	}

	if err := ogg.Close(); err != nil {
		return fmt.Errorf("close ogg: %w", err)
	}
	slog.Debug("encoded upload copy", "path", outPath, "frames", seq)
	return nil
}
