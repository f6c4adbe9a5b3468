package audio

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cwbudde/wav"
)

// Engine output is mono 16-bit PCM. The sample rate depends on the voice.
const (
	ExpectedChannels  = 1
	ExpectedBitDepth  = 16
	DefaultSampleRate = 48000
)

// ErrFormatMismatch is returned when a WAV does not match the expected
// format, or when buffers with different sample rates are combined.
var ErrFormatMismatch = errors.New("WAV format mismatch")

// DecodeWAV decodes WAV bytes into float32 PCM. It accepts any sample rate
// but requires mono 16-bit PCM.
func DecodeWAV(data []byte) (PCM, error) {
	if len(data) == 0 {
		return PCM{}, errors.New("empty WAV input")
	}

	r := bytes.NewReader(data)
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return PCM{}, errors.New("invalid WAV file")
	}

	if dec.NumChans != ExpectedChannels {
		return PCM{}, fmt.Errorf("%w: channels %d, want %d", ErrFormatMismatch, dec.NumChans, ExpectedChannels)
	}
	if dec.BitDepth != ExpectedBitDepth {
		return PCM{}, fmt.Errorf("%w: bit depth %d, want %d", ErrFormatMismatch, dec.BitDepth, ExpectedBitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return PCM{}, fmt.Errorf("reading PCM data: %w", err)
	}

	return PCM{Samples: buf.Data, SampleRate: int(dec.SampleRate)}, nil
}
