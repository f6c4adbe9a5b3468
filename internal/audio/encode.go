package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/cwbudde/wav"
	goaudio "github.com/go-audio/audio"
)

// EncodeWAV encodes p as mono 16-bit PCM WAV at p.SampleRate.
func EncodeWAV(p PCM) ([]byte, error) {
	if p.SampleRate < 1 {
		return nil, fmt.Errorf("invalid sample rate: %d", p.SampleRate)
	}

	// The encoder seeks back to patch chunk sizes on Close.
	var out memFile
	enc := wav.NewEncoder(&out, p.SampleRate, ExpectedBitDepth, ExpectedChannels, 1)

	err := enc.Write(&goaudio.Float32Buffer{
		Data:           p.Samples,
		Format:         &goaudio.Format{SampleRate: p.SampleRate, NumChannels: ExpectedChannels},
		SourceBitDepth: ExpectedBitDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("writing PCM: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing encoder: %w", err)
	}
	return out.data, nil
}

// memFile is an in-memory io.WriteSeeker.
type memFile struct {
	data []byte
	off  int
}

func (m *memFile) Write(p []byte) (int, error) {
	if end := m.off + len(p); end > len(m.data) {
		m.data = append(m.data, make([]byte, end-len(m.data))...)
	}
	n := copy(m.data[m.off:], p)
	m.off += n
	return n, nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var base int
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = m.off
	case io.SeekEnd:
		base = len(m.data)
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	pos := base + int(offset)
	if pos < 0 {
		return 0, errors.New("seek: negative position")
	}
	m.off = pos
	return int64(pos), nil
}
