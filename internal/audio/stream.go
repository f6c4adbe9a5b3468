package audio

import (
	"encoding/binary"
	"io"
	"math"
)

// WriteStreamHeader writes a 44-byte mono 16-bit WAV header whose RIFF and
// data sizes are 0xFFFFFFFF, the usual marker for a stream of unknown length.
func WriteStreamHeader(w io.Writer, sampleRate int) (int, error) {
	if sampleRate < 1 {
		sampleRate = DefaultSampleRate
	}
	blockAlign := ExpectedChannels * ExpectedBitDepth / 8

	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], 0xFFFFFFFF)
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], ExpectedChannels)
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(hdr[34:36], ExpectedBitDepth)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], 0xFFFFFFFF)

	return w.Write(hdr[:])
}

// WritePCM16 writes samples as little-endian signed 16-bit integers,
// clamped to [-1, 1].
func WritePCM16(w io.Writer, samples []float32) (int, error) {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		clamped := math.Max(-1, math.Min(1, float64(s)))
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(math.Round(clamped*32767))))
	}
	return w.Write(buf)
}
