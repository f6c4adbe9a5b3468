package audio

import (
	"fmt"
	"time"
)

// PCM is a mono float32 buffer with its sample rate.
type PCM struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the playback length.
func (p PCM) Duration() time.Duration {
	if p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(p.Samples)) * time.Second / time.Duration(p.SampleRate)
}

// Silence returns ms milliseconds of silence at sampleRate.
func Silence(sampleRate int, ms float64) PCM {
	n := int(ms / 1000 * float64(sampleRate))
	if n < 0 {
		n = 0
	}
	return PCM{Samples: make([]float32, n), SampleRate: sampleRate}
}

// Concat joins parts in order, inserting gapMS of silence between them.
// All parts must share one sample rate.
func Concat(gapMS float64, parts ...PCM) (PCM, error) {
	if len(parts) == 0 {
		return PCM{}, fmt.Errorf("concat: no audio")
	}
	rate := parts[0].SampleRate
	total := 0
	for i, p := range parts {
		if p.SampleRate != rate {
			return PCM{}, fmt.Errorf("%w: part %d at %d Hz, want %d Hz", ErrFormatMismatch, i+1, p.SampleRate, rate)
		}
		total += len(p.Samples)
	}
	gap := Silence(rate, gapMS).Samples
	total += len(gap) * (len(parts) - 1)

	out := make([]float32, 0, total)
	for i, p := range parts {
		if i > 0 {
			out = append(out, gap...)
		}
		out = append(out, p.Samples...)
	}
	return PCM{Samples: out, SampleRate: rate}, nil
}

// Hook is one post-processing step over samples.
type Hook func(samples []float32) []float32

// ApplyHooks runs hooks in order.
func ApplyHooks(samples []float32, hooks ...Hook) []float32 {
	out := samples
	for _, hook := range hooks {
		out = hook(out)
	}

	return out
}
