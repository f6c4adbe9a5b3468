package testutil

import (
	"testing"
	"time"

	"github.com/example/go-jtalk/internal/audio"
)

// AssertValidWAV decodes data as mono 16-bit PCM and fails unless it is at
// wantRate and holds at least one sample.
func AssertValidWAV(tb testing.TB, data []byte, wantRate int) audio.PCM {
	tb.Helper()

	pcm, err := audio.DecodeWAV(data)
	if err != nil {
		tb.Fatalf("WAV: %v", err)
	}
	if pcm.SampleRate != wantRate {
		tb.Fatalf("WAV: sample rate %d, want %d", pcm.SampleRate, wantRate)
	}
	if len(pcm.Samples) == 0 {
		tb.Fatal("WAV: no samples")
	}
	return pcm
}

// AssertWAVDurationApprox fails unless the decoded duration is within
// [minSec, maxSec].
func AssertWAVDurationApprox(tb testing.TB, data []byte, minSec, maxSec float64) {
	tb.Helper()

	pcm, err := audio.DecodeWAV(data)
	if err != nil {
		tb.Fatalf("WAV duration check: %v", err)
	}

	got := pcm.Duration()
	lo := time.Duration(minSec * float64(time.Second))
	hi := time.Duration(maxSec * float64(time.Second))
	if got < lo || got > hi {
		tb.Fatalf("WAV duration %v outside [%v, %v]", got, lo, hi)
	}
}
