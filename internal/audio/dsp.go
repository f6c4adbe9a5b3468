package audio

import "math"

// dcCutoffHz is the corner frequency of DCBlock.
const dcCutoffHz = 20.0

// PeakNormalize scales samples so the peak amplitude reaches 1.0. Silence
// is returned unchanged.
func PeakNormalize(samples []float32) []float32 {
	var peak float64
	for _, s := range samples {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	if peak == 0 {
		return samples
	}
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(float64(s) / peak)
	}
	return out
}

// Gain scales samples by db decibels.
func Gain(samples []float32, db float64) []float32 {
	g := math.Pow(10, db/20)
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(float64(s) * g)
	}
	return out
}

// DCBlock removes DC offset with a one-pole high-pass filter.
func DCBlock(samples []float32, sampleRate int) []float32 {
	if sampleRate <= 0 {
		return samples
	}
	r := math.Exp(-2 * math.Pi * dcCutoffHz / float64(sampleRate))
	out := make([]float32, len(samples))
	var x1, y1 float64
	for i, s := range samples {
		x := float64(s)
		y := x - x1 + r*y1
		out[i] = float32(y)
		x1, y1 = x, y
	}
	return out
}

// FadeIn applies a linear fade-in ramp over the given duration in milliseconds.
func FadeIn(samples []float32, sampleRate int, ms float64) []float32 {
	out := append([]float32(nil), samples...)
	n := min(rampLen(sampleRate, ms), len(out))
	for i := range n {
		out[i] *= float32(i) / float32(n)
	}
	return out
}

// FadeOut applies a linear fade-out ramp over the given duration in milliseconds.
func FadeOut(samples []float32, sampleRate int, ms float64) []float32 {
	out := append([]float32(nil), samples...)
	n := min(rampLen(sampleRate, ms), len(out))
	start := len(out) - n
	for i := range n {
		out[start+i] *= float32(n-1-i) / float32(n)
	}
	return out
}

func rampLen(sampleRate int, ms float64) int {
	if sampleRate <= 0 || ms <= 0 {
		return 0
	}
	return int(ms / 1000 * float64(sampleRate))
}
