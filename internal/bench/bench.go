// Package bench aggregates and reports timings for the jtalk bench command.
package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/example/go-jtalk/internal/audio"
)

// RunResult is one timed pass over the bench text.
type RunResult struct {
	Index       int
	Cold        bool // first run
	Duration    time.Duration
	Labels      int
	WAVDuration time.Duration // zero in labels-only runs
	RTF         float64
}

// Stats summarises run durations.
type Stats struct {
	Min    time.Duration
	Median time.Duration
	Mean   time.Duration
	Max    time.Duration
}

// ComputeStats returns the zero Stats for no durations.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	sorted := slices.Clone(durations)
	slices.Sort(sorted)

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return Stats{
		Min:    sorted[0],
		Median: median,
		Mean:   sum / time.Duration(n),
		Max:    sorted[n-1],
	}
}

// CalcRTF returns the real-time factor, synthesis time over audio time, or
// 0 when there is no audio.
func CalcRTF(synthDur, audioDur time.Duration) float64 {
	if audioDur <= 0 {
		return 0
	}
	return float64(synthDur) / float64(audioDur)
}

// WAVDuration decodes wav and returns its playback length.
func WAVDuration(wav []byte) (time.Duration, error) {
	pcm, err := audio.DecodeWAV(wav)
	if err != nil {
		return 0, err
	}
	if pcm.SampleRate <= 0 {
		return 0, fmt.Errorf("invalid sample rate %d", pcm.SampleRate)
	}
	return pcm.Duration(), nil
}

// CheckRTFThreshold fails when meanRTF exceeds threshold. A threshold of 0
// or less disables the check.
func CheckRTFThreshold(meanRTF, threshold float64) error {
	if threshold <= 0 || meanRTF <= threshold {
		return nil
	}
	return fmt.Errorf("mean RTF %.3f exceeds threshold %.3f", meanRTF, threshold)
}

func ms(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }

// FormatTable writes runs and stats as a fixed-width table.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	const width = 57
	var sb strings.Builder

	fmt.Fprintf(&sb, "%-5s  %-5s  %10s  %7s  %12s  %8s\n", "Run", "Cold", "MS", "Labels", "Audio(ms)", "RTF")
	sb.WriteString(strings.Repeat("-", width) + "\n")
	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(&sb, "%-5d  %-5s  %10.1f  %7d  %12.1f  %8.3f\n",
			r.Index+1, cold, ms(r.Duration), r.Labels, ms(r.WAVDuration), r.RTF)
	}
	sb.WriteString(strings.Repeat("-", width) + "\n")
	for _, row := range []struct {
		name string
		d    time.Duration
	}{{"min", stats.Min}, {"median", stats.Median}, {"mean", stats.Mean}, {"max", stats.Max}} {
		fmt.Fprintf(&sb, "%-5s  %-5s  %10.1f  (%s)\n", "", "", ms(row.d), row.name)
	}

	_, _ = io.WriteString(w, sb.String())
}

type jsonReport struct {
	Runs   []jsonRun   `json:"runs"`
	Stats  jsonStats   `json:"stats"`
	Stages []jsonStage `json:"stages,omitempty"`
}

type jsonRun struct {
	Index      int     `json:"index"`
	Cold       bool    `json:"cold"`
	DurationMS float64 `json:"duration_ms"`
	Labels     int     `json:"labels"`
	AudioMS    float64 `json:"audio_ms"`
	RTF        float64 `json:"rtf"`
}

type jsonStats struct {
	MinMS    float64 `json:"min_ms"`
	MedianMS float64 `json:"median_ms"`
	MeanMS   float64 `json:"mean_ms"`
	MaxMS    float64 `json:"max_ms"`
}

type jsonStage struct {
	Name    string  `json:"name"`
	Calls   int     `json:"calls"`
	TotalMS float64 `json:"total_ms"`
	MeanUS  float64 `json:"mean_us"`
}

// FormatJSON writes an indented JSON report with optional per-stage timings.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer, stages ...StageSummary) {
	jr := jsonReport{
		Runs: make([]jsonRun, 0, len(runs)),
		Stats: jsonStats{
			MinMS:    ms(stats.Min),
			MedianMS: ms(stats.Median),
			MeanMS:   ms(stats.Mean),
			MaxMS:    ms(stats.Max),
		},
	}
	for _, r := range runs {
		jr.Runs = append(jr.Runs, jsonRun{
			Index:      r.Index,
			Cold:       r.Cold,
			DurationMS: ms(r.Duration),
			Labels:     r.Labels,
			AudioMS:    ms(r.WAVDuration),
			RTF:        r.RTF,
		})
	}
	for _, st := range stages {
		jr.Stages = append(jr.Stages, jsonStage{
			Name:    st.Name,
			Calls:   st.Calls,
			TotalMS: ms(st.Total),
			MeanUS:  float64(st.Mean().Nanoseconds()) / 1000,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(jr)
}
