package bench_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/example/go-jtalk/internal/audio"
	"github.com/example/go-jtalk/internal/bench"
)

const ms = time.Millisecond

func TestComputeStats(t *testing.T) {
	tests := []struct {
		name string
		in   []time.Duration
		want bench.Stats
	}{
		{"none", nil, bench.Stats{}},
		{"single", []time.Duration{150 * ms}, bench.Stats{Min: 150 * ms, Median: 150 * ms, Mean: 150 * ms, Max: 150 * ms}},
		{"odd unsorted", []time.Duration{300 * ms, 100 * ms, 200 * ms}, bench.Stats{Min: 100 * ms, Median: 200 * ms, Mean: 200 * ms, Max: 300 * ms}},
		{"even", []time.Duration{10 * ms, 40 * ms, 20 * ms, 90 * ms}, bench.Stats{Min: 10 * ms, Median: 30 * ms, Mean: 40 * ms, Max: 90 * ms}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bench.ComputeStats(tt.in); got != tt.want {
				t.Fatalf("ComputeStats = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestComputeStats_DoesNotReorderInput(t *testing.T) {
	in := []time.Duration{3 * ms, 1 * ms, 2 * ms}
	bench.ComputeStats(in)
	if in[0] != 3*ms {
		t.Fatalf("input reordered: %v", in)
	}
}

func TestCalcRTF(t *testing.T) {
	if got := bench.CalcRTF(500*ms, time.Second); got < 0.499 || got > 0.501 {
		t.Errorf("CalcRTF = %.4f, want 0.5", got)
	}
	if got := bench.CalcRTF(500*ms, 0); got != 0 {
		t.Errorf("CalcRTF without audio = %.4f, want 0", got)
	}
}

func TestWAVDuration(t *testing.T) {
	for _, rate := range []int{16000, 48000} {
		wav, err := audio.EncodeWAV(audio.PCM{Samples: make([]float32, rate/2), SampleRate: rate})
		if err != nil {
			t.Fatalf("EncodeWAV: %v", err)
		}
		got, err := bench.WAVDuration(wav)
		if err != nil {
			t.Fatalf("WAVDuration: %v", err)
		}
		if got != 500*ms {
			t.Errorf("%d Hz: duration = %v, want 500ms", rate, got)
		}
	}

	for _, bad := range [][]byte{nil, []byte("RIFF"), []byte("RIFF\x00\x00\x00\x00AVI LIST")} {
		if _, err := bench.WAVDuration(bad); err == nil {
			t.Errorf("WAVDuration(%q): want error", bad)
		}
	}
}

func TestCheckRTFThreshold(t *testing.T) {
	tests := []struct {
		rtf, threshold float64
		wantErr        bool
	}{
		{1.5, 1.0, true},
		{0.8, 1.0, false},
		{1.0, 1.0, false},
		{9999, 0, false},
	}
	for _, tt := range tests {
		err := bench.CheckRTFThreshold(tt.rtf, tt.threshold)
		if (err != nil) != tt.wantErr {
			t.Errorf("CheckRTFThreshold(%v, %v) = %v", tt.rtf, tt.threshold, err)
		}
	}
}

func sampleRuns() ([]bench.RunResult, bench.Stats) {
	runs := []bench.RunResult{
		{Index: 0, Cold: true, Duration: 80 * ms, Labels: 42, WAVDuration: time.Second, RTF: 0.08},
		{Index: 1, Duration: 20 * ms, Labels: 42, WAVDuration: time.Second, RTF: 0.02},
	}
	return runs, bench.ComputeStats([]time.Duration{80 * ms, 20 * ms})
}

func TestFormatTable(t *testing.T) {
	runs, stats := sampleRuns()

	var buf strings.Builder
	bench.FormatTable(runs, stats, &buf)
	out := buf.String()

	for _, want := range []string{"Run", "Cold", "Labels", "RTF", "yes", "42", "(median)", "50.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	runs, stats := sampleRuns()

	var buf bytes.Buffer
	bench.FormatJSON(runs, stats, &buf)

	var out struct {
		Runs   []map[string]any   `json:"runs"`
		Stats  map[string]float64 `json:"stats"`
		Stages []any              `json:"stages"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if len(out.Runs) != 2 || out.Runs[0]["cold"] != true {
		t.Errorf("runs = %v", out.Runs)
	}
	if out.Stats["median_ms"] != 50 || out.Stats["max_ms"] != 80 {
		t.Errorf("stats = %v", out.Stats)
	}
	if out.Stages != nil {
		t.Errorf("stages should be omitted, got %v", out.Stages)
	}
}
