package bench_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/go-jtalk/internal/bench"
	"github.com/example/go-jtalk/internal/frontend"
)

var _ frontend.Observer = bench.NewStageRecorder().Observe

func TestStageRecorder_AggregatesInOrder(t *testing.T) {
	r := bench.NewStageRecorder()
	r.Observe("tokenize", 2*time.Millisecond)
	r.Observe("import", time.Millisecond)
	r.Observe("tokenize", 4*time.Millisecond)

	got := r.Summaries()
	if len(got) != 2 {
		t.Fatalf("got %d summaries; want 2", len(got))
	}
	if got[0].Name != "tokenize" || got[1].Name != "import" {
		t.Errorf("order = %s, %s; want tokenize, import", got[0].Name, got[1].Name)
	}
	tok := got[0]
	if tok.Calls != 2 || tok.Total != 6*time.Millisecond || tok.Max != 4*time.Millisecond {
		t.Errorf("tokenize = %+v", tok)
	}
	if tok.Mean() != 3*time.Millisecond {
		t.Errorf("Mean = %v; want 3ms", tok.Mean())
	}
}

func TestStageRecorder_Reset(t *testing.T) {
	r := bench.NewStageRecorder()
	r.Observe("compile", time.Millisecond)
	r.Reset()

	if got := r.Summaries(); len(got) != 0 {
		t.Errorf("Summaries after Reset = %v; want empty", got)
	}
}

func TestStageRecorder_Concurrent(t *testing.T) {
	r := bench.NewStageRecorder()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				r.Observe("digit", time.Microsecond)
			}
		}()
	}
	wg.Wait()

	if got := r.Summaries()[0].Calls; got != 800 {
		t.Errorf("Calls = %d; want 800", got)
	}
}

func TestStageSummary_MeanZeroCalls(t *testing.T) {
	if got := (bench.StageSummary{}).Mean(); got != 0 {
		t.Errorf("Mean = %v; want 0", got)
	}
}

func TestFormatStageTable(t *testing.T) {
	stages := []bench.StageSummary{
		{Name: "tokenize", Calls: 1, Total: 3 * time.Millisecond, Max: 3 * time.Millisecond},
		{Name: "compile", Calls: 1, Total: time.Millisecond, Max: time.Millisecond},
	}

	var buf strings.Builder
	bench.FormatStageTable(stages, &buf)
	out := buf.String()

	for _, want := range []string{"Stage", "tokenize", "compile", "75.0%", "25.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("stage table missing %q:\n%s", want, out)
		}
	}
}

func TestFormatJSON_IncludesStages(t *testing.T) {
	runs := []bench.RunResult{{Index: 0, Cold: true, Duration: time.Millisecond, Labels: 12}}
	stats := bench.ComputeStats([]time.Duration{time.Millisecond})
	stages := []bench.StageSummary{{Name: "accent_type", Calls: 2, Total: 4 * time.Millisecond}}

	var buf bytes.Buffer
	bench.FormatJSON(runs, stats, &buf, stages...)

	var out struct {
		Runs []struct {
			Labels int `json:"labels"`
		} `json:"runs"`
		Stages []struct {
			Name   string  `json:"name"`
			Calls  int     `json:"calls"`
			MeanUS float64 `json:"mean_us"`
		} `json:"stages"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Runs[0].Labels != 12 {
		t.Errorf("labels = %d; want 12", out.Runs[0].Labels)
	}
	if len(out.Stages) != 1 || out.Stages[0].Name != "accent_type" || out.Stages[0].MeanUS != 2000 {
		t.Errorf("stages = %+v", out.Stages)
	}
}
