package bench

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// StageSummary aggregates the timings of one front-end stage.
type StageSummary struct {
	Name  string
	Calls int
	Total time.Duration
	Max   time.Duration
}

// Mean returns the average time per call.
func (s StageSummary) Mean() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Calls)
}

// StageRecorder collects stage timings. Its Observe method matches
// frontend.Observer and is safe for concurrent use.
type StageRecorder struct {
	mu    sync.Mutex
	order []string
	byKey map[string]*StageSummary
}

func NewStageRecorder() *StageRecorder {
	return &StageRecorder{byKey: make(map[string]*StageSummary)}
}

func (r *StageRecorder) Observe(stage string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byKey[stage]
	if !ok {
		s = &StageSummary{Name: stage}
		r.byKey[stage] = s
		r.order = append(r.order, stage)
	}
	s.Calls++
	s.Total += d
	if d > s.Max {
		s.Max = d
	}
}

// Reset discards everything recorded so far.
func (r *StageRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.byKey = make(map[string]*StageSummary)
}

// Summaries returns one summary per stage in first-seen order.
func (r *StageRecorder) Summaries() []StageSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]StageSummary, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.byKey[name])
	}
	return out
}

// FormatStageTable writes per-stage timings with each stage's share of the
// total front-end time.
func FormatStageTable(stages []StageSummary, w io.Writer) {
	var total time.Duration
	for _, s := range stages {
		total += s.Total
	}

	sb := &strings.Builder{}
	fmt.Fprintf(sb, "%-14s  %6s  %10s  %10s  %10s  %6s\n", "Stage", "Calls", "Total(ms)", "Mean(us)", "Max(us)", "Share")
	fmt.Fprintln(sb, strings.Repeat("-", 66))
	for _, s := range stages {
		share := 0.0
		if total > 0 {
			share = 100 * float64(s.Total) / float64(total)
		}
		fmt.Fprintf(sb, "%-14s  %6d  %10.2f  %10.1f  %10.1f  %5.1f%%\n",
			s.Name,
			s.Calls,
			float64(s.Total.Microseconds())/1000,
			float64(s.Mean().Nanoseconds())/1000,
			float64(s.Max.Nanoseconds())/1000,
			share,
		)
	}
	fmt.Fprint(w, sb.String())
}
