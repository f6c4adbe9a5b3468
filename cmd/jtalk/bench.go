package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/example/go-jtalk/internal/bench"
	"github.com/example/go-jtalk/internal/config"
	"github.com/example/go-jtalk/internal/engine"
	"github.com/example/go-jtalk/internal/tts"
	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	var (
		text         string
		runs         int
		format       string
		rtfThreshold float64
		labelsOnly   bool
		cpuProfile   string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark front-end stages, synthesis latency and realtime factor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("--text is required for bench")
			}
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			backend, err := config.NormalizeBackend(cfg.Engine.Backend)
			if err != nil {
				return err
			}
			if backend == config.BackendNone {
				labelsOnly = true
			}

			rec := bench.NewStageRecorder()
			svc, err := tts.NewService(cfg,
				tts.WithObserver(rec.Observe),
				tts.WithLogger(slog.Default()),
			)
			if err != nil {
				return err
			}

			if cpuProfile != "" {
				stop, err := startCPUProfile(cpuProfile)
				if err != nil {
					return err
				}
				defer stop()
			}

			results, err := runBench(cmd.Context(), svc, benchOptions{
				Text:       text,
				Runs:       runs,
				LabelsOnly: labelsOnly,
				Recorder:   rec,
				Warn:       cmd.ErrOrStderr(),
			})
			if err != nil {
				return engine.Explain(err)
			}

			durations := make([]time.Duration, len(results))
			for i, r := range results {
				durations[i] = r.Duration
			}
			stats := bench.ComputeStats(durations)
			stages := rec.Summaries()

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				bench.FormatJSON(results, stats, out, stages...)
			default:
				bench.FormatTable(results, stats, out)
				_, _ = fmt.Fprintln(out)
				bench.FormatStageTable(stages, out)
			}

			if labelsOnly {
				return nil
			}

			var totalRTF float64
			for _, r := range results {
				totalRTF += r.RTF
			}
			meanRTF := totalRTF / float64(len(results))

			return bench.CheckRTFThreshold(meanRTF, rtfThreshold)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to process for each run (required)")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of runs")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&rtfThreshold, "rtf-threshold", 0, "Exit non-zero if mean RTF exceeds this value (0 = disabled)")
	cmd.Flags().BoolVar(&labelsOnly, "labels-only", false, "Benchmark the front-end only, without hts_engine")
	cmd.Flags().StringVar(&cpuProfile, "cpuprofile", "", "Write a CPU profile of the runs to this file")

	return cmd
}

// benchTarget is the part of tts.Service the benchmark drives.
type benchTarget interface {
	Labels(ctx context.Context, input string) ([]string, error)
	Synthesize(ctx context.Context, input, voice string) ([]byte, error)
}

type benchOptions struct {
	Text       string
	Runs       int
	LabelsOnly bool
	Recorder   *bench.StageRecorder
	Warn       io.Writer
}

func runBench(ctx context.Context, target benchTarget, opts benchOptions) ([]bench.RunResult, error) {
	// One untimed pass for the label count; stage timings start clean after it.
	labels, err := target.Labels(ctx, opts.Text)
	if err != nil {
		return nil, err
	}
	if opts.Recorder != nil {
		opts.Recorder.Reset()
	}

	warn := opts.Warn
	if warn == nil {
		warn = io.Discard
	}

	results := make([]bench.RunResult, 0, opts.Runs)

	for i := range opts.Runs {
		res := bench.RunResult{Index: i, Cold: i == 0, Labels: len(labels)}

		var wavBytes []byte
		start := time.Now()
		if opts.LabelsOnly {
			_, err = target.Labels(ctx, opts.Text)
		} else {
			wavBytes, err = target.Synthesize(ctx, opts.Text, "")
		}
		res.Duration = time.Since(start)
		if err != nil {
			return nil, fmt.Errorf("run %d failed: %w", i+1, err)
		}

		if !opts.LabelsOnly {
			res.WAVDuration, err = bench.WAVDuration(wavBytes)
			if err != nil {
				// Non-fatal: continue with zero audio duration.
				_, _ = fmt.Fprintf(warn, "warn: run %d: could not parse WAV duration: %v\n", i+1, err)
			}
		}
		res.RTF = bench.CalcRTF(res.Duration, res.WAVDuration)

		results = append(results, res)
	}

	return results, nil
}

func startCPUProfile(path string) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create cpu profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("start cpu profile: %w", err)
	}
	return func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	}, nil
}
