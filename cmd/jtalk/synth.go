package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/example/go-jtalk/internal/audio"
	"github.com/example/go-jtalk/internal/config"
	"github.com/example/go-jtalk/internal/engine"
	"github.com/example/go-jtalk/internal/tts"
	"github.com/spf13/cobra"
)

func newSynthCmd() *cobra.Command {
	var text string
	var out string
	var normalize bool
	var dcBlock bool
	var gainDB float64
	var fadeInMS float64
	var fadeOutMS float64

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize Japanese text to WAV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			inputText, err := readSynthText(text, cmd.InOrStdin())
			if err != nil {
				return err
			}

			hooks := buildHooks(synthDSPOptions{
				Normalize:  normalize,
				DCBlock:    dcBlock,
				GainDB:     gainDB,
				FadeInMS:   fadeInMS,
				FadeOutMS:  fadeOutMS,
				SampleRate: cfg.Engine.SamplingRate,
			})

			result, err := synthesize(cmd.Context(), cfg, inputText, hooks, cmd.ErrOrStderr())
			if err != nil {
				return engine.Explain(err)
			}

			return writeSynthOutput(out, result, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to synthesize (if empty, read from stdin)")
	cmd.Flags().StringVar(&out, "out", "out.wav", "Output WAV path ('-' for stdout)")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Peak-normalize output audio")
	cmd.Flags().BoolVar(&dcBlock, "dc-block", false, "Apply DC-block high-pass filter")
	cmd.Flags().Float64Var(&gainDB, "gain-db", 0, "Apply gain in decibels")
	cmd.Flags().Float64Var(&fadeInMS, "fade-in-ms", 0, "Apply linear fade-in duration in milliseconds")
	cmd.Flags().Float64Var(&fadeOutMS, "fade-out-ms", 0, "Apply linear fade-out duration in milliseconds")

	return cmd
}

type synthDSPOptions struct {
	Normalize  bool
	DCBlock    bool
	GainDB     float64
	FadeInMS   float64
	FadeOutMS  float64
	SampleRate int
}

// buildHooks turns DSP flags into post-synthesis hooks, in the order
// DC block, gain, normalize, fades.
func buildHooks(opts synthDSPOptions) []audio.Hook {
	rate := opts.SampleRate
	if rate <= 0 {
		rate = audio.DefaultSampleRate
	}

	var hooks []audio.Hook
	if opts.DCBlock {
		hooks = append(hooks, func(s []float32) []float32 { return audio.DCBlock(s, rate) })
	}
	if opts.GainDB != 0 {
		db := opts.GainDB
		hooks = append(hooks, func(s []float32) []float32 { return audio.Gain(s, db) })
	}
	if opts.Normalize {
		hooks = append(hooks, audio.PeakNormalize)
	}
	if opts.FadeInMS > 0 {
		ms := opts.FadeInMS
		hooks = append(hooks, func(s []float32) []float32 { return audio.FadeIn(s, rate, ms) })
	}
	if opts.FadeOutMS > 0 {
		ms := opts.FadeOutMS
		hooks = append(hooks, func(s []float32) []float32 { return audio.FadeOut(s, rate, ms) })
	}
	return hooks
}

// synthesize builds a service for one invocation. The engine's stderr goes
// to stderr so hts_engine diagnostics reach the user.
func synthesize(
	ctx context.Context,
	cfg config.Config,
	input string,
	hooks []audio.Hook,
	stderr io.Writer,
) ([]byte, error) {
	backend, err := config.NormalizeBackend(cfg.Engine.Backend)
	if err != nil {
		return nil, err
	}
	if backend != config.BackendHTSEngine {
		return nil, fmt.Errorf("synth requires backend %q, got %q", config.BackendHTSEngine, backend)
	}

	cli := engine.NewCLI(cfg.Engine.CLIPath, tts.EngineParams(cfg.Engine))
	cli.Stderr = stderr

	svc, err := tts.NewService(cfg,
		tts.WithEngine(cli),
		tts.WithHooks(hooks...),
		tts.WithLogger(slog.Default()),
	)
	if err != nil {
		return nil, err
	}

	return svc.Synthesize(ctx, input, "")
}

func writeSynthOutput(outPath string, wavData []byte, stdout io.Writer) error {
	if outPath == "-" {
		if stdout == nil {
			return fmt.Errorf("stdout writer is nil")
		}
		_, err := stdout.Write(wavData)
		return err
	}
	return os.WriteFile(outPath, wavData, 0o644)
}

func readSynthText(text string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}
	if stdin == nil {
		return "", fmt.Errorf("either provide --text or pipe text on stdin")
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	input := strings.TrimSpace(string(b))
	if input == "" {
		return "", fmt.Errorf("either provide --text or pipe text on stdin")
	}
	return input, nil
}
