package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/example/go-jtalk/internal/config"
	"github.com/example/go-jtalk/internal/doctor"
	"github.com/example/go-jtalk/internal/engine"
	"github.com/example/go-jtalk/internal/tokenizer"
	"github.com/example/go-jtalk/internal/tts"
	"github.com/spf13/cobra"
)

const probeSentence = "今日は良い天気です。"

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local engine, voice and dictionary checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			return runDoctor(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	return cmd
}

func runDoctor(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) error {
	backend, err := config.NormalizeBackend(cfg.Engine.Backend)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "backend: %s\n", backend)

	exe := cfg.Engine.CLIPath
	if exe == "" {
		exe = engine.DefaultExecutable
	}

	dcfg := doctor.Config{
		EngineVersion: func() (string, error) {
			return probeEngineVersion(ctx, exe)
		},
		SkipEngine:         backend == config.BackendNone,
		VoiceFiles:         collectVoiceFiles(cfg.Paths.VoicesManifest),
		ValidateVoice:      doctor.ValidateHTSVoice,
		AccentLexiconPath:  cfg.Paths.AccentLexicon,
		UserDictionaryPath: cfg.Paths.UserDictionary,
		LoadLexicon: func(path string) error {
			_, err := tokenizer.LoadLexicon(path)
			return err
		},
		FrontendProbe: func() (int, error) {
			return probeFrontend(ctx, cfg)
		},
	}

	result := doctor.Run(dcfg, stdout)

	if result.Failed() {
		for _, f := range result.Failures() {
			// #nosec G705 -- Writes plain diagnostic text to stderr for CLI output, not HTML rendering.
			_, _ = fmt.Fprintf(stderr, "FAIL: %s\n", f)
		}

		return errors.New("doctor checks failed")
	}

	_, _ = fmt.Fprintln(stdout, "doctor checks passed")

	return nil
}

// probeEngineVersion runs hts_engine without arguments and reads the version
// from its usage banner. hts_engine exits non-zero after printing usage on
// some builds, so the exit status alone is not an error.
func probeEngineVersion(ctx context.Context, exe string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, exe).CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("%s: %w", exe, err)
		}
	}

	return doctor.ParseEngineVersion(string(out))
}

// probeFrontend runs a fixed sentence through the labels-only pipeline.
func probeFrontend(ctx context.Context, cfg config.Config) (int, error) {
	cfg.Engine.Backend = config.BackendNone

	svc, err := tts.NewService(cfg)
	if err != nil {
		return 0, err
	}

	labels, err := svc.Labels(ctx, probeSentence)
	if err != nil {
		return 0, err
	}

	return len(labels), nil
}

// collectVoiceFiles returns resolved absolute voice file paths from the
// manifest. Paths are resolved relative to the manifest directory, not to the
// working directory, so doctor checks are correct regardless of CWD.
func collectVoiceFiles(manifest string) []string {
	if _, err := os.Stat(manifest); err != nil {
		return nil
	}

	vm, err := tts.NewVoiceManager(manifest)
	if err != nil {
		return nil
	}

	voices := vm.ListVoices()

	paths := make([]string, 0, len(voices))
	for _, v := range voices {
		resolved, err := vm.ResolvePath(v.ID)
		if err != nil {
			paths = append(paths, v.Path)
			continue
		}

		abs, err := filepath.Abs(resolved)
		if err == nil {
			resolved = abs
		}

		paths = append(paths, resolved)
	}

	return paths
}
