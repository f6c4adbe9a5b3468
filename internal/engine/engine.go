// Package engine drives the waveform synthesizer that consumes labels.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/go-jtalk/internal/label"
)

// DefaultExecutable is the synthesizer binary looked up in PATH.
const DefaultExecutable = "hts_engine"

var (
	ErrNoVoice  = errors.New("no voice file given")
	ErrNoLabels = errors.New("no labels to synthesize")
)

// Engine turns full-context labels into WAV audio.
type Engine interface {
	// LabelFormat names the label layout the engine consumes.
	LabelFormat() string
	Synthesize(ctx context.Context, labels []string, voice string) ([]byte, error)
}

// Params are the synthesis overrides passed to hts_engine. Zero values leave
// the voice's own setting in place.
type Params struct {
	SamplingRate int     // -s
	FramePeriod  int     // -p
	Alpha        float64 // -a, all-pass constant
	Beta         float64 // -b, postfilter coefficient
	Speed        float64 // -r
	HalfTone     float64 // -fm
	Threshold    float64 // -u, voiced/unvoiced
	GVSpectrum   float64 // -jm
	GVLogF0      float64 // -jf
	Volume       float64 // -g, dB
}

// Args renders the non-zero parameters as command line flags.
func (p Params) Args() []string {
	var args []string
	addInt := func(flag string, v int) {
		if v != 0 {
			args = append(args, flag, strconv.Itoa(v))
		}
	}
	addFloat := func(flag string, v float64) {
		if v != 0 {
			args = append(args, flag, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	addInt("-s", p.SamplingRate)
	addInt("-p", p.FramePeriod)
	addFloat("-a", p.Alpha)
	addFloat("-b", p.Beta)
	addFloat("-r", p.Speed)
	addFloat("-fm", p.HalfTone)
	addFloat("-u", p.Threshold)
	addFloat("-jm", p.GVSpectrum)
	addFloat("-jf", p.GVLogF0)
	addFloat("-g", p.Volume)
	return args
}

// CLI runs the hts_engine executable once per utterance.
type CLI struct {
	Path   string
	Params Params
	// Stderr, if set, also receives the engine's diagnostics.
	Stderr io.Writer
	// TempDir holds per-call scratch directories; empty means os.TempDir.
	TempDir string
}

// NewCLI returns an engine running the executable at path.
func NewCLI(path string, p Params) *CLI {
	return &CLI{Path: path, Params: p}
}

// LabelFormat implements Engine.
func (c *CLI) LabelFormat() string { return label.Format }

func (c *CLI) executable() string {
	if strings.TrimSpace(c.Path) == "" {
		return DefaultExecutable
	}
	return c.Path
}

// LookPath resolves the executable.
func (c *CLI) LookPath() (string, error) {
	return exec.LookPath(c.executable())
}

// Synthesize writes labels to a scratch file, runs the engine and returns the
// WAV it produced.
func (c *CLI) Synthesize(ctx context.Context, labels []string, voice string) ([]byte, error) {
	if strings.TrimSpace(voice) == "" {
		return nil, ErrNoVoice
	}
	if len(labels) == 0 {
		return nil, ErrNoLabels
	}

	dir, err := os.MkdirTemp(c.TempDir, "jtalk-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }() // best-effort cleanup

	labPath := filepath.Join(dir, "in.lab")
	if err := os.WriteFile(labPath, []byte(strings.Join(labels, "\n")+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("write labels: %w", err)
	}
	outPath := filepath.Join(dir, "out.wav")

	args := []string{"-m", voice, "-ow", outPath}
	args = append(args, c.Params.Args()...)
	args = append(args, labPath)

	cmd := exec.CommandContext(ctx, c.executable(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if c.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, c.Stderr)
	}
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &RunError{Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}

	wav, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read engine output: %w", err)
	}
	return wav, nil
}

// RunError is a failed engine invocation.
type RunError struct {
	Err    error
	Stderr string
}

func (e *RunError) Error() string {
	if e.Stderr == "" {
		return "hts_engine: " + e.Err.Error()
	}
	return "hts_engine: " + e.Err.Error() + ": " + e.Stderr
}

func (e *RunError) Unwrap() error { return e.Err }

// Explain adds an operator hint to common engine failures.
func Explain(err error) error {
	var runErr *RunError
	if errors.Is(err, exec.ErrNotFound) || (errors.As(err, &runErr) && errors.Is(runErr.Err, fs.ErrNotExist)) {
		return fmt.Errorf("synth failed: hts_engine executable not found; set --engine-cli-path or JTALK_ENGINE_CLI_PATH: %w", err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("synth failed: hts_engine returned non-zero exit: %w", err)
	}

	return err
}
