// Package testutil provides shared helpers for tests that drive the
// synthesis engine.
//
// The Require helpers call t.Skip with a clear human-readable reason when the
// named prerequisite is absent, so integration tests remain runnable in
// partial environments without failing noisily. FakeEngine stands in for
// hts_engine in unit tests.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    testutil.RequireHTSEngine(t)
//	    testutil.RequireVoiceFile(t, "mei-normal")
//	    ...
//	}
package testutil

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/example/go-jtalk/internal/audio"
)

// RequireHTSEngine skips the test if the hts_engine binary is not found in
// PATH or at the path given by the JTALK_ENGINE_CLI_PATH environment variable.
func RequireHTSEngine(tb testing.TB) {
	tb.Helper()

	exe := os.Getenv("JTALK_ENGINE_CLI_PATH")
	if exe == "" {
		exe = "hts_engine"
	}

	_, err := exec.LookPath(exe)
	if err != nil {
		tb.Skipf("hts_engine binary not available (%q not in PATH); set JTALK_ENGINE_CLI_PATH to override", exe)
	}
}

// RequireVoiceFile skips the test if the voice identified by id cannot be
// resolved from voices/manifest.json relative to the current working directory.
func RequireVoiceFile(tb testing.TB, id string) {
	tb.Helper()

	manifestPath := filepath.Join("voices", "manifest.json")

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		tb.Skipf("voice manifest not available at %q: %v", manifestPath, err)
		return
	}

	var m struct {
		Voices []struct {
			ID   string `json:"id"`
			Path string `json:"path"`
		} `json:"voices"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		tb.Skipf("voice manifest %q unreadable: %v", manifestPath, err)
		return
	}
	for _, v := range m.Voices {
		if v.ID != id {
			continue
		}
		p := v.Path
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(manifestPath), p)
		}
		if _, err := os.Stat(p); err != nil {
			tb.Skipf("voice %q not available: %v", id, err)
		}
		return
	}
	tb.Skipf("voice %q not declared in %q", id, manifestPath)
}

// MinimalWAV returns n samples of a quiet ramp as mono 16-bit WAV.
func MinimalWAV(tb testing.TB, sampleRate, n int) []byte {
	tb.Helper()

	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(i%100) / 1000
	}
	data, err := audio.EncodeWAV(audio.PCM{Samples: samples, SampleRate: sampleRate})
	if err != nil {
		tb.Fatalf("encode WAV: %v", err)
	}
	return data
}

// FakeEngine is a shell script that behaves like hts_engine: it copies a
// fixed WAV to the -ow path and records its arguments and the label file.
type FakeEngine struct {
	Path string
	dir  string
}

// NewFakeEngine writes a fake hts_engine that always produces wav.
func NewFakeEngine(tb testing.TB, wav []byte) *FakeEngine {
	tb.Helper()

	dir := tb.TempDir()
	wavFile := filepath.Join(dir, "out.wav")
	if err := os.WriteFile(wavFile, wav, 0o644); err != nil {
		tb.Fatalf("WriteFile wav: %v", err)
	}

	script := "#!/bin/sh\n" +
		"printf '%s\\n' \"$@\" > " + filepath.Join(dir, "args.txt") + "\n" +
		"out=''\nprev=''\n" +
		"for a in \"$@\"; do\n" +
		"  if [ \"$prev\" = '-ow' ]; then out=\"$a\"; fi\n" +
		"  prev=\"$a\"\n" +
		"done\n" +
		"cp \"$prev\" " + filepath.Join(dir, "labels.lab") + "\n" +
		"cp " + wavFile + " \"$out\"\n"

	path := filepath.Join(dir, "hts_engine")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		tb.Fatalf("WriteFile script: %v", err)
	}
	return &FakeEngine{Path: path, dir: dir}
}

// Args returns the arguments of the last invocation.
func (f *FakeEngine) Args(tb testing.TB) []string {
	tb.Helper()
	return f.lines(tb, "args.txt")
}

// Labels returns the label file passed to the last invocation.
func (f *FakeEngine) Labels(tb testing.TB) []string {
	tb.Helper()
	return f.lines(tb, "labels.lab")
}

func (f *FakeEngine) lines(tb testing.TB, name string) []string {
	tb.Helper()
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		tb.Fatalf("fake engine was not run: %v", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

// FailingEngine writes a fake hts_engine that prints stderr and exits with
// code.
func FailingEngine(tb testing.TB, stderr string, code int) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "hts_engine")
	script := "#!/bin/sh\necho '" + stderr + "' >&2\nexit " + strconv.Itoa(code) + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		tb.Fatalf("WriteFile script: %v", err)
	}
	return path
}
