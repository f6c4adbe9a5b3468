package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/example/go-jtalk/internal/config"
)

// runCLI executes a fresh root command and restores the loaded config after
// the test.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	orig := activeCfg
	t.Cleanup(func() { activeCfg = orig })

	root := NewRootCmd()

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	return stdout.String(), stderr.String(), err
}

func TestNewRootCmd_HasExpectedSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"synth", "label", "voices", "bench", "serve", "health", "doctor"}
	for _, name := range want {
		found := false

		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}

		if !found {
			t.Errorf("expected subcommand %q not found in root", name)
		}
	}
}

func TestNewRootCmd_HasPersistentFlags(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"config", "backend", "voice", "engine-cli-path", "log-level"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected --%s persistent flag to be registered", name)
		}
	}
}

func TestSetupLogger_DoesNotPanic(_ *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		setupLogger(level)
	}
}

func TestSetupLogger_InvalidLevelFallsBackToInfo(_ *testing.T) {
	setupLogger("not-a-level")
}

func TestRequireConfig_FailsWhenNotInitialized(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.Config{}

	_, err := requireConfig()
	if err == nil {
		t.Fatal("expected error when config is not loaded")
	}
}

func TestRequireConfig_SucceedsWhenLoaded(t *testing.T) {
	orig := activeCfg

	t.Cleanup(func() { activeCfg = orig })

	activeCfg = config.DefaultConfig()

	got, err := requireConfig()
	if err != nil {
		t.Fatalf("requireConfig returned unexpected error: %v", err)
	}

	if got.Engine.Backend != config.BackendHTSEngine {
		t.Errorf("unexpected backend: %q", got.Engine.Backend)
	}
}

func TestRootCmd_LoadsFlagsIntoConfig(t *testing.T) {
	_, _, err := runCLI(t, "", "voices", "--backend", "labels", "--paths-voices-manifest", "/nonexistent/manifest.json")
	if err == nil {
		t.Fatal("expected voices to fail on a missing manifest")
	}

	if activeCfg.Engine.Backend != config.BackendNone {
		t.Errorf("Backend = %q, want alias %q resolved to %q", activeCfg.Engine.Backend, "labels", config.BackendNone)
	}

	if activeCfg.Paths.VoicesManifest != "/nonexistent/manifest.json" {
		t.Errorf("VoicesManifest = %q", activeCfg.Paths.VoicesManifest)
	}
}

func TestRootCmd_BadConfigFile(t *testing.T) {
	_, _, err := runCLI(t, "", "label", "--config", "/nonexistent/jtalk.yaml", "--text", "雨")
	if err == nil || !strings.Contains(err.Error(), "read config file") {
		t.Fatalf("expected config read error, got %v", err)
	}
}
