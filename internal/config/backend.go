package config

import (
	"fmt"
	"strings"
)

const (
	// BackendHTSEngine runs the hts_engine executable.
	BackendHTSEngine = "hts-engine"
	// BackendNone disables waveform synthesis; only labels are produced.
	BackendNone = "none"
)

func NormalizeBackend(raw string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(raw))
	if backend == "" {
		backend = BackendHTSEngine
	}
	switch backend {
	case BackendHTSEngine, BackendNone:
		return backend, nil
	case "cli", "hts_engine":
		return BackendHTSEngine, nil
	case "labels":
		return BackendNone, nil
	default:
		return "", fmt.Errorf(
			"invalid backend %q (expected %s|%s|cli)",
			raw,
			BackendHTSEngine,
			BackendNone,
		)
	}
}
