package tts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Voice is one .htsvoice file declared in the manifest.
type Voice struct {
	ID          string `json:"id"`
	Path        string `json:"path"`
	License     string `json:"license"`
	Description string `json:"description,omitempty"`
}

// Manifest is the on-disk voice list. Relative paths are resolved against
// the manifest's directory.
type Manifest struct {
	Voices []Voice `json:"voices"`
}

// ReadManifest decodes the manifest at path.
func ReadManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("read voice manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode voice manifest: %w", err)
	}
	return m, nil
}

// WriteManifest writes m as indented JSON.
func WriteManifest(path string, m Manifest) error {
	if m.Voices == nil {
		m.Voices = []Voice{}
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write voice manifest: %w", err)
	}
	return nil
}

// Upsert replaces the voice with v.ID or appends v.
func (m *Manifest) Upsert(v Voice) {
	for i := range m.Voices {
		if m.Voices[i].ID == v.ID {
			m.Voices[i] = v
			return
		}
	}
	m.Voices = append(m.Voices, v)
}

// Validate rejects empty ids, empty paths and duplicate ids.
func (m Manifest) Validate() error {
	seen := make(map[string]struct{}, len(m.Voices))
	for i, v := range m.Voices {
		switch {
		case v.ID == "":
			return fmt.Errorf("voice %d: empty id", i+1)
		case v.Path == "":
			return fmt.Errorf("voice %q has empty path", v.ID)
		}
		if _, dup := seen[v.ID]; dup {
			return fmt.Errorf("duplicate voice id %q", v.ID)
		}
		seen[v.ID] = struct{}{}
	}
	return nil
}

// VoiceManager answers id lookups against a loaded manifest.
type VoiceManager struct {
	dir    string
	voices []Voice
	byID   map[string]int
}

func NewVoiceManager(manifestPath string) (*VoiceManager, error) {
	if manifestPath == "" {
		return nil, errors.New("manifest path is required")
	}
	m, err := ReadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("voice manifest %s: %w", manifestPath, err)
	}

	vm := &VoiceManager{
		dir:    filepath.Dir(manifestPath),
		voices: m.Voices,
		byID:   make(map[string]int, len(m.Voices)),
	}
	for i, v := range m.Voices {
		vm.byID[v.ID] = i
	}
	return vm, nil
}

// ListVoices returns a copy of the manifest entries in file order.
func (m *VoiceManager) ListVoices() []Voice {
	return append([]Voice(nil), m.voices...)
}

// Has reports whether id is declared in the manifest.
func (m *VoiceManager) Has(id string) bool {
	_, ok := m.byID[id]
	return ok
}

// ResolvePath returns the voice file for id. The file must exist.
func (m *VoiceManager) ResolvePath(id string) (string, error) {
	i, ok := m.byID[id]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownVoice, id)
	}

	p := m.voices[i].Path
	if !filepath.IsAbs(p) {
		p = filepath.Join(m.dir, p)
	}
	p = filepath.Clean(p)

	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("voice file for %q: %w", id, err)
	}
	return p, nil
}
