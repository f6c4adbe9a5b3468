// Package voicepack downloads .htsvoice files listed in a pack file,
// verifies their checksums and registers them in a voice manifest.
package voicepack

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
)

// Pack is a downloadable set of voices.
type Pack struct {
	Name  string `json:"name"`
	Files []File `json:"files"`
}

// File is one voice in a pack. SHA256 may be empty, in which case the
// checksum comes from the lock file or the server's metadata.
type File struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	SHA256      string `json:"sha256"`
	License     string `json:"license"`
	Description string `json:"description,omitempty"`
}

// LoadPack reads and validates a pack file.
func LoadPack(p string) (Pack, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return Pack{}, fmt.Errorf("read voice pack: %w", err)
	}

	var pack Pack
	if err := json.Unmarshal(data, &pack); err != nil {
		return Pack{}, fmt.Errorf("decode voice pack: %w", err)
	}

	return pack, pack.Validate()
}

// Validate checks that every file is addressable and safe to write.
func (p Pack) Validate() error {
	if len(p.Files) == 0 {
		return errors.New("voice pack lists no files")
	}

	seen := make(map[string]bool, len(p.Files))
	for i, f := range p.Files {
		if f.ID == "" {
			return fmt.Errorf("voice pack file %d: empty id", i)
		}
		if seen[f.ID] {
			return fmt.Errorf("voice pack: duplicate id %q", f.ID)
		}
		seen[f.ID] = true

		if f.URL == "" {
			return fmt.Errorf("voice %q: empty url", f.ID)
		}
		if f.Filename == "" {
			return fmt.Errorf("voice %q: empty filename", f.ID)
		}
		clean := path.Clean(f.Filename)
		if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
			return fmt.Errorf("voice %q: filename %q escapes the output directory", f.ID, f.Filename)
		}
		if f.SHA256 != "" && !isSHA256Hex(f.SHA256) {
			return fmt.Errorf("voice %q: malformed sha256 %q", f.ID, f.SHA256)
		}
	}

	return nil
}
