// Package doctor provides environment preflight checks for jtalk.
package doctor

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// EngineVersion returns the hts_engine version (e.g. "1.10").
	EngineVersion VersionFunc
	// SkipEngine skips the hts_engine check (labels-only backend).
	SkipEngine bool
	// VoiceFiles is the list of .htsvoice paths to verify on disk.
	VoiceFiles []string
	// ValidateVoice, if set, is run on every voice file that exists.
	ValidateVoice func(path string) error
	// AccentLexiconPath and UserDictionaryPath are optional data files.
	AccentLexiconPath  string
	UserDictionaryPath string
	// LoadLexicon, if set, parses AccentLexiconPath.
	LoadLexicon func(path string) error
	// FrontendProbe runs one sentence through the front-end and returns the
	// number of labels produced.
	FrontendProbe func() (int, error)
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- hts_engine binary ------------------------------------------------
	switch {
	case cfg.SkipEngine:
		fmt.Fprintf(w, "%s hts_engine binary: skipped\n", PassMark)
	case cfg.EngineVersion == nil:
		res.fail("hts_engine binary: no version probe configured")
		fmt.Fprintf(w, "%s hts_engine binary: no version probe configured\n", FailMark)
	default:
		ver, err := cfg.EngineVersion()
		if err != nil {
			res.fail(fmt.Sprintf("hts_engine binary: %v", err))
			fmt.Fprintf(w, "%s hts_engine binary: not found (%v)\n", FailMark, err)
		} else if verErr := checkEngineVersion(ver); verErr != nil {
			res.fail(fmt.Sprintf("hts_engine version: %v", verErr))
			fmt.Fprintf(w, "%s hts_engine version %s: %v\n", FailMark, ver, verErr)
		} else {
			fmt.Fprintf(w, "%s hts_engine binary: %s\n", PassMark, ver)
		}
	}

	// ---- voice files ------------------------------------------------------
	for _, path := range cfg.VoiceFiles {
		if _, err := os.Stat(path); err != nil {
			res.fail(fmt.Sprintf("voice file %q: %v", path, err))
			fmt.Fprintf(w, "%s voice file %s: not found\n", FailMark, path)
			continue
		}
		fmt.Fprintf(w, "%s voice file: %s\n", PassMark, path)

		if cfg.ValidateVoice != nil {
			if err := cfg.ValidateVoice(path); err != nil {
				res.fail(fmt.Sprintf("voice validation %q: %v", path, err))
				fmt.Fprintf(w, "%s voice validation: %v\n", FailMark, err)
			} else {
				fmt.Fprintf(w, "%s voice validation: ok\n", PassMark)
			}
		}
	}

	// ---- accent lexicon ---------------------------------------------------
	if cfg.AccentLexiconPath != "" {
		switch _, err := os.Stat(cfg.AccentLexiconPath); {
		case err != nil:
			res.fail(fmt.Sprintf("accent lexicon %q: %v", cfg.AccentLexiconPath, err))
			fmt.Fprintf(w, "%s accent lexicon %s: not found\n", FailMark, cfg.AccentLexiconPath)
		case cfg.LoadLexicon != nil:
			if err := cfg.LoadLexicon(cfg.AccentLexiconPath); err != nil {
				res.fail(fmt.Sprintf("accent lexicon %q: %v", cfg.AccentLexiconPath, err))
				fmt.Fprintf(w, "%s accent lexicon %s: %v\n", FailMark, cfg.AccentLexiconPath, err)
			} else {
				fmt.Fprintf(w, "%s accent lexicon: %s\n", PassMark, cfg.AccentLexiconPath)
			}
		default:
			fmt.Fprintf(w, "%s accent lexicon: %s\n", PassMark, cfg.AccentLexiconPath)
		}
	}

	// ---- user dictionary --------------------------------------------------
	if cfg.UserDictionaryPath != "" {
		if _, err := os.Stat(cfg.UserDictionaryPath); err != nil {
			res.fail(fmt.Sprintf("user dictionary %q: %v", cfg.UserDictionaryPath, err))
			fmt.Fprintf(w, "%s user dictionary %s: not found\n", FailMark, cfg.UserDictionaryPath)
		} else {
			fmt.Fprintf(w, "%s user dictionary: %s\n", PassMark, cfg.UserDictionaryPath)
		}
	}

	// ---- front-end --------------------------------------------------------
	if cfg.FrontendProbe != nil {
		n, err := cfg.FrontendProbe()
		switch {
		case err != nil:
			res.fail(fmt.Sprintf("front-end: %v", err))
			fmt.Fprintf(w, "%s front-end: %v\n", FailMark, err)
		case n == 0:
			res.fail("front-end: no labels produced")
			fmt.Fprintf(w, "%s front-end: no labels produced\n", FailMark)
		default:
			fmt.Fprintf(w, "%s front-end: %d labels\n", PassMark, n)
		}
	}

	return res
}

// checkEngineVersion returns an error if ver is not a 1.x release from 1.07
// on, the first to read .htsvoice files.
func checkEngineVersion(ver string) error {
	major, minor, err := parseMajorMinor(ver)
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", ver, err)
	}
	if major != 1 {
		return fmt.Errorf("requires hts_engine 1.x, got %d", major)
	}
	if minor < 7 {
		return fmt.Errorf("requires hts_engine >=1.07, got 1.%02d", minor)
	}
	return nil
}

func parseMajorMinor(ver string) (major, minor int, err error) {
	parts := strings.SplitN(ver, ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("unexpected version format %q", ver)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad major in %q: %w", ver, err)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad minor in %q: %w", ver, err)
	}
	return major, minor, nil
}

var engineVersionRe = regexp.MustCompile(`Engine\s+"?(\d+\.\d+)"?`)

// ParseEngineVersion extracts the version from hts_engine's usage banner,
// e.g. `The HMM-Based Speech Synthesis Engine "1.10"`.
func ParseEngineVersion(banner string) (string, error) {
	m := engineVersionRe.FindStringSubmatch(banner)
	if m == nil {
		return "", fmt.Errorf("no version in hts_engine output")
	}
	return m[1], nil
}

// ValidateHTSVoice checks that path starts with the [GLOBAL] section every
// .htsvoice file opens with.
func ValidateHTSVoice(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read header: %w", err)
	}
	if strings.TrimSpace(line) != "[GLOBAL]" {
		return fmt.Errorf("not an .htsvoice file: first line %q", strings.TrimSpace(line))
	}
	return nil
}
