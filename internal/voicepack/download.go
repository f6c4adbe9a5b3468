package voicepack

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/example/go-jtalk/internal/tts"
)

// ManifestName is the voice manifest written next to downloaded voices.
const ManifestName = "manifest.json"

const lockName = "download-manifest.lock.json"

type DownloadOptions struct {
	Pack   Pack
	OutDir string
	Token  string
	Client *http.Client
	Stdout io.Writer
}

type AccessDeniedError struct {
	URL string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied for %s; provide JTALK_DOWNLOAD_TOKEN or --token", e.URL)
}

type lockManifest struct {
	Pack      string                `json:"pack"`
	Generated string                `json:"generated"`
	Files     map[string]lockRecord `json:"files"`
}

type lockRecord struct {
	URL    string `json:"url"`
	SHA256 string `json:"sha256"`
}

var shaHexPattern = regexp.MustCompile(`(?i)^[a-f0-9]{64}$`)

// Download fetches every file of the pack into OutDir, skipping files whose
// checksum already matches, then records checksums in a lock file and
// registers the voices in OutDir's manifest.
func Download(ctx context.Context, opts DownloadOptions) error {
	if err := opts.Pack.Validate(); err != nil {
		return err
	}
	if opts.OutDir == "" {
		return errors.New("out dir is required")
	}
	d := downloader{ctx: ctx, client: opts.Client, token: opts.Token, log: opts.Stdout}
	if d.client == nil {
		d.client = http.DefaultClient
	}
	if d.log == nil {
		d.log = io.Discard
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}

	lockPath := filepath.Join(opts.OutDir, lockName)
	lock := readLockManifest(lockPath)
	lock.Pack = opts.Pack.Name
	lock.Generated = time.Now().UTC().Format(time.RFC3339)

	for _, f := range opts.Pack.Files {
		sum, err := d.fetch(f, lock, filepath.Join(opts.OutDir, filepath.FromSlash(f.Filename)))
		if err != nil {
			return err
		}
		lock.Files[f.ID] = lockRecord{URL: f.URL, SHA256: sum}
	}

	if err := writeJSON(lockPath, lock); err != nil {
		return fmt.Errorf("write lock manifest: %w", err)
	}
	fmt.Fprintf(d.log, "wrote lock manifest: %s\n", lockPath)

	manifestPath := filepath.Join(opts.OutDir, ManifestName)
	if err := registerVoices(manifestPath, opts.Pack.Files); err != nil {
		return err
	}
	fmt.Fprintf(d.log, "updated voice manifest: %s\n", manifestPath)
	return nil
}

type downloader struct {
	ctx    context.Context
	client *http.Client
	token  string
	log    io.Writer
}

// fetch makes dst hold f and returns its verified checksum.
func (d downloader) fetch(f File, lock lockManifest, dst string) (string, error) {
	want, err := d.expectedChecksum(f, lock)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create local subdir: %w", err)
	}

	ok, err := existingMatches(dst, want)
	if err != nil {
		return "", err
	}
	if ok {
		fmt.Fprintf(d.log, "skip %s (checksum match)\n", f.Filename)
		return want, nil
	}

	fmt.Fprintf(d.log, "download %s -> %s\n", f.URL, dst)
	got, err := d.get(f, dst)
	if err != nil {
		return "", err
	}
	if got != want {
		_ = os.Remove(dst)
		return "", fmt.Errorf("checksum mismatch for %s: expected %s got %s", f.Filename, want, got)
	}
	fmt.Fprintf(d.log, "verified %s (sha256=%s)\n", f.Filename, got)
	return got, nil
}

// expectedChecksum prefers the pack's pinned sum, then a lock entry for the
// same URL, then server metadata.
func (d downloader) expectedChecksum(f File, lock lockManifest) (string, error) {
	if f.SHA256 != "" {
		return strings.ToLower(f.SHA256), nil
	}
	if lr, ok := lock.Files[f.ID]; ok && lr.URL == f.URL && isSHA256Hex(lr.SHA256) {
		return strings.ToLower(lr.SHA256), nil
	}
	return d.checksumFromMetadata(f)
}

func (d downloader) do(method string, f File) (*http.Response, error) {
	req, err := http.NewRequestWithContext(d.ctx, method, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, f.Filename, err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		return nil, &AccessDeniedError{URL: f.URL}
	}
	return resp, nil
}

// get streams f into a temp file beside dst, renames it into place and
// returns the sha256 of what was written.
func (d downloader) get(f File, dst string) (string, error) {
	resp, err := d.do(http.MethodGet, f)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("download failed for %s: %s", f.Filename, resp.Status)
	}

	tmp := dst + ".tmp"
	fh, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	h := sha256.New()
	pw := &progressWriter{out: d.log, total: resp.ContentLength, every: 700 * time.Millisecond}

	_, err = io.Copy(io.MultiWriter(fh, h, pw), resp.Body)
	if cerr := fh.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, dst)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("download %s: %w", f.Filename, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// checksumFromMetadata asks the server for a sha256 with a HEAD request.
func (d downloader) checksumFromMetadata(f File) (string, error) {
	resp, err := d.do(http.MethodHead, f)
	if err != nil {
		return "", err
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("metadata request failed for %s: %s", f.Filename, resp.Status)
	}

	for _, key := range []string{"X-Checksum-Sha256", "X-Linked-Etag", "Etag"} {
		if v := normalizeETag(resp.Header.Get(key)); isSHA256Hex(v) {
			return strings.ToLower(v), nil
		}
	}
	return "", fmt.Errorf("unable to resolve sha256 metadata for %s; pin sha256 in the voice pack", f.Filename)
}

// progressWriter prints byte counts at most once per interval.
type progressWriter struct {
	out     io.Writer
	total   int64
	every   time.Duration
	written int64
	last    time.Time
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if now := time.Now(); now.Sub(p.last) >= p.every {
		p.last = now
		if p.total > 0 {
			fmt.Fprintf(p.out, "  progress: %.1f%% (%d/%d bytes)\n", float64(p.written)*100/float64(p.total), p.written, p.total)
		} else {
			fmt.Fprintf(p.out, "  progress: %d bytes\n", p.written)
		}
	}
	return len(b), nil
}

// registerVoices merges files into the manifest at path, replacing entries
// with the same id and keeping the rest in order.
func registerVoices(path string, files []File) error {
	m, err := tts.ReadManifest(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	for _, f := range files {
		m.Upsert(tts.Voice{ID: f.ID, Path: f.Filename, License: f.License, Description: f.Description})
	}
	return tts.WriteManifest(path, m)
}

func existingMatches(path, expected string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat existing file: %w", err)
	}
	if fi.IsDir() {
		return false, fmt.Errorf("expected file at %s, found directory", path)
	}
	actual, err := fileSHA256(path)
	if err != nil {
		return false, err
	}
	return actual == expected, nil
}

func normalizeETag(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, "\"")
	return v
}

func isSHA256Hex(v string) bool {
	return shaHexPattern.MatchString(v)
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("read file for checksum: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func readLockManifest(path string) lockManifest {
	out := lockManifest{Files: map[string]lockRecord{}}
	b, err := os.ReadFile(path)
	if err != nil {
		return out
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return lockManifest{Files: map[string]lockRecord{}}
	}
	if out.Files == nil {
		out.Files = map[string]lockRecord{}
	}
	return out
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
