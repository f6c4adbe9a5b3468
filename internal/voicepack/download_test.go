package voicepack

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/go-jtalk/internal/tts"
)

func sha256hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// voiceServer serves content for GET and, when etag is set, reports it on
// HEAD. It counts GET requests.
func voiceServer(t *testing.T, content []byte, etag string, gets *atomic.Int32) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if etag != "" {
			w.Header().Set("Etag", `"`+etag+`"`)
		}
		if r.Method == http.MethodHead {
			return
		}
		if gets != nil {
			gets.Add(1)
		}
		_, _ = w.Write(content)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestPackValidate(t *testing.T) {
	ok := File{ID: "mei", URL: "http://x/mei.htsvoice", Filename: "mei.htsvoice"}

	tests := []struct {
		name    string
		pack    Pack
		wantErr string
	}{
		{"ok", Pack{Files: []File{ok}}, ""},
		{"empty", Pack{}, "no files"},
		{"no id", Pack{Files: []File{{URL: "u", Filename: "f"}}}, "empty id"},
		{"duplicate", Pack{Files: []File{ok, ok}}, "duplicate"},
		{"no url", Pack{Files: []File{{ID: "a", Filename: "f"}}}, "empty url"},
		{"no filename", Pack{Files: []File{{ID: "a", URL: "u"}}}, "empty filename"},
		{"escape", Pack{Files: []File{{ID: "a", URL: "u", Filename: "../evil.htsvoice"}}}, "escapes"},
		{"absolute", Pack{Files: []File{{ID: "a", URL: "u", Filename: "/etc/evil"}}}, "escapes"},
		{"bad sha", Pack{Files: []File{{ID: "a", URL: "u", Filename: "f", SHA256: "abc"}}}, "malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pack.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadPack(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "pack.json")
	body := `{"name":"mmda","files":[{"id":"mei-normal","url":"http://x/mei_normal.htsvoice","filename":"mei/mei_normal.htsvoice","license":"CC-BY-3.0"}]}`
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	pack, err := LoadPack(p)
	if err != nil {
		t.Fatalf("LoadPack: %v", err)
	}
	if pack.Name != "mmda" || len(pack.Files) != 1 || pack.Files[0].Filename != "mei/mei_normal.htsvoice" {
		t.Errorf("unexpected pack: %+v", pack)
	}

	if _, err := LoadPack(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing pack")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPack(bad); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestDownload_FetchesVerifiesAndRegisters(t *testing.T) {
	content := []byte("[GLOBAL]\nHTS_VOICE_VERSION:1.0\n")
	var gets atomic.Int32
	srv := voiceServer(t, content, "", &gets)

	out := t.TempDir()
	pack := Pack{Name: "test", Files: []File{{
		ID:          "mei-normal",
		URL:         srv.URL + "/mei_normal.htsvoice",
		Filename:    "mei/mei_normal.htsvoice",
		SHA256:      sha256hex(content),
		License:     "CC-BY-3.0",
		Description: "female, normal",
	}}}

	var log strings.Builder
	if err := Download(context.Background(), DownloadOptions{Pack: pack, OutDir: out, Stdout: &log}); err != nil {
		t.Fatalf("Download: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(out, "mei", "mei_normal.htsvoice"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content = %q", got)
	}
	if !strings.Contains(log.String(), "verified mei/mei_normal.htsvoice") {
		t.Errorf("log:\n%s", log.String())
	}

	vm, err := tts.NewVoiceManager(filepath.Join(out, ManifestName))
	if err != nil {
		t.Fatalf("NewVoiceManager: %v", err)
	}
	path, err := vm.ResolvePath("mei-normal")
	if err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	if path != filepath.Join(out, "mei", "mei_normal.htsvoice") {
		t.Errorf("resolved path = %q", path)
	}

	// Second run skips the matching file.
	log.Reset()
	if err := Download(context.Background(), DownloadOptions{Pack: pack, OutDir: out, Stdout: &log}); err != nil {
		t.Fatalf("second Download: %v", err)
	}
	if gets.Load() != 1 {
		t.Errorf("GET count = %d, want 1", gets.Load())
	}
	if !strings.Contains(log.String(), "skip mei/mei_normal.htsvoice") {
		t.Errorf("log:\n%s", log.String())
	}
}

func TestDownload_ChecksumMismatchRemovesFile(t *testing.T) {
	srv := voiceServer(t, []byte("tampered"), "", nil)
	out := t.TempDir()

	pack := Pack{Files: []File{{
		ID:       "mei",
		URL:      srv.URL + "/mei.htsvoice",
		Filename: "mei.htsvoice",
		SHA256:   sha256hex([]byte("original")),
	}}}

	err := Download(context.Background(), DownloadOptions{Pack: pack, OutDir: out})
	if err == nil || !strings.Contains(err.Error(), "checksum mismatch") {
		t.Fatalf("expected checksum mismatch, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(out, "mei.htsvoice")); !os.IsNotExist(statErr) {
		t.Errorf("mismatched file should be removed, stat err = %v", statErr)
	}
}

func TestDownload_ChecksumFromMetadataThenLock(t *testing.T) {
	content := []byte("[GLOBAL]\n")
	sum := sha256hex(content)
	srv := voiceServer(t, content, sum, nil)
	out := t.TempDir()

	pack := Pack{Files: []File{{ID: "mei", URL: srv.URL + "/mei.htsvoice", Filename: "mei.htsvoice"}}}
	if err := Download(context.Background(), DownloadOptions{Pack: pack, OutDir: out}); err != nil {
		t.Fatalf("Download: %v", err)
	}

	lock := readLockManifest(filepath.Join(out, lockName))
	if lock.Files["mei"].SHA256 != sum {
		t.Fatalf("lock record = %+v, want sha %s", lock.Files["mei"], sum)
	}

	// With the lock in place the server no longer needs to report metadata.
	srv2 := voiceServer(t, content, "", nil)
	lock.Files["mei"] = lockRecord{URL: srv2.URL + "/mei.htsvoice", SHA256: sum}
	if err := writeJSON(filepath.Join(out, lockName), lock); err != nil {
		t.Fatal(err)
	}
	pack.Files[0].URL = srv2.URL + "/mei.htsvoice"
	if err := Download(context.Background(), DownloadOptions{Pack: pack, OutDir: out}); err != nil {
		t.Fatalf("Download with lock: %v", err)
	}
}

func TestDownload_NoChecksumAvailable(t *testing.T) {
	srv := voiceServer(t, []byte("x"), "", nil)

	pack := Pack{Files: []File{{ID: "mei", URL: srv.URL + "/mei.htsvoice", Filename: "mei.htsvoice"}}}
	err := Download(context.Background(), DownloadOptions{Pack: pack, OutDir: t.TempDir()})
	if err == nil || !strings.Contains(err.Error(), "pin sha256") {
		t.Fatalf("expected unresolved checksum error, got %v", err)
	}
}

func TestDownload_AccessDenied(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(fmt.Sprintf("HTTP%d", code), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(code)
			}))
			defer srv.Close()

			pack := Pack{Files: []File{{
				ID:       "mei",
				URL:      srv.URL + "/mei.htsvoice",
				Filename: "mei.htsvoice",
				SHA256:   sha256hex([]byte("x")),
			}}}
			err := Download(context.Background(), DownloadOptions{Pack: pack, OutDir: t.TempDir()})

			var denied *AccessDeniedError
			if !errors.As(err, &denied) {
				t.Fatalf("expected AccessDeniedError, got %T: %v", err, err)
			}
			if !strings.Contains(denied.Error(), "JTALK_DOWNLOAD_TOKEN") {
				t.Errorf("message = %q", denied.Error())
			}
		})
	}
}

func TestDownload_SendsToken(t *testing.T) {
	content := []byte("[GLOBAL]\n")
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write(content)
	}))
	defer srv.Close()

	pack := Pack{Files: []File{{ID: "mei", URL: srv.URL, Filename: "mei.htsvoice", SHA256: sha256hex(content)}}}
	if err := Download(context.Background(), DownloadOptions{Pack: pack, OutDir: t.TempDir(), Token: "secret"}); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if got := auth.Load(); got != "Bearer secret" {
		t.Errorf("Authorization = %v", got)
	}
}

func TestDownload_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	pack := Pack{Files: []File{{ID: "mei", URL: srv.URL, Filename: "mei.htsvoice", SHA256: sha256hex([]byte("x"))}}}
	if err := Download(context.Background(), DownloadOptions{Pack: pack, OutDir: t.TempDir()}); err == nil {
		t.Fatal("HTTP 500 should return error")
	}
}

func TestDownload_Validation(t *testing.T) {
	if err := Download(context.Background(), DownloadOptions{OutDir: t.TempDir()}); err == nil {
		t.Error("empty pack should fail")
	}

	pack := Pack{Files: []File{{ID: "a", URL: "u", Filename: "f"}}}
	if err := Download(context.Background(), DownloadOptions{Pack: pack}); err == nil || !strings.Contains(err.Error(), "out dir") {
		t.Errorf("missing out dir: %v", err)
	}
}

func TestRegisterVoices_MergesByID(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestName)
	existing := `{"voices":[{"id":"keep","path":"keep.htsvoice","license":"x"},{"id":"mei","path":"old.htsvoice","license":"x"}]}`
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	err := registerVoices(path, []File{
		{ID: "mei", Filename: "mei.htsvoice", License: "CC-BY-3.0"},
		{ID: "takumi", Filename: "takumi.htsvoice", License: "CC-BY-3.0"},
	})
	if err != nil {
		t.Fatalf("registerVoices: %v", err)
	}

	vm, err := tts.NewVoiceManager(path)
	if err != nil {
		t.Fatalf("NewVoiceManager: %v", err)
	}
	voices := vm.ListVoices()
	if len(voices) != 3 {
		t.Fatalf("got %d voices, want 3", len(voices))
	}
	if voices[0].ID != "keep" || voices[1].Path != "mei.htsvoice" || voices[2].ID != "takumi" {
		t.Errorf("unexpected voices: %+v", voices)
	}
}

func TestNormalizeETag(t *testing.T) {
	want := "58aa704a88faad35f22c34ea1cb55c4c5629de8b8e035c6e4936e2673dc07617"
	for _, in := range []string{want, `"` + want + `"`, `W/"` + want + `"`, "  " + want + " "} {
		if got := normalizeETag(in); got != want {
			t.Errorf("normalizeETag(%q) = %q", in, got)
		}
	}
	if !isSHA256Hex(want) || isSHA256Hex("xyz") {
		t.Error("isSHA256Hex misclassified")
	}
}

func TestExistingMatches(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, "x.htsvoice")
	if err := os.WriteFile(p, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	ok, err := existingMatches(p, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824")
	if err != nil || !ok {
		t.Fatalf("existingMatches = %v, %v; want match", ok, err)
	}

	if ok, err := existingMatches(filepath.Join(tmp, "absent"), "x"); err != nil || ok {
		t.Errorf("absent file = %v, %v", ok, err)
	}

	if _, err := existingMatches(tmp, "x"); err == nil {
		t.Error("directory should be an error")
	}
}

func TestDownload_CancelledContext(t *testing.T) {
	content := []byte("[GLOBAL]\n")
	srv := voiceServer(t, content, "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := t.TempDir()
	pack := Pack{Files: []File{{ID: "mei", URL: srv.URL, Filename: "mei.htsvoice", SHA256: sha256hex(content)}}}
	if err := Download(ctx, DownloadOptions{Pack: pack, OutDir: out}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Download = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(filepath.Join(out, ManifestName)); !os.IsNotExist(err) {
		t.Error("manifest written after a failed download")
	}
}

func TestProgressWriter(t *testing.T) {
	var out strings.Builder
	pw := &progressWriter{out: &out, total: 200}

	_, _ = pw.Write(make([]byte, 50))
	_, _ = pw.Write(make([]byte, 50))

	if !strings.Contains(out.String(), "25.0% (50/200 bytes)") || !strings.Contains(out.String(), "50.0% (100/200 bytes)") {
		t.Errorf("progress output = %q", out.String())
	}

	out.Reset()
	unknown := &progressWriter{out: &out, every: time.Hour}
	_, _ = unknown.Write(make([]byte, 10))
	_, _ = unknown.Write(make([]byte, 10))
	if out.String() != "  progress: 10 bytes\n" {
		t.Errorf("throttled output = %q", out.String())
	}
}
