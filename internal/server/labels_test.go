package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/go-jtalk/internal/label"
	"github.com/example/go-jtalk/internal/server"
	"github.com/example/go-jtalk/internal/text"
	"github.com/example/go-jtalk/internal/tts"
)

type stubLabeler struct {
	labels []string
	err    error
	got    string
}

func (s *stubLabeler) Labels(_ context.Context, in string) ([]string, error) {
	s.got = in
	return s.labels, s.err
}

func TestLabels_NoLabeler_Returns501(t *testing.T) {
	h := server.NewHandler(&stubSynthesizer{}, &stubVoiceLister{})
	rec := post(t, h, "/labels", `{"text":"雨"}`)

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("want 501, got %d", rec.Code)
	}
}

func TestLabels_ReturnsLabels(t *testing.T) {
	lb := &stubLabeler{labels: []string{"xx^xx-sil+a=m", "xx^sil-a+m=e"}}
	h := server.NewHandler(nil, nil, server.WithLabeler(lb))
	rec := post(t, h, "/labels", `{"text":"雨"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if lb.got != "雨" {
		t.Errorf("labeler got %q; want 雨", lb.got)
	}

	var body struct {
		Format string   `json:"format"`
		Labels []string `json:"labels"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Format != label.Format {
		t.Errorf("format = %q; want %q", body.Format, label.Format)
	}
	if len(body.Labels) != 2 {
		t.Errorf("labels = %v", body.Labels)
	}
}

func TestLabels_Validation(t *testing.T) {
	h := server.NewHandler(nil, nil, server.WithLabeler(&stubLabeler{}), server.WithMaxTextBytes(6))

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"blank text", `{"text":"  "}`, http.StatusBadRequest},
		{"too large", `{"text":"雨が降る"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := post(t, h, "/labels", tt.body); rec.Code != tt.want {
				t.Errorf("status = %d; want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLabels_MethodNotAllowed(t *testing.T) {
	h := server.NewHandler(nil, nil, server.WithLabeler(&stubLabeler{}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/labels", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("want 405, got %d", rec.Code)
	}
}

func TestTTS_NoBackend_Returns503(t *testing.T) {
	h := server.NewHandler(nil, nil)
	rec := post(t, h, "/tts", `{"text":"雨"}`)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d", rec.Code)
	}
}

func TestTTS_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"empty text", fmt.Errorf("chunk 1: %w", text.ErrEmptyText), http.StatusBadRequest},
		{"no voice", tts.ErrNoVoice, http.StatusBadRequest},
		{"unknown voice", fmt.Errorf("%w %q", tts.ErrUnknownVoice, "ghost"), http.StatusBadRequest},
		{"no engine", tts.ErrNoEngine, http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", errors.New("engine crashed"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := server.NewHandler(&stubSynthesizer{err: tt.err}, nil)
			if rec := post(t, h, "/tts", `{"text":"雨"}`); rec.Code != tt.want {
				t.Errorf("status = %d; want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	h := server.NewHandler(&stubSynthesizer{}, &stubVoiceLister{},
		server.WithCORSOrigins("https://app.example"))

	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{"allowed", "https://app.example", "https://app.example"},
		{"denied", "https://evil.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("Origin", tt.origin)
			h.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := server.NewHandler(&stubSynthesizer{}, &stubVoiceLister{}, server.WithCORSOrigins("*"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/tts", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent && rec.Code != http.StatusOK {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q; want *", got)
	}
}

func TestCORS_DisabledByDefault(t *testing.T) {
	h := server.NewHandler(&stubSynthesizer{}, &stubVoiceLister{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example")
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q; want empty", got)
	}
}
